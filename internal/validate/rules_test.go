package validate

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func mustCompile(pattern string) *regexp.Regexp {
	return regexp.MustCompile(pattern)
}

func writeRuleFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write rule file: %v", err)
	}
}

const sampleRules = `
rules:
  - pattern: "acme corp"
    category: Income
categories:
  Subscriptions:
    - netflix
    - spotify
`

func TestLoadRuleTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRuleFile(t, path, sampleRules)

	table, err := LoadRuleTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	category, forced := table.Classify("ACME Corp payment", 0, 100)
	if category != "Income" || !forced {
		t.Errorf("Classify(acme) = %q forced=%v, want Income forced", category, forced)
	}

	// File categories extend the defaults.
	if category, _ := table.Classify("Netflix monthly", 15, 0); category != "Subscriptions" {
		t.Errorf("Classify(netflix) = %q, want Subscriptions", category)
	}
	// Defaults still apply.
	if category, _ := table.Classify("Kroger Supermarket", 80, 0); category != "Groceries" {
		t.Errorf("Classify(kroger) = %q, want Groceries", category)
	}
}

func TestLoadRuleTable_InvalidPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRuleFile(t, path, "rules:\n  - pattern: \"([\"\n    category: Other\n")

	if _, err := LoadRuleTable(path); err == nil {
		t.Fatal("invalid regex should fail to load")
	}
}

func TestRuleTable_BrokenReloadKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRuleFile(t, path, sampleRules)

	table, err := LoadRuleTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// A reload that fails to parse must leave the table untouched.
	if err := table.loadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if category, forced := table.Classify("acme corp", 0, 100); category != "Income" || !forced {
		t.Errorf("rules lost after failed reload: %q forced=%v", category, forced)
	}
}

func TestRuleTable_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	writeRuleFile(t, path, sampleRules)

	table, err := LoadRuleTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := table.Watch(path); err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer table.Close()

	writeRuleFile(t, path, `
rules:
  - pattern: "globex"
    category: Transfer
`)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if category, forced := table.Classify("Globex payment", 50, 0); forced && category == "Transfer" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("rule table did not reload after file change")
}

func TestClassify_IncomeShortcutRequiresCredit(t *testing.T) {
	table := DefaultRuleTable()

	// A payroll credit is income even when an earlier category's
	// keyword also matches the description.
	if category, _ := table.Classify("Restaurant payroll deposit", 0, 2000); category != "Income" {
		t.Error("payroll credit not classified as Income")
	}
	// The same description as a debit falls through to the keyword
	// order.
	if category, _ := table.Classify("Restaurant payroll deposit", 45, 0); category != "Dining" {
		t.Error("debit should classify by keyword order")
	}
}
