package validate

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Rule forces a category onto any record whose description matches
// the pattern. Rules take precedence over keyword categories.
type Rule struct {
	Pattern  string `yaml:"pattern"`
	Category string `yaml:"category"`
}

type compiledRule struct {
	re       *regexp.Regexp
	category string
}

type ruleFile struct {
	Rules      []Rule              `yaml:"rules"`
	Categories map[string][]string `yaml:"categories"`
}

// RuleTable holds the classification rules: regex rules that force a
// category, and keyword lists that suggest one. The table is safe for
// concurrent use and supports hot reload from a watched YAML file.
type RuleTable struct {
	mu         sync.RWMutex
	rules      []compiledRule
	categories map[string][]string
	order      []string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// categoryOrder fixes the evaluation order of keyword categories so
// classification is deterministic when keywords overlap.
var categoryOrder = []string{
	"Groceries", "Transportation", "Dining", "Shopping", "Utilities",
	"Housing", "Income", "Transfer", "Healthcare", "Entertainment",
	"Banking", "Cash", "Bills",
}

// DefaultRuleTable returns the built-in keyword table used when no
// rule file is configured.
func DefaultRuleTable() *RuleTable {
	return &RuleTable{
		categories: map[string][]string{
			"Groceries":      {"grocery", "food", "market", "supermarket", "walmart", "kroger", "safeway"},
			"Transportation": {"gas station", "fuel", "petrol", "uber", "lyft", "taxi", "parking", "shell", "chevron", "exxon"},
			"Dining":         {"restaurant", "cafe", "coffee", "dining", "pizza", "mcdonald", "starbucks"},
			"Shopping":       {"amazon", "online", "ebay", "store", "purchase", "shop", "electronics"},
			"Utilities":      {"utility", "electric", "water bill", "gas bill", "internet", "phone", "bill payment"},
			"Housing":        {"rent", "mortgage", "lease", "housing"},
			"Income":         {"salary", "payroll", "wage", "deposit", "direct deposit", "income"},
			"Transfer":       {"transfer", "payment", "zelle", "venmo", "savings"},
			"Healthcare":     {"pharmacy", "doctor", "medical", "hospital", "cvs", "walgreens"},
			"Entertainment":  {"movie", "netflix", "spotify", "game", "subscription"},
			"Banking":        {"service fee", "bank fee", "overdraft", "interest", "atm fee", "fees"},
			"Cash":           {"atm withdrawal", "cash withdrawal", "atm"},
			"Bills":          {"mastercard", "visa", "amex", "credit card"},
		},
		order: append([]string(nil), categoryOrder...),
	}
}

// LoadRuleTable reads a rule file and merges it over the defaults:
// file categories replace same-named built-in categories, file rules
// are appended in order.
func LoadRuleTable(path string) (*RuleTable, error) {
	t := DefaultRuleTable()
	if err := t.loadFile(path); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *RuleTable) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rule file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse rule file: %w", err)
	}

	var rules []compiledRule
	for _, r := range file.Rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return fmt.Errorf("compile rule %q: %w", r.Pattern, err)
		}
		rules = append(rules, compiledRule{re: re, category: r.Category})
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules = rules
	for name, keywords := range file.Categories {
		if _, known := t.categories[name]; !known {
			t.order = append(t.order, name)
		}
		t.categories[name] = keywords
	}
	return nil
}

// Watch reloads the rule file whenever it changes. A reload that
// fails to parse keeps the previous table; the swap is atomic from
// the perspective of concurrent Classify calls.
func (t *RuleTable) Watch(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors replace files on save, which drops
	// a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", path, err)
	}

	t.watcher = watcher
	t.done = make(chan struct{})

	go func() {
		target := filepath.Clean(path)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := t.loadFile(path); err != nil {
					log.Printf("validate.RuleTable: reload %s: %v (keeping previous rules)", path, err)
					continue
				}
				log.Printf("validate.RuleTable: reloaded %s", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("validate.RuleTable: watch error: %v", err)
			case <-t.done:
				return
			}
		}
	}()
	return nil
}

// Close stops the file watcher, if one is running.
func (t *RuleTable) Close() {
	if t.watcher != nil {
		close(t.done)
		t.watcher.Close()
		t.watcher = nil
	}
}

// Classify returns the category for a record. The bool reports
// whether a regex rule forced the category; keyword matches are
// suggestions and never override an existing category.
func (t *RuleTable) Classify(description string, debit, credit float64) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lower := strings.ToLower(description)

	for _, rule := range t.rules {
		if rule.re.MatchString(description) {
			return rule.category, true
		}
	}

	// Credits from payroll-like descriptions are income regardless of
	// which other keywords appear.
	if credit > 0 && debit == 0 {
		for _, kw := range []string{"salary", "payroll", "wage", "deposit"} {
			if strings.Contains(lower, kw) {
				return "Income", false
			}
		}
	}

	for _, name := range t.order {
		for _, kw := range t.categories[name] {
			if strings.Contains(lower, kw) {
				return name, false
			}
		}
	}
	return "Other", false
}
