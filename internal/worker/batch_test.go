package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ledgerline/ledgerline/internal/pipeline"
)

type stubParser struct{}

func (stubParser) ParseText(text string) (*pipeline.Result, error) {
	return pipeline.Parse(text, nil)
}

const savedResponse = `{"transactions": [{"date": "01/15/2024", "description": "Coffee", "debit": 4.50, "balance": 95.50}]}`

func writeFiles(t *testing.T, dir string, contents map[string]string) []string {
	t.Helper()
	var paths []string
	for name, content := range contents {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestBatchProcessor_ProcessPaths(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, map[string]string{
		"good.txt": savedResponse,
		"bad.txt":  "not a statement at all",
	})
	paths = append(paths, filepath.Join(dir, "missing.txt"))

	results := NewBatchProcessor(stubParser{}, 2).ProcessPaths(context.Background(), paths)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	byPath := make(map[string]*ParseResult, len(results))
	for _, r := range results {
		byPath[filepath.Base(r.Path)] = r
	}

	good := byPath["good.txt"]
	if good == nil || good.Err() != nil {
		t.Fatalf("good file failed: %+v", good)
	}
	if len(good.Result.Statement.Transactions) != 1 {
		t.Errorf("good file parsed %d transactions", len(good.Result.Statement.Transactions))
	}

	if byPath["bad.txt"] == nil || byPath["bad.txt"].Err() == nil {
		t.Error("unparseable file should carry an error")
	}
	if byPath["missing.txt"] == nil || byPath["missing.txt"].Err() == nil {
		t.Error("missing file should carry an error")
	}
}

func TestReadPathsFromFile(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "manifest.txt")
	content := "a.txt\n\n# comment\nb.txt\na.txt\n"
	if err := os.WriteFile(manifest, []byte(content), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	paths, err := ReadPathsFromFile(manifest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(paths) != 2 || paths[0] != "a.txt" || paths[1] != "b.txt" {
		t.Errorf("paths = %v, want [a.txt b.txt]", paths)
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	dir := t.TempDir()
	files := writeFiles(t, dir, map[string]string{"resp.txt": savedResponse})

	manifest := filepath.Join(dir, "manifest.txt")
	if err := os.WriteFile(manifest, []byte(files[0]+"\n"), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	results, err := NewBatchProcessor(stubParser{}, 2).ProcessFile(context.Background(), manifest)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(results) != 1 || results[0].Err() != nil {
		t.Fatalf("results = %+v", results)
	}
}
