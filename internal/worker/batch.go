package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledgerline/ledgerline/internal/pipeline"
)

// Parser turns saved backend response text into a validated
// statement. Satisfied by *pipeline.Processor.
type Parser interface {
	ParseText(text string) (*pipeline.Result, error)
}

// ParseJob parses one saved response file.
type ParseJob struct {
	Path   string
	Parser Parser
}

// Execute reads the file and runs extraction and validation.
func (j *ParseJob) Execute(ctx context.Context) Result {
	data, err := os.ReadFile(j.Path)
	if err != nil {
		return &ParseResult{Path: j.Path, Error: fmt.Errorf("read %s: %w", j.Path, err)}
	}

	result, err := j.Parser.ParseText(string(data))
	if err != nil {
		return &ParseResult{Path: j.Path, Error: fmt.Errorf("parse %s: %w", j.Path, err)}
	}
	return &ParseResult{Path: j.Path, Result: result}
}

// ParseResult is the outcome of one batch file.
type ParseResult struct {
	Path   string
	Result *pipeline.Result
	Error  error
}

func (r *ParseResult) Err() error { return r.Error }

// BatchProcessor parses saved response files concurrently.
type BatchProcessor struct {
	parser      Parser
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(parser Parser, concurrency int) *BatchProcessor {
	return &BatchProcessor{parser: parser, concurrency: concurrency}
}

// ProcessPaths parses the given files concurrently. Per-file failures
// land in their result; the batch always runs to completion.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*ParseResult {
	if len(paths) == 0 {
		return []*ParseResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()
	for _, path := range paths {
		pool.Submit(&ParseJob{Path: path, Parser: b.parser})
	}

	results := pool.Wait()
	out := make([]*ParseResult, len(results))
	for i, r := range results {
		out[i] = r.(*ParseResult)
	}
	return out
}

// ProcessFile reads a manifest (one response file path per line) and
// parses every listed file.
func (b *BatchProcessor) ProcessFile(ctx context.Context, manifestPath string) ([]*ParseResult, error) {
	paths, err := ReadPathsFromFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads file paths from a manifest, one per line,
// skipping blanks, comments, and duplicates.
func ReadPathsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return paths, nil
}
