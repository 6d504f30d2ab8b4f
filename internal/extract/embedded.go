package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledgerline/ledgerline/internal/model"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// EmbeddedJSONStrategy recovers a JSON document that the backend
// wrapped in prose or a markdown code fence. Before decoding it
// repairs the damage language models typically inflict on JSON:
// trailing commas and arithmetic expressions left unevaluated in
// numeric fields.
type EmbeddedJSONStrategy struct{}

func (s *EmbeddedJSONStrategy) Name() string { return "embedded-json" }

func (s *EmbeddedJSONStrategy) Parse(text string) (*model.Statement, error) {
	candidate := extractJSONSpan(text)
	if candidate == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	candidate = repairJSON(candidate)

	var doc statementDoc
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return nil, fmt.Errorf("decode embedded document: %w", err)
	}
	if len(doc.Transactions) == 0 {
		return nil, fmt.Errorf("embedded document contains no transactions")
	}
	return doc.toStatement(), nil
}

// extractJSONSpan finds the most plausible JSON object in the text: a
// fenced code block if present, otherwise the widest balanced-brace
// span.
func extractJSONSpan(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

var (
	trailingCommaObj = regexp.MustCompile(`,\s*\}`)
	trailingCommaArr = regexp.MustCompile(`,\s*\]`)
	numericExpr      = regexp.MustCompile(`"(\w+)"\s*:\s*(-?\d[\d.]*(?:\s*[+\-*/]\s*-?\d[\d.]*)+)`)
)

// repairJSON fixes the recoverable mistakes: trailing commas and
// numeric fields holding an arithmetic expression instead of its
// value (e.g. `"total_debits": 100.00 + 50.00`).
func repairJSON(s string) string {
	s = trailingCommaObj.ReplaceAllString(s, "}")
	s = trailingCommaArr.ReplaceAllString(s, "]")
	s = numericExpr.ReplaceAllStringFunc(s, func(match string) string {
		m := numericExpr.FindStringSubmatch(match)
		value, err := evalExpr(m[2])
		if err != nil {
			return match
		}
		return fmt.Sprintf("%q: %g", m[1], value)
	})
	return s
}
