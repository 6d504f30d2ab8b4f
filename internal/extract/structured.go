package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ledgerline/ledgerline/internal/model"
)

// StructuredStrategy handles the best case: the entire response body
// is the requested JSON document, nothing else. It is strict — any
// surrounding prose sends the response to the next strategy.
type StructuredStrategy struct{}

func (s *StructuredStrategy) Name() string { return "structured" }

func (s *StructuredStrategy) Parse(text string) (*model.Statement, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("response is not a bare JSON object")
	}

	var doc statementDoc
	dec := json.NewDecoder(strings.NewReader(trimmed))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	// Trailing non-whitespace after the object means the document was
	// embedded in prose; let the embedded strategy deal with it.
	var rest json.RawMessage
	if err := dec.Decode(&rest); err != io.EOF {
		return nil, fmt.Errorf("trailing content after document")
	}

	if len(doc.Transactions) == 0 {
		return nil, fmt.Errorf("document contains no transactions")
	}
	// Strict mode: a bare document is expected to be complete. Partial
	// records send the response to the lenient strategies.
	for i, t := range doc.Transactions {
		if strings.TrimSpace(t.Date) == "" || strings.TrimSpace(t.Description) == "" {
			return nil, fmt.Errorf("transaction %d missing date or description", i)
		}
	}
	return doc.toStatement(), nil
}
