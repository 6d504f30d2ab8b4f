package extract

import (
	"fmt"
	"log"
	"strings"

	"github.com/ledgerline/ledgerline/internal/model"
)

// Strategy is a single parsing approach for turning raw response text
// into a statement. Strategies must not mutate their input.
type Strategy interface {
	// Name identifies the strategy in provenance stamps and logs.
	Name() string
	// Parse attempts to build a statement from the text. A nil error
	// means the strategy produced at least one usable transaction.
	Parse(text string) (*model.Statement, error)
}

// ExtractionFailedError is returned when every strategy in the chain
// failed to produce transactions.
type ExtractionFailedError struct {
	Strategies []string
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("extraction failed after %d strategies (%s)",
		len(e.Strategies), strings.Join(e.Strategies, ", "))
}

// Pipeline runs an ordered chain of parsing strategies against a raw
// backend response. The first strategy to succeed wins; on total
// failure the caller receives an empty statement alongside the error
// so downstream code never handles a nil statement.
type Pipeline struct {
	strategies []Strategy
}

// NewPipeline creates the default chain: structured document first,
// then JSON embedded in surrounding prose, then delimited-table text.
func NewPipeline() *Pipeline {
	return &Pipeline{
		strategies: []Strategy{
			&StructuredStrategy{},
			&EmbeddedJSONStrategy{},
			&TableStrategy{},
		},
	}
}

// Extract parses the raw response and stamps provenance — which
// strategy produced each record — onto every transaction. Returns the
// statement, the name of the winning strategy, and an error only when
// all strategies fail.
func (p *Pipeline) Extract(raw *model.RawResponse) (*model.Statement, string, error) {
	var attempted []string
	for _, s := range p.strategies {
		statement, err := s.Parse(raw.Text)
		if err != nil {
			log.Printf("extract.Pipeline: strategy %s: %v", s.Name(), err)
			attempted = append(attempted, s.Name())
			continue
		}

		for i := range statement.Transactions {
			statement.Transactions[i].Strategy = s.Name()
		}
		statement.CalculateTotals()
		log.Printf("extract.Pipeline: strategy %s parsed %d transactions",
			s.Name(), len(statement.Transactions))
		return statement, s.Name(), nil
	}

	return &model.Statement{}, "", &ExtractionFailedError{Strategies: attempted}
}
