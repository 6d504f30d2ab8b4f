package backend

import "regexp"

// SensitiveDetector matches identifier patterns (account numbers,
// card numbers, national IDs) that must not be routed to a backend
// which does not handle sensitive content.
type SensitiveDetector struct {
	patterns []*sensitivePattern
}

type sensitivePattern struct {
	kind string
	re   *regexp.Regexp
}

// NewSensitiveDetector builds the default detector. Patterns follow
// the identifier shapes seen in real statements; they are checked over
// the prompt text only. Attachment bytes are never decoded or scanned.
func NewSensitiveDetector() *SensitiveDetector {
	return &SensitiveDetector{
		patterns: []*sensitivePattern{
			{kind: "ssn", re: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
			{kind: "credit_card", re: regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`)},
			{kind: "account_number", re: regexp.MustCompile(`(?i)\bacc(?:oun)?t\s*#?\s*:?\s*\d{6,}\b`)},
			{kind: "routing_number", re: regexp.MustCompile(`(?i)\brouting\s*#?\s*:?\s*\d{9}\b`)},
		},
	}
}

// Detect returns the kind of the first matching pattern and whether
// any pattern matched.
func (d *SensitiveDetector) Detect(text string) (string, bool) {
	for _, p := range d.patterns {
		if p.re.MatchString(text) {
			return p.kind, true
		}
	}
	return "", false
}
