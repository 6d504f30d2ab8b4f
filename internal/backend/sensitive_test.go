package backend

import "testing"

func TestSensitiveDetector(t *testing.T) {
	d := NewSensitiveDetector()

	tests := []struct {
		name  string
		text  string
		kind  string
		match bool
	}{
		{"credit card spaced", "card 4111 1111 1111 1111 on file", "credit_card", true},
		{"credit card dashed", "4111-1111-1111-1111", "credit_card", true},
		{"ssn", "holder SSN 123-45-6789", "ssn", true},
		{"account number", "Account #: 12345678 statement period", "account_number", true},
		{"acct abbreviation", "acct 9876543 overdrawn", "account_number", true},
		{"routing number", "routing 123456789 for transfers", "routing_number", true},
		{"plain prompt", "Extract all transactions from this statement", "", false},
		{"short digits", "invoice 12345 paid", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, match := d.Detect(tt.text)
			if match != tt.match {
				t.Fatalf("Detect(%q) match = %v, want %v", tt.text, match, tt.match)
			}
			if match && kind != tt.kind {
				t.Errorf("Detect(%q) kind = %q, want %q", tt.text, kind, tt.kind)
			}
		})
	}
}
