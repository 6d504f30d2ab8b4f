package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ledgerline/ledgerline/internal/model"
)

// Entry is one cached extraction result. Entries are created on first
// successful extraction and shared read-only by every subsequent
// request with the same fingerprint until expiry.
type Entry struct {
	Fingerprint       string                  `json:"fingerprint"`
	Statement         *model.Statement        `json:"statement"`
	Report            *model.ValidationReport `json:"report"`
	BackendUsed       string                  `json:"backend_used"`
	Strategy          string                  `json:"strategy"`
	SensitiveOverride bool                    `json:"sensitive_override"`
	CreatedAt         time.Time               `json:"created_at"`
	ExpiresAt         time.Time               `json:"expires_at"`
}

// Expired reports whether the entry is past its TTL. Every store
// re-checks this at read time so a lookup can never observe an
// expired entry.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Store is the entry storage interface. Implementations must never
// return an expired entry from Get.
type Store interface {
	Get(key string) (*Entry, bool)
	Set(key string, entry *Entry, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// FingerprintPrefix marks a string as a cache fingerprint rather than
// a document path. The version segment changes whenever the digest
// layout does, so stale on-disk entries simply stop matching.
const FingerprintPrefix = "ledgerline:v1:"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Fingerprint computes the content-addressed cache key: a digest over
// the normalized prompt, the attachment bytes, and the
// backend-affecting options. It is keyed purely by content, never by
// caller identity — identical documents always short-circuit.
func Fingerprint(prompt string, attachment []byte, opts model.InvokeOptions) string {
	normalized := whitespaceRun.ReplaceAllString(strings.TrimSpace(prompt), " ")

	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write([]byte{0})
	h.Write(attachment)
	h.Write([]byte{0})
	fmt.Fprintf(h, "%s|%d|%g", opts.Model, opts.MaxTokens, opts.Temperature)

	return FingerprintPrefix + hex.EncodeToString(h.Sum(nil))
}
