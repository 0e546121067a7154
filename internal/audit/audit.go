package audit

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"
)

// ErrIncomplete is returned for entries with no action.
var ErrIncomplete = errors.New("audit: entry missing action")

// Entry is one row of the append-only trail of mutating actions. The
// metadata payload is stored verbatim alongside its digest so tampering
// with either is detectable.
type Entry struct {
	ID            string
	Actor         string
	Role          string
	Action        string
	ResourceType  string
	ResourceID    string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger appends entries to the audit trail.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// stamp fills the generated fields of an entry before it is written.
func (e *Entry) stamp(now time.Time) error {
	if e.Action == "" {
		return ErrIncomplete
	}
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now.UTC()
	}
	if e.PayloadDigest == "" && len(e.Metadata) > 0 {
		sum := sha256.Sum256(e.Metadata)
		e.PayloadDigest = hex.EncodeToString(sum[:])
	}
	return nil
}

func newID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "audit-" + hex.EncodeToString(buf)
}
