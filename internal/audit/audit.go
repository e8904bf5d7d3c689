package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audited actions.
const (
	ActionLogin        = "auth.login"
	ActionLoginFailed  = "auth.login_failed"
	ActionAliasUpsert  = "client_alias.upsert"
	ActionAliasDelete  = "client_alias.delete"
	ActionAliasClear   = "client_alias.clear"
	ActionReportExport = "report.export"
	ActionReportDaily  = "report.daily"
)

// Entry represents an audit log entry.
type Entry struct {
	ID            string          `json:"id"`
	Actor         string          `json:"actor"`
	Role          string          `json:"role,omitempty"`
	Action        string          `json:"action"`
	ResourceType  string          `json:"resource_type,omitempty"`
	ResourceID    string          `json:"resource_id,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	PayloadDigest string          `json:"payload_digest,omitempty"`
	IP            string          `json:"ip,omitempty"`
	UserAgent     string          `json:"user_agent,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// NewID generates a random audit id.
func NewID() string {
	return "audit-" + uuid.NewString()
}

// DigestJSON computes a SHA256 hex digest for metadata payloads.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Metadata marshals v for Entry.Metadata; unencodable values yield nil.
func Metadata(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

// Nop discards entries.
type Nop struct{}

func (Nop) Log(context.Context, Entry) error { return nil }
