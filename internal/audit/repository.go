package audit

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dstech-dashboard/internal/platform/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	actor TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	resource_type TEXT NOT NULL DEFAULT '',
	resource_id TEXT NOT NULL DEFAULT '',
	metadata TEXT,
	payload_digest TEXT NOT NULL DEFAULT '',
	ip TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
)`

// Repository writes audit logs.
type Repository struct {
	db      *sql.DB
	dialect database.Dialect
	now     func() time.Time
}

// NewRepository constructs an audit repository.
func NewRepository(db *sql.DB, dialect database.Dialect) (*Repository, error) {
	if db == nil {
		return nil, errors.New("audit repo: nil db")
	}
	return &Repository{db: db, dialect: dialect, now: time.Now}, nil
}

// EnsureSchema creates the audit table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Log writes an audit entry.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit repo: nil db")
	}
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}
	if entry.PayloadDigest == "" {
		entry.PayloadDigest = DigestJSON(entry.Metadata)
	}
	var metadata any
	if len(entry.Metadata) > 0 {
		metadata = string(entry.Metadata)
	}

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
INSERT INTO audit_logs (
	id, actor, role, action, resource_type, resource_id,
	metadata, payload_digest, ip, user_agent, created_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?)`),
		entry.ID, entry.Actor, entry.Role, entry.Action, entry.ResourceType, entry.ResourceID,
		metadata, entry.PayloadDigest, entry.IP, entry.UserAgent, entry.CreatedAt)
	return err
}

// Recent lists the newest entries first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(`
SELECT id, actor, role, action, resource_type, resource_id,
	metadata, payload_digest, ip, user_agent, created_at
FROM audit_logs
ORDER BY created_at DESC, id
LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			entry    Entry
			metadata sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.Role, &entry.Action, &entry.ResourceType, &entry.ResourceID,
			&metadata, &entry.PayloadDigest, &entry.IP, &entry.UserAgent, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if metadata.Valid && metadata.String != "" {
			entry.Metadata = []byte(metadata.String)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
