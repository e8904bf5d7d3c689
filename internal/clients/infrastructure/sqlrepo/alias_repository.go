package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dstech-dashboard/internal/clients/domain"
	"dstech-dashboard/internal/platform/database"
)

const (
	defaultPostgresTable = "app.client_alias"
	defaultSQLiteTable   = "client_alias"
)

// AliasRepository stores client aliases next to the historian tables.
type AliasRepository struct {
	db      *sql.DB
	dialect database.Dialect
	table   string
}

// AliasOption configures the repository.
type AliasOption func(*AliasRepository)

// WithAliasTable overrides the default table name.
func WithAliasTable(table string) AliasOption {
	return func(repo *AliasRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewAliasRepository constructs a repository. Postgres keeps aliases in
// the app schema.
func NewAliasRepository(db *sql.DB, dialect database.Dialect, opts ...AliasOption) (*AliasRepository, error) {
	if db == nil {
		return nil, errors.New("alias repo: nil db")
	}
	repo := &AliasRepository{db: db, dialect: dialect, table: defaultPostgresTable}
	if dialect == database.SQLite {
		repo.table = defaultSQLiteTable
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

// EnsureSchema creates the alias table and, on Postgres, copies names from
// the legacy public.clientes table when present.
func (r *AliasRepository) EnsureSchema(ctx context.Context) error {
	if r.dialect == database.Postgres {
		if _, err := r.db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS app`); err != nil {
			return fmt.Errorf("alias repo: create schema: %w", err)
		}
	}
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	client_id INTEGER PRIMARY KEY,
	alias TEXT NOT NULL
)`, r.table)); err != nil {
		return fmt.Errorf("alias repo: create table: %w", err)
	}
	if r.dialect != database.Postgres {
		return nil
	}

	var legacy bool
	if err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1 FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = 'clientes'
)`).Scan(&legacy); err != nil {
		return fmt.Errorf("alias repo: probe legacy table: %w", err)
	}
	if !legacy {
		return nil
	}
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (client_id, alias)
SELECT c.client_id, c.client_name
FROM public.clientes c
ON CONFLICT (client_id) DO NOTHING`, r.table))
	if err != nil {
		return fmt.Errorf("alias repo: migrate legacy aliases: %w", err)
	}
	return nil
}

// List returns aliases ordered by client id.
func (r *AliasRepository) List(ctx context.Context) ([]domain.Alias, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT client_id, alias FROM %s ORDER BY client_id ASC`, r.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aliases := make([]domain.Alias, 0)
	for rows.Next() {
		var alias domain.Alias
		if err := rows.Scan(&alias.ClientID, &alias.Alias); err != nil {
			return nil, err
		}
		aliases = append(aliases, alias)
	}
	return aliases, rows.Err()
}

// Aliases returns the alias of every client id.
func (r *AliasRepository) Aliases(ctx context.Context) (map[int]string, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]string, len(list))
	for _, alias := range list {
		out[alias.ClientID] = alias.Alias
	}
	return out, nil
}

// Upsert inserts or replaces an alias.
func (r *AliasRepository) Upsert(ctx context.Context, alias domain.Alias) error {
	if err := alias.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(fmt.Sprintf(`
INSERT INTO %s (client_id, alias)
VALUES (?, ?)
ON CONFLICT (client_id) DO UPDATE SET alias = EXCLUDED.alias`, r.table)), alias.ClientID, alias.Alias)
	return err
}

// Delete removes the alias of clientID and reports whether one existed.
func (r *AliasRepository) Delete(ctx context.Context, clientID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE client_id = ?`, r.table)), clientID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear removes every alias and returns how many were deleted.
func (r *AliasRepository) Clear(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, r.table))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LoadClients lists distinct client ids found in the load records.
func (r *AliasRepository) LoadClients(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT CAST(rc."C1" AS INTEGER) AS client_id
FROM "Rel_Carga" rc
WHERE rc."C1" IS NOT NULL
ORDER BY client_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Catalogue merges load clients with their aliases.
func (r *AliasRepository) Catalogue(ctx context.Context) ([]domain.CatalogueEntry, error) {
	ids, err := r.LoadClients(ctx)
	if err != nil {
		return nil, err
	}
	aliases, err := r.Aliases(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Merge(ids, aliases), nil
}
