package database

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects placeholder syntax for a database/sql driver.
type Dialect int

const (
	// Postgres uses $n placeholders.
	Postgres Dialect = iota
	// SQLite uses ? placeholders.
	SQLite
)

// DialectFor maps a database/sql driver name to a dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("database: unsupported driver %q", driver)
	}
}

// Driver returns the registered database/sql driver name.
func (d Dialect) Driver() string {
	if d == SQLite {
		return "sqlite3"
	}
	return "pgx"
}

func (d Dialect) String() string { return d.Driver() }

// Placeholder renders the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == SQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// Rebind rewrites ? placeholders of query for the dialect.
func (d Dialect) Rebind(query string) string {
	if d == SQLite {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
