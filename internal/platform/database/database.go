package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 5
	defaultConnLifetime = time.Hour
	defaultConnIdleTime = 30 * time.Minute
	defaultPingTimeout  = 5 * time.Second
)

// Pool tunes the connection pool. Zero values use defaults.
type Pool struct {
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// Open creates a pooled *sql.DB for driver and validates the connection.
func Open(ctx context.Context, driver, dsn string, pool Pool) (*sql.DB, Dialect, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, 0, errors.New("database: empty DSN")
	}
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, 0, err
	}

	db, err := sql.Open(dialect.Driver(), dsn)
	if err != nil {
		return nil, 0, err
	}

	if dialect == SQLite {
		// go-sqlite3 serializes writers; one connection keeps :memory: databases shared.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(orDefault(pool.MaxOpenConns, defaultMaxOpenConns))
		db.SetMaxIdleConns(orDefault(pool.MaxIdleConns, defaultMaxIdleConns))
	}
	lifetime := pool.ConnLifetime
	if lifetime <= 0 {
		lifetime = defaultConnLifetime
	}
	db.SetConnMaxLifetime(lifetime)
	db.SetConnMaxIdleTime(defaultConnIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, 0, err
	}
	return db, dialect, nil
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
