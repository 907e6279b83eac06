// Package dbx provides the small database abstractions shared by the
// repositories: the DBTX interface satisfied by both *sql.DB and *sql.Tx, and
// Open, which picks a driver from a connection URI and waits for the database
// to answer before handing the pool out.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect names the SQL flavour behind a connection.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Target is a parsed DATABASE_URI.
type Target struct {
	Dialect Dialect
	Driver  string
	DSN     string
}

// ParseURI maps a DATABASE_URI to a database/sql driver and DSN.
//
//	postgres://user:pw@host/db   -> pgx
//	postgresql://...             -> pgx
//	sqlite://path/to/file.db     -> sqlite, "path/to/file.db"
//	sqlite::memory:              -> sqlite, ":memory:"
//	file:auth.db?mode=memory     -> sqlite, unchanged
func ParseURI(uri string) (Target, error) {
	switch {
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return Target{Dialect: DialectPostgres, Driver: "pgx", DSN: uri}, nil
	case uri == "sqlite::memory:":
		return Target{Dialect: DialectSQLite, Driver: "sqlite", DSN: ":memory:"}, nil
	case strings.HasPrefix(uri, "sqlite://"):
		path := strings.TrimPrefix(uri, "sqlite://")
		if path == "" {
			return Target{}, fmt.Errorf("sqlite uri without path: %q", uri)
		}
		return Target{Dialect: DialectSQLite, Driver: "sqlite", DSN: path}, nil
	case strings.HasPrefix(uri, "file:"):
		return Target{Dialect: DialectSQLite, Driver: "sqlite", DSN: uri}, nil
	default:
		return Target{}, fmt.Errorf("unsupported database uri scheme: %q", redact(uri))
	}
}

// OpenOptions controls how long Open keeps pinging an unreachable database.
type OpenOptions struct {
	PingAttempts uint64
	PingBackoff  time.Duration
}

// DefaultOpenOptions gives a starting database roughly half a minute.
var DefaultOpenOptions = OpenOptions{PingAttempts: 6, PingBackoff: 500 * time.Millisecond}

// Open opens the database named by uri and pings it with exponential backoff.
func Open(ctx context.Context, uri string, opts OpenOptions) (*sql.DB, Target, error) {
	target, err := ParseURI(uri)
	if err != nil {
		return nil, Target{}, err
	}

	db, err := sql.Open(target.Driver, target.DSN)
	if err != nil {
		return nil, Target{}, fmt.Errorf("db open error: %w", err)
	}

	if target.Dialect == DialectSQLite {
		// go-sqlite does not support concurrent writers; an in-memory
		// database also lives only as long as its single connection.
		db.SetMaxOpenConns(1)
	}

	backoff := retry.WithMaxRetries(opts.PingAttempts, retry.NewExponential(opts.PingBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, Target{}, fmt.Errorf("db ping error: %w", err)
	}

	return db, target, nil
}

// redact hides the userinfo part of a URI before it goes into an error.
func redact(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}
	return scheme + "://" + rest
}
