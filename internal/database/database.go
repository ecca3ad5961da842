package database

import (
	"context"
	"errors"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure (syntax error, invalid reference, etc.).
	ErrQuery = errors.New("query error")
)

// Database is a connection that speaks a query language with named variables.
// SurrealDB is the implementation; the SQL, Mongo and Reindexer stores expose
// their native clients instead.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns the result of every statement.
	Query(ctx context.Context, query string, vars map[string]any) ([]Result, error)

	// QueryOne returns the first record of the first statement, or ErrNotFound.
	QueryOne(ctx context.Context, query string, vars map[string]any) (any, error)

	// Execute runs a query without returning results.
	Execute(ctx context.Context, query string, vars map[string]any) error

	// Batch runs statements in one transaction. Either all apply or none do.
	Batch(ctx context.Context, stmts ...Statement) error
}

// Result is the outcome of one statement in a query.
type Result struct {
	Status string
	Rows   any
}

// Records returns the rows of a statement as a slice of records.
func (r Result) Records() []any {
	switch rows := r.Rows.(type) {
	case nil:
		return nil
	case []any:
		return rows
	default:
		return []any{rows}
	}
}

// Statement is one query of a batch.
type Statement struct {
	Query string
	Vars  map[string]any
}

// Config holds SurrealDB connection settings
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}
