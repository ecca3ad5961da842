package database

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB implements the Database interface for SurrealDB
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB creates a new SurrealDB instance
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{
		config: cfg,
	}
}

// Connect establishes a connection to SurrealDB
func (s *SurrealDB) Connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("ws://%s:%s", s.config.Host, s.config.Port)

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	_, err = db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	})
	if err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SurrealDB) Close() error {
	if s.db != nil {
		return s.db.Close(context.Background())
	}
	return nil
}

// Ping checks the database connection
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query executes a query and returns results
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]any) ([]Result, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[any](ctx, s.db, query, vars)
	if err != nil {
		return nil, queryError(err.Error())
	}
	if results == nil {
		return nil, nil
	}

	output := make([]Result, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, queryError(r.Error.Message)
			}
			return nil, ErrQuery
		}
		output = append(output, Result{Status: r.Status, Rows: r.Result})
	}
	return output, nil
}

// QueryOne executes a query and returns a single result
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]any) (any, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	records := results[0].Records()
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// Execute runs a query without returning results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]any) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// Batch wraps the statements in one transaction. Variables of later statements
// shadow earlier ones with the same name.
func (s *SurrealDB) Batch(ctx context.Context, stmts ...Statement) error {
	if len(stmts) == 0 {
		return nil
	}
	query, vars := batchQuery(stmts)
	if err := s.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("batch of %d statements: %w", len(stmts), err)
	}
	return nil
}

func batchQuery(stmts []Statement) (string, map[string]any) {
	var b strings.Builder
	vars := make(map[string]any)
	b.WriteString("BEGIN TRANSACTION;\n")
	for _, st := range stmts {
		b.WriteString(strings.TrimRight(strings.TrimSpace(st.Query), ";"))
		b.WriteString(";\n")
		maps.Copy(vars, st.Vars)
	}
	b.WriteString("COMMIT TRANSACTION;")
	return b.String(), vars
}

func queryError(msg string) error {
	if strings.Contains(msg, "already exists") {
		return fmt.Errorf("%w: %s", ErrDuplicate, msg)
	}
	return fmt.Errorf("%w: %s", ErrQuery, msg)
}
