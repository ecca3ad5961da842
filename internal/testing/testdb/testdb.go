// Package testdb provides live database environments for backend tests.
//
// Each helper connects to a real server, isolates the test in a fresh
// namespace or database and skips the test when the server is not reachable.
// Set TEST_DB_REQUIRED=1 to turn the skip into a failure in CI.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    defer tdb.Close()
//
//	    backend := repository.NewSurrealBackend(tdb.DB)
//	}
package testdb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/forgo/odmapi/internal/database"
	"github.com/restream/reindexer/v4"
	"github.com/uptrace/bun"
)

// TestDB provides an isolated SurrealDB environment for testing.
// Each TestDB instance gets a unique namespace to ensure test isolation.
type TestDB struct {
	DB        database.Database
	Namespace string
	Database  string
	t         *testing.T
}

var (
	// counterMu protects the namespace counter
	counterMu sync.Mutex
	counter   int64
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getTestConfig returns database config from environment or defaults
func getTestConfig() database.Config {
	return database.Config{
		Host:     env("TEST_DB_HOST", "localhost"),
		Port:     env("TEST_DB_PORT", "8000"),
		User:     env("TEST_DB_USER", "root"),
		Password: env("TEST_DB_PASSWORD", "root"),
	}
}

// uniqueNamespace generates a unique namespace for test isolation
func uniqueNamespace() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter)
}

// unavailable skips the test, or fails it when TEST_DB_REQUIRED is set.
func unavailable(t *testing.T, what string, err error) {
	t.Helper()
	if os.Getenv("TEST_DB_REQUIRED") != "" {
		t.Fatalf("testdb: %s unavailable: %v", what, err)
	}
	t.Skipf("testdb: %s unavailable: %v", what, err)
}

// New connects to SurrealDB in a unique namespace.
// Call Close() when done to clean up the namespace.
func New(t *testing.T) *TestDB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := getTestConfig()
	cfg.Namespace = uniqueNamespace()
	cfg.Database = "test"

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		unavailable(t, "surrealdb", err)
	}

	return &TestDB{
		DB:        db,
		Namespace: cfg.Namespace,
		Database:  cfg.Database,
		t:         t,
	}
}

// Close cleans up the test database by removing the namespace.
func (tdb *TestDB) Close() {
	if tdb.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace)
	_ = tdb.DB.Execute(ctx, query, nil) // Ignore errors on cleanup

	tdb.DB.Close()
}

// MustExec executes a query and fails the test on error.
func (tdb *TestDB) MustExec(query string, vars map[string]any) {
	tdb.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tdb.DB.Execute(ctx, query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nQuery: %s", err, query)
	}
}

// SQLite opens a private in-memory SQLite database closed with the test.
func SQLite(t *testing.T) *bun.DB {
	t.Helper()
	db, err := database.OpenSQL(t.Context(), database.SQLConfig{
		Type: "sqlite",
		Name: database.MemorySQLite,
	})
	if err != nil {
		t.Fatalf("testdb: open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Mongo connects to TEST_MONGO_URI and returns a unique database that is
// dropped with the test.
func Mongo(t *testing.T) *database.Mongo {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		unavailable(t, "mongodb", fmt.Errorf("TEST_MONGO_URI not set"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	m, err := database.ConnectMongo(ctx, uri, uniqueNamespace())
	if err != nil {
		unavailable(t, "mongodb", err)
	}
	t.Cleanup(func() {
		_ = m.Database().Drop(context.Background())
		_ = m.Close()
	})
	return m
}

// Reindexer connects to TEST_REINDEXER_DSN and returns the connection and
// a unique namespace name that is dropped with the test.
func Reindexer(t *testing.T) (*reindexer.Reindexer, string) {
	t.Helper()
	dsn := os.Getenv("TEST_REINDEXER_DSN")
	if dsn == "" {
		unavailable(t, "reindexer", fmt.Errorf("TEST_REINDEXER_DSN not set"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := database.ConnectReindexer(ctx, dsn)
	if err != nil {
		unavailable(t, "reindexer", err)
	}
	ns := uniqueNamespace()
	t.Cleanup(func() {
		_ = db.DropNamespace(ns)
		db.Close()
	})
	return db, ns
}
