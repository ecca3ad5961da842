// Package testdb provides live database environments for storage tests.
//
// # SurrealDB
//
// Each test gets an isolated namespace that Close removes:
//
//	tdb := testdb.New(t)
//	defer tdb.Close()
//
// # Other Stores
//
//	db := testdb.SQLite(t)          // private in-memory database, always available
//	m := testdb.Mongo(t)            // needs TEST_MONGO_URI
//	rx, ns := testdb.Reindexer(t)   // needs TEST_REINDEXER_DSN
//
// # Skipping
//
// Helpers skip the test when their server is unreachable. Set
// TEST_DB_REQUIRED=1 to fail instead. SurrealDB settings come from
// TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER and TEST_DB_PASSWORD.
package testdb
