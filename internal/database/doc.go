// Package database opens connections to the document stores the ODM API can
// run on.
//
// SurrealDB is wrapped behind the Database interface:
//   - Query: returns the result of every statement
//   - QueryOne: returns the first record of the first statement
//   - Execute: runs mutations
//   - Batch: runs several statements inside BEGIN/COMMIT TRANSACTION
//
// Batches are accumulated client side and sent as one request, so a failing
// statement cancels the whole batch.
//
// The other stores hand back their native clients, configured from the
// application settings:
//
//	db, err := database.OpenSQL(ctx, database.SQLConfig{Type: "sqlite", Name: "odm"})
//	m, err := database.ConnectMongo(ctx, uri, "odm")
//	rx, err := database.ConnectReindexer(ctx, "cproto://localhost:6534/odm")
//
// # Error Handling
//
// Connection failures wrap ErrConnection and statement failures wrap ErrQuery:
//
//	if errors.Is(err, database.ErrConnection) {
//	    // report the backend as unavailable
//	}
package database
