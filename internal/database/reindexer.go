package database

import (
	"context"
	"fmt"

	"github.com/restream/reindexer/v4"
	_ "github.com/restream/reindexer/v4/bindings/cproto"
)

// ConnectReindexer opens a cproto connection, creating the database when it
// does not exist yet.
func ConnectReindexer(ctx context.Context, dsn string) (*reindexer.Reindexer, error) {
	db := reindexer.NewReindex(dsn, reindexer.WithCreateDBIfMissing())
	if err := PingReindexer(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// PingReindexer reports whether the server answers on db.
func PingReindexer(ctx context.Context, db *reindexer.Reindexer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := db.Status().Err; err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}
