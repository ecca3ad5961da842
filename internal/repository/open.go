package repository

import (
	"context"
	"fmt"

	"github.com/forgo/odmapi/internal/config"
	"github.com/forgo/odmapi/internal/database"
	"github.com/forgo/odmapi/internal/odm"
)

// Open connects to the backend selected by cfg.Store.Backend. The returned
// close function releases the connection.
func Open(ctx context.Context, cfg *config.Config) (odm.Backend, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendSurreal:
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.Database.Host,
			Port:      cfg.Database.Port,
			User:      cfg.Database.User,
			Password:  cfg.Database.Password,
			Namespace: cfg.Database.Namespace,
			Database:  cfg.Database.Database,
		})
		if err := db.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return NewSurrealBackend(db), db.Close, nil

	case config.BackendSQL:
		db, err := database.OpenSQL(ctx, database.SQLConfig{
			Type:     cfg.SQL.Type,
			Host:     cfg.SQL.Host,
			Port:     cfg.SQL.Port,
			User:     cfg.SQL.User,
			Password: cfg.SQL.Password,
			Name:     cfg.SQL.Name,
			SSLMode:  cfg.SQL.SSLMode,
			QueryLog: cfg.SQL.QueryLog,
		})
		if err != nil {
			return nil, nil, err
		}
		return NewSQLBackend(db), db.Close, nil

	case config.BackendMongo:
		m, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		return NewMongoBackend(m.Database()), m.Close, nil

	case config.BackendReindexer:
		db, err := database.ConnectReindexer(ctx, cfg.Reindexer.DSN)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() error {
			db.Close()
			return nil
		}
		return NewReindexerBackend(db, cfg.Reindexer.Namespace), closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
