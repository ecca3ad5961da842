package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// MemorySQLite names an in-memory SQLite database for SQLConfig.Name.
const MemorySQLite = ":memory:"

// SQLConfig holds the settings of a bun connection.
type SQLConfig struct {
	Type     string // sqlite, postgres or mysql
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	QueryLog bool

	ConnectTimeout time.Duration
}

// OpenSQL opens and pings a bun database for the configured dialect.
func OpenSQL(ctx context.Context, cfg SQLConfig) (*bun.DB, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}

	var (
		db  *bun.DB
		err error
	)
	switch cfg.Type {
	case "mysql":
		db, err = openMySQL(cfg)
	case "postgres", "postgresql":
		db, err = openPostgres(cfg)
	case "sqlite", "sqlite3":
		db, err = openSQLite(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported sql type %q", ErrConnection, cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if cfg.QueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return db, nil
}

func openMySQL(cfg SQLConfig) (*bun.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC&timeout=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		portOr(cfg.Port, 3306),
		cfg.Name,
		cfg.ConnectTimeout,
	)
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqlDB, mysqldialect.New()), nil
}

func openPostgres(cfg SQLConfig) (*bun.DB, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		cfg.User,
		cfg.Password,
		cfg.Host,
		portOr(cfg.Port, 5432),
		cfg.Name,
		sslMode,
		int(cfg.ConnectTimeout.Seconds()),
	)
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqlDB, pgdialect.New()), nil
}

// openSQLite stores the database in <Name>.db. SQLite allows one writer, so
// the pool is limited to a single connection; that also keeps an in-memory
// database alive, and private to this *bun.DB, across queries.
func openSQLite(cfg SQLConfig) (*bun.DB, error) {
	dsn := fmt.Sprintf("%s.db", cfg.Name)
	if cfg.Name == MemorySQLite {
		dsn = MemorySQLite
	}
	sqlDB, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)
	return bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

func portOr(port, fallback int) int {
	if port > 0 {
		return port
	}
	return fallback
}
