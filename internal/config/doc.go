// Package config loads and validates configuration for the ODM API.
//
// Values come from built-in defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, with later sources winning:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Environment Variables
//
//	SERVER_PORT           HTTP port (default: 8080)
//	SERVER_ENV            development, production or test
//	CORS_ALLOWED_ORIGINS  comma-separated origins
//	LOG_LEVEL             debug, info, warn or error
//	STORE_BACKEND         surreal, sql, mongo or reindexer
//	SCHEMA_PATH           model schema file (default: configs/models.yaml)
//	DB_*                  SurrealDB connection
//	SQL_*                 bun SQL connection (sqlite, postgres, mysql)
//	MONGO_URI             MongoDB connection string
//	REINDEXER_DSN         Reindexer cproto DSN
//	RATE_LIMIT_*          token bucket rate, window and burst
//	IDEMPOTENCY_TTL       how long Idempotency-Key responses are replayed
//
// Validate only checks the settings of the selected backend.
package config
