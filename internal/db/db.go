package db

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/lib/pq"

	"github.com/hcollier/todo-api/internal/config"
)

// URL returns the postgres connection string for cfg: DATABASE_URL verbatim
// when set, otherwise a URL assembled from the individual DB_* fields.
// The same string works for both sql.Open and the migration runner.
func URL(cfg config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		url.QueryEscape(cfg.DBUser),
		url.QueryEscape(cfg.DBPass),
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
	)
}

// Connect opens the database, applies pool limits from cfg, and verifies the
// connection with a ping.
func Connect(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", URL(cfg))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
