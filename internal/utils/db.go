package utils

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"nearby-api/internal/config"
	"nearby-api/internal/logger"
)

// OpenPostgres opens a pool for cfg and checks connectivity.
func OpenPostgres(ctx context.Context, cfg config.Postgres) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.L().Debug("db_open_ok", "host", cfg.Host, "db", cfg.DB, "max_open", cfg.MaxOpenConns)
	return db, nil
}
