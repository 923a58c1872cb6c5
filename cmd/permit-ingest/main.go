// Command permit-ingest loads a Mobile Food Facility Permit export (CSV or
// XLSX, local path or URL) into Postgres.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"nearby-api/internal/config"
	"nearby-api/internal/ingest"
	"nearby-api/internal/logger"
	"nearby-api/internal/migrate"
	"nearby-api/internal/store"
	"nearby-api/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Error("config_error", "err", err)
		os.Exit(1)
	}
	l := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	src := flag.String("src", cfg.PermitsSource, "CSV/XLSX path or URL")
	batch := flag.Int("batch", ingest.DefaultBatch, "rows per transaction")
	flag.Parse()
	if *src == "" {
		l.Error("ingest_no_source", "hint", "pass -src or set PERMITS_SOURCE_URL")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := utils.OpenPostgres(ctx, cfg.Postgres)
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}

	n, err := ingest.Import(ctx, store.AttachDB(db), *src, *batch)
	if err != nil {
		l.Error("ingest_error", "rows", n, "err", err)
		os.Exit(1)
	}
	l.Info("ingest_ok", "rows", n)
}
