package migrate

import (
	"context"
	"database/sql"

	"nearby-api/internal/logger"
)

var stmts = []string{
	`CREATE TABLE IF NOT EXISTS mobile_food_facility_permit (
		locationid BIGINT PRIMARY KEY,
		applicant TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		zipcodes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_permit_status ON mobile_food_facility_permit(status)`,
}

// EnsureSchema creates the permit table and its indexes when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
