// Package store is the Postgres access layer for food facility permits.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"nearby-api/internal/logger"
	"nearby-api/internal/proximity"
)

// SearchLimit caps applicant search results.
const SearchLimit = 30

// Permit is one row of mobile_food_facility_permit.
type Permit = proximity.Candidate

// Store is the permit table access layer over a shared *sql.DB pool.
//
// ByStatus feeds the ranking core; SearchApplicant backs the applicant
// search; UpsertPermits is used by the importer.
// Constraints: status membership uses = ANY($1) with pq.Array; results are
// ordered by locationid so callers see a stable candidate order.
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

const permitCols = `locationid, applicant, status, address, latitude, longitude, zipcodes`

// ByStatus lists permits whose status is one of statuses, ordered by
// locationid. An empty status list matches nothing.
func (s *Store) ByStatus(ctx context.Context, statuses []string) ([]Permit, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+permitCols+` FROM mobile_food_facility_permit WHERE status = ANY($1) ORDER BY locationid`,
		pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("query permits by status: %w", err)
	}
	out, err := scanPermits(rows)
	if err != nil {
		return nil, err
	}
	logger.L().Debug("db_permits_by_status", "statuses", statuses, "rows", len(out))
	return out, nil
}

// SearchApplicant matches applicant (and address when non-empty) as
// case-insensitive substrings among permits with one of statuses.
func (s *Store) SearchApplicant(ctx context.Context, applicant, address string, statuses []string) ([]Permit, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	q := `SELECT ` + permitCols + ` FROM mobile_food_facility_permit
		WHERE applicant ILIKE $1 ESCAPE '\' AND status = ANY($2)`
	args := []any{likePattern(applicant), pq.Array(statuses)}
	if address != "" {
		q += ` AND address ILIKE $3 ESCAPE '\'`
		args = append(args, likePattern(address))
	}
	q += fmt.Sprintf(` ORDER BY locationid LIMIT %d`, SearchLimit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search applicant: %w", err)
	}
	return scanPermits(rows)
}

// UpsertPermits writes permits in one transaction, replacing rows with the
// same locationid.
func (s *Store) UpsertPermits(ctx context.Context, permits []Permit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO mobile_food_facility_permit(`+permitCols+`)
		VALUES($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (locationid) DO UPDATE SET
			applicant=EXCLUDED.applicant, status=EXCLUDED.status, address=EXCLUDED.address,
			latitude=EXCLUDED.latitude, longitude=EXCLUDED.longitude, zipcodes=EXCLUDED.zipcodes`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, p := range permits {
		if _, err := stmt.ExecContext(ctx, p.LocationID, p.Applicant, p.Status, p.Address,
			nullFloat(p.Latitude), nullFloat(p.Longitude), p.Zipcodes); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert permit %d: %w", p.LocationID, err)
		}
	}
	return tx.Commit()
}

func scanPermits(rows *sql.Rows) ([]Permit, error) {
	defer rows.Close()
	var out []Permit
	for rows.Next() {
		var p Permit
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&p.LocationID, &p.Applicant, &p.Status, &p.Address, &lat, &lon, &p.Zipcodes); err != nil {
			return nil, err
		}
		p.Latitude = floatPtr(lat)
		p.Longitude = floatPtr(lon)
		out = append(out, p)
	}
	return out, rows.Err()
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps s for a substring ILIKE, escaping wildcards in s.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}
