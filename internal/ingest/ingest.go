// Package ingest loads the San Francisco Mobile Food Facility Permit export
// (CSV or XLSX) into the permit table.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"nearby-api/internal/logger"
	"nearby-api/internal/proximity"
)

// DefaultBatch is the number of rows committed per transaction.
const DefaultBatch = 500

var ErrNoLocationID = errors.New("ingest: header has no locationid column")

// Upserter writes one batch of permits.
type Upserter interface {
	UpsertPermits(ctx context.Context, permits []proximity.Candidate) error
}

type columns struct {
	id, applicant, status, address, lat, lon, zip int
}

func headerKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "\ufeff")))
	return strings.NewReplacer(" ", "", "_", "").Replace(s)
}

func mapColumns(header []string) (columns, error) {
	c := columns{-1, -1, -1, -1, -1, -1, -1}
	for i, h := range header {
		switch headerKey(h) {
		case "locationid":
			c.id = i
		case "applicant":
			c.applicant = i
		case "status":
			c.status = i
		case "address":
			c.address = i
		case "latitude":
			c.lat = i
		case "longitude":
			c.lon = i
		case "zipcodes", "zipcode":
			c.zip = i
		}
	}
	if c.id < 0 {
		return c, ErrNoLocationID
	}
	return c, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// coord parses a coordinate cell. The export writes 0 for permits without
// a location; those become nil.
func coord(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f == 0 {
		return nil
	}
	return &f
}

// parseRows converts data rows (header excluded). Rows without a numeric
// locationid are skipped.
func parseRows(c columns, rows [][]string) (out []proximity.Candidate, skipped int) {
	for _, row := range rows {
		id, err := strconv.ParseInt(cell(row, c.id), 10, 64)
		if err != nil {
			skipped++
			continue
		}
		p := proximity.Candidate{
			LocationID: id,
			Applicant:  cell(row, c.applicant),
			Status:     strings.ToUpper(cell(row, c.status)),
			Address:    cell(row, c.address),
			Latitude:   coord(cell(row, c.lat)),
			Longitude:  coord(cell(row, c.lon)),
			Zipcodes:   cell(row, c.zip),
		}
		if p.Latitude == nil || p.Longitude == nil {
			p.Latitude, p.Longitude = nil, nil
		}
		out = append(out, p)
	}
	return out, skipped
}

func fromTable(table [][]string) ([]proximity.Candidate, error) {
	if len(table) == 0 {
		return nil, nil
	}
	c, err := mapColumns(table[0])
	if err != nil {
		return nil, err
	}
	out, skipped := parseRows(c, table[1:])
	if skipped > 0 {
		logger.L().Warn("ingest_rows_skipped", "count", skipped)
	}
	return out, nil
}

// ReadCSV parses a CSV export.
func ReadCSV(r io.Reader) ([]proximity.Candidate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	table, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ingest: read csv: %w", err)
	}
	return fromTable(table)
}

// ReadXLSX parses the first sheet of an XLSX export, or sheet when given.
func ReadXLSX(r io.Reader, sheet string) ([]proximity.Candidate, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ingest: open xlsx: %w", err)
	}
	defer f.Close()
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	table, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("ingest: read sheet %q: %w", sheet, err)
	}
	return fromTable(table)
}

// Read loads permits from a local path or an http(s) URL. The format is
// chosen by extension; anything but .xlsx is read as CSV.
func Read(ctx context.Context, src string) ([]proximity.Candidate, error) {
	var rc io.ReadCloser
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := (&http.Client{Timeout: 2 * time.Minute}).Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("ingest: fetch %s: status %d", src, resp.StatusCode)
		}
		rc = resp.Body
	} else {
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		rc = f
	}
	defer rc.Close()

	if strings.EqualFold(filepath.Ext(strings.SplitN(src, "?", 2)[0]), ".xlsx") {
		return ReadXLSX(rc, "")
	}
	return ReadCSV(rc)
}

// Load writes permits in batches of size, one transaction each, and
// returns the number written.
func Load(ctx context.Context, dst Upserter, permits []proximity.Candidate, size int) (int, error) {
	if size <= 0 {
		size = DefaultBatch
	}
	n := 0
	for b := range proximity.Batches(permits, size) {
		if err := dst.UpsertPermits(ctx, b.Items); err != nil {
			return n, fmt.Errorf("ingest: batch at %d: %w", b.Offset, err)
		}
		n += len(b.Items)
		logger.L().Debug("ingest_batch_ok", "offset", b.Offset, "rows", len(b.Items))
	}
	return n, nil
}

// Import reads src and loads it into dst.
func Import(ctx context.Context, dst Upserter, src string, size int) (int, error) {
	logger.L().Info("ingest_start", "src", src)
	permits, err := Read(ctx, src)
	if err != nil {
		return 0, err
	}
	n, err := Load(ctx, dst, permits, size)
	if err != nil {
		return n, err
	}
	logger.L().Info("ingest_done", "src", src, "rows", n)
	return n, nil
}
