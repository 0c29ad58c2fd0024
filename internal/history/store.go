package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNoObservations is returned by UptimeRatio when a service has no
// automated observations: the ratio is undefined, not zero.
var ErrNoObservations = errors.New("no automated observations recorded")

// DefaultLatestLimit matches twelve hours of five-minute probes.
const DefaultLatestLimit = 12 * 12

// DefaultUserReportLimit caps user reports returned per query.
const DefaultUserReportLimit = 100

// UserReportWindow restricts user-report queries to the last day.
const UserReportWindow = 24 * time.Hour

// Store is the append-only status ledger. All services share one
// table keyed by the service column; the name is always a bound
// parameter, never an identifier.
type Store struct {
	DB *sql.DB
}

// Append records one observation. Every row is written in a single
// INSERT so readers never see a partial triple.
func (s *Store) Append(ctx context.Context, service string, ts int64, up bool, origin Origin) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO observations(service, timestamp, status, origin)
VALUES(?,?,?,?)
`, service, ts, boolToInt(up), int(origin))
	if err != nil {
		return fmt.Errorf("append observation for %s: %w", service, err)
	}
	return nil
}

// Latest returns the most recent limit automated observations for a
// service, oldest first.
func (s *Store) Latest(ctx context.Context, service string, limit int) ([]Observation, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT timestamp, status FROM observations
WHERE service = ? AND origin = ?
ORDER BY timestamp DESC LIMIT ?
`, service, int(OriginAutomated), limit)
	if err != nil {
		return nil, fmt.Errorf("query latest for %s: %w", service, err)
	}
	return scanAscending(rows, service)
}

// LatestUserReports returns the most recent limit user reports within
// the window, oldest first.
func (s *Store) LatestUserReports(ctx context.Context, service string, window time.Duration, limit int) ([]Observation, error) {
	if limit <= 0 {
		limit = DefaultUserReportLimit
	}
	if window <= 0 {
		window = UserReportWindow
	}
	cutoff := time.Now().Add(-window).Unix()
	rows, err := s.DB.QueryContext(ctx, `
SELECT timestamp, status FROM observations
WHERE service = ? AND origin = ? AND timestamp >= ?
ORDER BY timestamp DESC LIMIT ?
`, service, int(OriginUserReport), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query user reports for %s: %w", service, err)
	}
	return scanAscending(rows, service)
}

// UptimeRatio computes up-count over total-count across automated
// observations only. Undefined (ErrNoObservations) with no rows.
func (s *Store) UptimeRatio(ctx context.Context, service string) (float64, error) {
	var up, total int64
	err := s.DB.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(status), 0) FROM observations
WHERE service = ? AND origin = ?
`, service, int(OriginAutomated)).Scan(&total, &up)
	if err != nil {
		return 0, fmt.Errorf("count observations for %s: %w", service, err)
	}
	if total == 0 {
		return 0, ErrNoObservations
	}
	return float64(up) / float64(total), nil
}

// Export returns every ledger row for one service, ascending by time.
func (s *Store) Export(ctx context.Context, service string) ([]Row, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT service, timestamp, status, origin FROM observations
WHERE service = ?
ORDER BY timestamp ASC
`, service)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", service, err)
	}
	return scanRows(rows)
}

// ExportAll returns the whole ledger, grouped by service and
// ascending by time within each.
func (s *Store) ExportAll(ctx context.Context) ([]Row, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT service, timestamp, status, origin FROM observations
ORDER BY service ASC, timestamp ASC
`)
	if err != nil {
		return nil, fmt.Errorf("export all: %w", err)
	}
	return scanRows(rows)
}

// scanAscending drains a DESC-ordered result set and reverses it so
// output runs oldest to newest.
func scanAscending(rows *sql.Rows, service string) ([]Observation, error) {
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var out []Observation
	for rows.Next() {
		var ts int64
		var status int
		if err := rows.Scan(&ts, &status); err != nil {
			log.Error().Err(err).Str("service", service).Msg("Failed to scan observation row")
			continue
		}
		out = append(out, Observation{Timestamp: ts, Up: status != 0})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var out []Row
	for rows.Next() {
		var r Row
		var status, origin int
		if err := rows.Scan(&r.Service, &r.Timestamp, &status, &origin); err != nil {
			log.Error().Err(err).Msg("Failed to scan ledger row")
			continue
		}
		r.Up = status != 0
		r.Origin = Origin(origin)
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
