package store

import (
	"context"
	"fmt"

	"github.com/cortexhq/cortex/internal/packet"
)

// InsertReading appends one reading.
func (s *Store) InsertReading(ctx context.Context, r *packet.Reading) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO readings
		    (ts_utc, mac, node_id, seq, t_ms,
		     temp_c, rh_pct, pressure_hpa, lux, accel_g, sound_dbfs, battery_v,
		     low_battery)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TsUTC, r.MAC, r.NodeID, r.Seq, r.TMS,
		r.TempC, r.RHPct, r.PressureHPa, r.Lux, r.AccelG, r.SoundDBFS, r.BatteryV,
		r.LowBattery)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

// InsertReadings appends a batch of readings in one transaction. The buffered
// writer uses this to amortize fsync cost across a flush.
func (s *Store) InsertReadings(ctx context.Context, readings []*packet.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO readings
		    (ts_utc, mac, node_id, seq, t_ms,
		     temp_c, rh_pct, pressure_hpa, lux, accel_g, sound_dbfs, battery_v,
		     low_battery)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range readings {
		if _, err := stmt.ExecContext(ctx,
			r.TsUTC, r.MAC, r.NodeID, r.Seq, r.TMS,
			r.TempC, r.RHPct, r.PressureHPa, r.Lux, r.AccelG, r.SoundDBFS, r.BatteryV,
			r.LowBattery); err != nil {
			return fmt.Errorf("failed to insert reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// HistoryQuery selects readings for History. A nil NodeID means all nodes.
type HistoryQuery struct {
	NodeID *uint8
	Since  string // RFC 3339 lower bound on ts_utc, empty for no bound
	Limit  int    // 0 means the default of 100
}

// History returns readings matching the query, newest first.
func (s *Store) History(ctx context.Context, q HistoryQuery) ([]*packet.Reading, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ts_utc, mac, node_id, seq, t_ms,
		       temp_c, rh_pct, pressure_hpa, lux, accel_g, sound_dbfs, battery_v,
		       low_battery
		FROM readings WHERE 1=1`
	args := []any{}

	if q.NodeID != nil {
		query += " AND node_id = ?"
		args = append(args, *q.NodeID)
	}
	if q.Since != "" {
		query += " AND ts_utc >= ?"
		args = append(args, q.Since)
	}
	query += " ORDER BY ts_utc DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

// LastPerNode returns the most recent reading for every node that has ever
// reported. Analytics and the spatial endpoints build on this when warm cache
// state is not enough, such as right after a hub restart.
func (s *Store) LastPerNode(ctx context.Context) ([]*packet.Reading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts_utc, mac, node_id, seq, t_ms,
		       temp_c, rh_pct, pressure_hpa, lux, accel_g, sound_dbfs, battery_v,
		       low_battery
		FROM readings
		WHERE id IN (SELECT MAX(id) FROM readings GROUP BY node_id)
		ORDER BY node_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query last readings: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

// MetricSeries returns (elapsed seconds, value) points for one node and
// metric over the trailing window, oldest first. The forecaster consumes
// this directly.
func (s *Store) MetricSeries(ctx context.Context, nodeID uint8, metric string, since string) ([][2]float64, error) {
	if !validMetric(metric) {
		return nil, fmt.Errorf("unknown metric %q", metric)
	}

	// metric is validated against the fixed column list above
	query := fmt.Sprintf(`
		SELECT (julianday(ts_utc) - julianday(?)) * 86400.0, %s
		FROM readings
		WHERE node_id = ? AND ts_utc >= ? AND %s IS NOT NULL
		ORDER BY ts_utc ASC`, metric, metric)

	rows, err := s.db.QueryContext(ctx, query, since, nodeID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric series: %w", err)
	}
	defer rows.Close()

	var points [][2]float64
	for rows.Next() {
		var t, v float64
		if err := rows.Scan(&t, &v); err != nil {
			return nil, fmt.Errorf("failed to scan metric point: %w", err)
		}
		points = append(points, [2]float64{t, v})
	}
	return points, rows.Err()
}

// NodeMeans returns per-node means for a metric over the whole table. The
// calibration routine uses this to derive offsets.
func (s *Store) NodeMeans(ctx context.Context, metric string) (map[uint8]float64, error) {
	if !validMetric(metric) {
		return nil, fmt.Errorf("unknown metric %q", metric)
	}

	query := fmt.Sprintf(`
		SELECT node_id, AVG(%s) FROM readings
		WHERE %s IS NOT NULL GROUP BY node_id`, metric, metric)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query node means: %w", err)
	}
	defer rows.Close()

	means := make(map[uint8]float64)
	for rows.Next() {
		var nodeID uint8
		var mean float64
		if err := rows.Scan(&nodeID, &mean); err != nil {
			return nil, fmt.Errorf("failed to scan node mean: %w", err)
		}
		means[nodeID] = mean
	}
	return means, rows.Err()
}

// ReadingCount returns the total number of stored readings.
func (s *Store) ReadingCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return n, nil
}

func validMetric(metric string) bool {
	for _, m := range packet.MetricNames {
		if m == metric {
			return true
		}
	}
	return false
}

// rowScanner covers *sql.Rows for scanReadings.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanReadings(rows rowScanner) ([]*packet.Reading, error) {
	var readings []*packet.Reading
	for rows.Next() {
		r := &packet.Reading{}
		if err := rows.Scan(
			&r.TsUTC, &r.MAC, &r.NodeID, &r.Seq, &r.TMS,
			&r.TempC, &r.RHPct, &r.PressureHPa, &r.Lux, &r.AccelG, &r.SoundDBFS, &r.BatteryV,
			&r.LowBattery); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}
