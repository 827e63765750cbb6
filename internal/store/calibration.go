package store

import (
	"context"
	"fmt"
)

// Calibration holds one node's additive sensor offsets. Applied at ingest
// time, so stored readings are already corrected.
type Calibration struct {
	NodeID         uint8   `json:"node_id"`
	TempOffset     float64 `json:"temp_offset"`
	RHOffset       float64 `json:"rh_offset"`
	PressureOffset float64 `json:"pressure_offset"`
	UpdatedUTC     string  `json:"updated_utc"`
}

// UpsertCalibration writes a node's offsets, replacing any previous row.
func (s *Store) UpsertCalibration(ctx context.Context, c *Calibration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calibration (node_id, temp_offset, rh_offset, pressure_offset, updated_utc)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET
		    temp_offset = excluded.temp_offset,
		    rh_offset = excluded.rh_offset,
		    pressure_offset = excluded.pressure_offset,
		    updated_utc = excluded.updated_utc`,
		c.NodeID, c.TempOffset, c.RHOffset, c.PressureOffset, nowUTC())
	if err != nil {
		return fmt.Errorf("failed to upsert calibration for node %d: %w", c.NodeID, err)
	}
	return nil
}

// Calibrations returns all stored offsets keyed by node ID.
func (s *Store) Calibrations(ctx context.Context) (map[uint8]*Calibration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node_id, temp_offset, rh_offset, pressure_offset, updated_utc
		FROM calibration`)
	if err != nil {
		return nil, fmt.Errorf("failed to query calibrations: %w", err)
	}
	defer rows.Close()

	out := make(map[uint8]*Calibration)
	for rows.Next() {
		c := &Calibration{}
		if err := rows.Scan(&c.NodeID, &c.TempOffset, &c.RHOffset, &c.PressureOffset, &c.UpdatedUTC); err != nil {
			return nil, fmt.Errorf("failed to scan calibration: %w", err)
		}
		out[c.NodeID] = c
	}
	return out, rows.Err()
}
