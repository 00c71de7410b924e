package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-round-bot/internal/domain"
	"solana-round-bot/internal/storage"
)

// RoundSnapshotStore implements storage.RoundSnapshotStore using ClickHouse.
// Snapshots are append-only observations, a natural fit for MergeTree.
type RoundSnapshotStore struct {
	conn *Conn
}

// NewRoundSnapshotStore creates a new RoundSnapshotStore.
func NewRoundSnapshotStore(conn *Conn) *RoundSnapshotStore {
	return &RoundSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RoundSnapshotStore = (*RoundSnapshotStore)(nil)

// SaveSnapshot records one round observation.
func (s *RoundSnapshotStore) SaveSnapshot(ctx context.Context, snap *domain.RoundSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO round_snapshots (
			round_id, current_slot, end_slot, slots_left,
			asset_price, base_price, observed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		snap.RoundID, snap.CurrentSlot, snap.EndSlot, snap.SlotsLeft,
		snap.AssetPrice, snap.BasePrice, snap.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// ListSnapshots retrieves observations for a round within [from, to]
// (inclusive), ordered by observation time ASC.
func (s *RoundSnapshotStore) ListSnapshots(ctx context.Context, roundID uint64, from, to time.Time) ([]*domain.RoundSnapshot, error) {
	query := `
		SELECT round_id, current_slot, end_slot, slots_left,
		       asset_price, base_price, observed_at
		FROM round_snapshots
		WHERE round_id = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, roundID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// chRows is the subset of driver.Rows used by scan helpers.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanSnapshots scans multiple rows.
func scanSnapshots(rows chRows) ([]*domain.RoundSnapshot, error) {
	var snaps []*domain.RoundSnapshot

	for rows.Next() {
		var snap domain.RoundSnapshot

		err := rows.Scan(
			&snap.RoundID, &snap.CurrentSlot, &snap.EndSlot, &snap.SlotsLeft,
			&snap.AssetPrice, &snap.BasePrice, &snap.ObservedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snaps, nil
}
