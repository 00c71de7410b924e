package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-round-bot/internal/domain"
	"solana-round-bot/internal/storage"
)

// DeploymentStore implements storage.DeploymentStore using PostgreSQL.
type DeploymentStore struct {
	pool *Pool
}

// NewDeploymentStore creates a new DeploymentStore.
func NewDeploymentStore(pool *Pool) *DeploymentStore {
	return &DeploymentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DeploymentStore = (*DeploymentStore)(nil)

// SaveDeployment records one cycle outcome. Returns ErrDuplicateKey if the
// (round_id, sequence) pair exists.
func (s *DeploymentStore) SaveDeployment(ctx context.Context, rec *domain.DeploymentRecord) error {
	if rec == nil || rec.Sequence < 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO deployments (
			round_id, sequence, signature, phase, compute_units,
			asset_price, base_price, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		int64(rec.RoundID),
		rec.Sequence,
		rec.Signature,
		string(rec.Phase),
		int64(rec.ComputeUnits),
		rec.AssetPrice,
		rec.BasePrice,
		rec.ErrorMessage,
		rec.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert deployment: %w", err)
	}
	return nil
}

// GetDeployment retrieves a record by round and sequence. Returns
// ErrNotFound if it does not exist.
func (s *DeploymentStore) GetDeployment(ctx context.Context, roundID uint64, sequence int) (*domain.DeploymentRecord, error) {
	query := `
		SELECT round_id, sequence, signature, phase, compute_units,
		       asset_price, base_price, error_message, created_at
		FROM deployments
		WHERE round_id = $1 AND sequence = $2
	`

	row := s.pool.QueryRow(ctx, query, int64(roundID), sequence)
	rec, err := scanDeployment(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get deployment: %w", err)
	}
	return rec, nil
}

// ListDeploymentsByRound retrieves all records for a round, ordered by sequence.
func (s *DeploymentStore) ListDeploymentsByRound(ctx context.Context, roundID uint64) ([]*domain.DeploymentRecord, error) {
	query := `
		SELECT round_id, sequence, signature, phase, compute_units,
		       asset_price, base_price, error_message, created_at
		FROM deployments
		WHERE round_id = $1
		ORDER BY sequence ASC
	`

	rows, err := s.pool.Query(ctx, query, int64(roundID))
	if err != nil {
		return nil, fmt.Errorf("list deployments by round: %w", err)
	}
	defer rows.Close()

	return scanDeployments(rows)
}

// ListRecentDeployments retrieves the newest records, newest first.
func (s *DeploymentStore) ListRecentDeployments(ctx context.Context, limit int) ([]*domain.DeploymentRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT round_id, sequence, signature, phase, compute_units,
		       asset_price, base_price, error_message, created_at
		FROM deployments
		ORDER BY created_at DESC, round_id DESC, sequence DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent deployments: %w", err)
	}
	defer rows.Close()

	return scanDeployments(rows)
}

// scanDeployment scans a single row into a DeploymentRecord.
func scanDeployment(row pgx.Row) (*domain.DeploymentRecord, error) {
	var rec domain.DeploymentRecord
	var roundID, computeUnits int64
	var phaseStr string

	err := row.Scan(
		&roundID,
		&rec.Sequence,
		&rec.Signature,
		&phaseStr,
		&computeUnits,
		&rec.AssetPrice,
		&rec.BasePrice,
		&rec.ErrorMessage,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.RoundID = uint64(roundID)
	rec.ComputeUnits = uint32(computeUnits)
	rec.Phase = domain.CyclePhase(phaseStr)
	return &rec, nil
}

// scanDeployments scans multiple rows into a slice of DeploymentRecord.
func scanDeployments(rows pgx.Rows) ([]*domain.DeploymentRecord, error) {
	var recs []*domain.DeploymentRecord

	for rows.Next() {
		var rec domain.DeploymentRecord
		var roundID, computeUnits int64
		var phaseStr string

		err := rows.Scan(
			&roundID,
			&rec.Sequence,
			&rec.Signature,
			&phaseStr,
			&computeUnits,
			&rec.AssetPrice,
			&rec.BasePrice,
			&rec.ErrorMessage,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan deployment row: %w", err)
		}

		rec.RoundID = uint64(roundID)
		rec.ComputeUnits = uint32(computeUnits)
		rec.Phase = domain.CyclePhase(phaseStr)
		recs = append(recs, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deployment rows: %w", err)
	}

	return recs, nil
}
