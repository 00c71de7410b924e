// Package storage defines persistence interfaces for deployment
// history and round observations, with sentinel errors shared by all
// backends.
package storage

import (
	"context"
	"errors"
	"time"

	"solana-round-bot/internal/domain"
)

// Sentinel errors returned by storage implementations.
var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// DeploymentStore persists the outcome of deployment cycles.
type DeploymentStore interface {
	// SaveDeployment records one cycle outcome. A record with the same
	// (round_id, sequence) pair returns ErrDuplicateKey.
	SaveDeployment(ctx context.Context, rec *domain.DeploymentRecord) error

	// GetDeployment retrieves a record by round and sequence.
	GetDeployment(ctx context.Context, roundID uint64, sequence int) (*domain.DeploymentRecord, error)

	// ListDeploymentsByRound returns all records for a round, ordered
	// by sequence.
	ListDeploymentsByRound(ctx context.Context, roundID uint64) ([]*domain.DeploymentRecord, error)

	// ListRecentDeployments returns the newest records, newest first.
	ListRecentDeployments(ctx context.Context, limit int) ([]*domain.DeploymentRecord, error)
}

// RoundSnapshotStore persists per-tick round observations for later
// analysis of submission timing.
type RoundSnapshotStore interface {
	// SaveSnapshot records one observation.
	SaveSnapshot(ctx context.Context, snap *domain.RoundSnapshot) error

	// ListSnapshots returns observations for a round within the time
	// range, oldest first.
	ListSnapshots(ctx context.Context, roundID uint64, from, to time.Time) ([]*domain.RoundSnapshot, error)
}
