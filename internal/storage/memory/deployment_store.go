package memory

import (
	"context"
	"sort"
	"sync"

	"solana-round-bot/internal/domain"
	"solana-round-bot/internal/storage"
)

type deploymentKey struct {
	roundID  uint64
	sequence int
}

// DeploymentStore is an in-memory implementation of storage.DeploymentStore.
type DeploymentStore struct {
	mu   sync.RWMutex
	data map[deploymentKey]*domain.DeploymentRecord
}

// NewDeploymentStore creates a new in-memory deployment store.
func NewDeploymentStore() *DeploymentStore {
	return &DeploymentStore{
		data: make(map[deploymentKey]*domain.DeploymentRecord),
	}
}

// SaveDeployment records one cycle outcome. Returns ErrDuplicateKey if
// the (round_id, sequence) pair exists.
func (s *DeploymentStore) SaveDeployment(_ context.Context, rec *domain.DeploymentRecord) error {
	if rec == nil || rec.Sequence < 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := deploymentKey{roundID: rec.RoundID, sequence: rec.Sequence}
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	recCopy := *rec
	s.data[key] = &recCopy
	return nil
}

// GetDeployment retrieves a record by round and sequence.
func (s *DeploymentStore) GetDeployment(_ context.Context, roundID uint64, sequence int) (*domain.DeploymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.data[deploymentKey{roundID: roundID, sequence: sequence}]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recCopy := *rec
	return &recCopy, nil
}

// ListDeploymentsByRound returns all records for a round, ordered by
// sequence.
func (s *DeploymentStore) ListDeploymentsByRound(_ context.Context, roundID uint64) ([]*domain.DeploymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DeploymentRecord
	for key, rec := range s.data {
		if key.roundID == roundID {
			recCopy := *rec
			result = append(result, &recCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Sequence < result[j].Sequence
	})

	return result, nil
}

// ListRecentDeployments returns the newest records, newest first.
func (s *DeploymentStore) ListRecentDeployments(_ context.Context, limit int) ([]*domain.DeploymentRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.DeploymentRecord, 0, len(s.data))
	for _, rec := range s.data {
		recCopy := *rec
		result = append(result, &recCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		if result[i].RoundID != result[j].RoundID {
			return result[i].RoundID > result[j].RoundID
		}
		return result[i].Sequence > result[j].Sequence
	})

	if limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.DeploymentStore = (*DeploymentStore)(nil)
