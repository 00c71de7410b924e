package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-round-bot/internal/domain"
	"solana-round-bot/internal/storage"
)

// RoundSnapshotStore is an in-memory implementation of
// storage.RoundSnapshotStore.
type RoundSnapshotStore struct {
	mu   sync.RWMutex
	data []*domain.RoundSnapshot
}

// NewRoundSnapshotStore creates a new in-memory snapshot store.
func NewRoundSnapshotStore() *RoundSnapshotStore {
	return &RoundSnapshotStore{}
}

// SaveSnapshot records one observation.
func (s *RoundSnapshotStore) SaveSnapshot(_ context.Context, snap *domain.RoundSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapCopy := *snap
	s.data = append(s.data, &snapCopy)
	return nil
}

// ListSnapshots returns observations for a round within [from, to],
// oldest first.
func (s *RoundSnapshotStore) ListSnapshots(_ context.Context, roundID uint64, from, to time.Time) ([]*domain.RoundSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RoundSnapshot
	for _, snap := range s.data {
		if snap.RoundID != roundID {
			continue
		}
		if snap.ObservedAt.Before(from) || snap.ObservedAt.After(to) {
			continue
		}
		snapCopy := *snap
		result = append(result, &snapCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ObservedAt.Before(result[j].ObservedAt)
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.RoundSnapshotStore = (*RoundSnapshotStore)(nil)
