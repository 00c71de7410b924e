package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-round-bot/internal/domain"
	"solana-round-bot/internal/storage"
)

func testRecord(roundID uint64, seq int) *domain.DeploymentRecord {
	return &domain.DeploymentRecord{
		RoundID:      roundID,
		Sequence:     seq,
		Signature:    "sig",
		Phase:        domain.PhaseSuccess,
		ComputeUnits: 200_000,
		AssetPrice:   1.25,
		BasePrice:    145.5,
		CreatedAt:    time.Now(),
	}
}

func TestDeploymentStore_SaveAndGet(t *testing.T) {
	store := NewDeploymentStore()
	ctx := context.Background()

	if err := store.SaveDeployment(ctx, testRecord(42, 0)); err != nil {
		t.Fatalf("SaveDeployment: %v", err)
	}

	rec, err := store.GetDeployment(ctx, 42, 0)
	if err != nil {
		t.Fatalf("GetDeployment: %v", err)
	}
	if rec.Signature != "sig" || rec.ComputeUnits != 200_000 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestDeploymentStore_Duplicate(t *testing.T) {
	store := NewDeploymentStore()
	ctx := context.Background()

	if err := store.SaveDeployment(ctx, testRecord(42, 0)); err != nil {
		t.Fatalf("SaveDeployment: %v", err)
	}
	if err := store.SaveDeployment(ctx, testRecord(42, 0)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	// Same sequence in a different round is fine.
	if err := store.SaveDeployment(ctx, testRecord(43, 0)); err != nil {
		t.Errorf("different round must not collide: %v", err)
	}
}

func TestDeploymentStore_NotFound(t *testing.T) {
	store := NewDeploymentStore()

	_, err := store.GetDeployment(context.Background(), 1, 0)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeploymentStore_InvalidInput(t *testing.T) {
	store := NewDeploymentStore()

	if err := store.SaveDeployment(context.Background(), nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil record, got %v", err)
	}
}

func TestDeploymentStore_ListByRound(t *testing.T) {
	store := NewDeploymentStore()
	ctx := context.Background()

	store.SaveDeployment(ctx, testRecord(42, 2))
	store.SaveDeployment(ctx, testRecord(42, 0))
	store.SaveDeployment(ctx, testRecord(42, 1))
	store.SaveDeployment(ctx, testRecord(43, 0))

	recs, err := store.ListDeploymentsByRound(ctx, 42)
	if err != nil {
		t.Fatalf("ListDeploymentsByRound: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i, rec := range recs {
		if rec.Sequence != i {
			t.Errorf("record %d sequence = %d, want %d", i, rec.Sequence, i)
		}
	}
}

func TestDeploymentStore_ListRecent(t *testing.T) {
	store := NewDeploymentStore()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		rec := testRecord(uint64(40+i), 0)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Second)
		store.SaveDeployment(ctx, rec)
	}

	recs, err := store.ListRecentDeployments(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecentDeployments: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].RoundID != 44 || recs[2].RoundID != 42 {
		t.Errorf("unexpected order: %d, %d, %d", recs[0].RoundID, recs[1].RoundID, recs[2].RoundID)
	}

	if _, err := store.ListRecentDeployments(ctx, 0); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero limit, got %v", err)
	}
}

func TestDeploymentStore_ReturnsCopies(t *testing.T) {
	store := NewDeploymentStore()
	ctx := context.Background()

	store.SaveDeployment(ctx, testRecord(42, 0))

	rec, _ := store.GetDeployment(ctx, 42, 0)
	rec.Signature = "mutated"

	again, _ := store.GetDeployment(ctx, 42, 0)
	if again.Signature != "sig" {
		t.Error("store must not expose internal state to mutation")
	}
}

func TestRoundSnapshotStore_SaveAndList(t *testing.T) {
	store := NewRoundSnapshotStore()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		store.SaveSnapshot(ctx, &domain.RoundSnapshot{
			RoundID:     42,
			CurrentSlot: uint64(1100 + i),
			EndSlot:     1150,
			SlotsLeft:   uint64(50 - i),
			ObservedAt:  base.Add(time.Duration(i) * time.Second),
		})
	}
	store.SaveSnapshot(ctx, &domain.RoundSnapshot{RoundID: 43, ObservedAt: base})

	snaps, err := store.ListSnapshots(ctx, 42, base, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}
	if !snaps[0].ObservedAt.Before(snaps[2].ObservedAt) {
		t.Error("snapshots must be oldest first")
	}

	// Range excludes observations outside [from, to].
	snaps, _ = store.ListSnapshots(ctx, 42, base.Add(time.Second), base.Add(time.Minute))
	if len(snaps) != 2 {
		t.Errorf("expected 2 snapshots in range, got %d", len(snaps))
	}
}

func TestRoundSnapshotStore_InvalidInput(t *testing.T) {
	store := NewRoundSnapshotStore()

	if err := store.SaveSnapshot(context.Background(), nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
