package deploy

import (
	"errors"
	"testing"

	"solana-round-bot/internal/solana"
)

func uptr(v uint64) *uint64 { return &v }

func TestComputeUnitLimit(t *testing.T) {
	tests := []struct {
		name   string
		sim    *solana.SimulationResult
		simErr error
		want   uint32
	}{
		{
			name: "below floor stays at floor",
			sim:  &solana.SimulationResult{UnitsConsumed: uptr(100_000)},
			want: 200_000,
		},
		{
			name: "above floor gets ten percent headroom",
			sim:  &solana.SimulationResult{UnitsConsumed: uptr(250_000)},
			want: 275_000,
		},
		{
			name: "exactly at boundary",
			sim:  &solana.SimulationResult{UnitsConsumed: uptr(181_818)},
			want: 200_000,
		},
		{
			name:   "simulation error falls back to floor",
			simErr: errors.New("node unavailable"),
			want:   200_000,
		},
		{
			name: "on-chain error falls back to floor",
			sim:  &solana.SimulationResult{Err: "InstructionError", UnitsConsumed: uptr(250_000)},
			want: 200_000,
		},
		{
			name: "missing estimate falls back to floor",
			sim:  &solana.SimulationResult{},
			want: 200_000,
		},
		{
			name: "huge estimate capped at network maximum",
			sim:  &solana.SimulationResult{UnitsConsumed: uptr(2_000_000)},
			want: 1_400_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeUnitLimit(tt.sim, tt.simErr); got != tt.want {
				t.Errorf("ComputeUnitLimit = %d, want %d", got, tt.want)
			}
		})
	}
}
