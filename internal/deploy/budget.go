package deploy

import "solana-round-bot/internal/solana"

// DefaultComputeUnits is the safety floor for the compute budget. It
// is also the fallback when simulation fails: simulation is an
// optimization, not a correctness gate.
const DefaultComputeUnits uint32 = 200_000

// simulationComputeUnits is the placeholder limit the transaction
// carries while being simulated, so the dry-run itself is never capped
// below the real cost. It is the network's per-transaction maximum.
const simulationComputeUnits uint32 = 1_400_000

// ComputeUnitLimit sizes the compute budget from a simulation result:
// the estimate plus 10% headroom, never below DefaultComputeUnits.
// A failed or inconclusive simulation yields the floor.
func ComputeUnitLimit(sim *solana.SimulationResult, simErr error) uint32 {
	if simErr != nil || sim == nil || sim.Err != nil || sim.UnitsConsumed == nil {
		return DefaultComputeUnits
	}

	budget := *sim.UnitsConsumed + *sim.UnitsConsumed/10
	if budget < uint64(DefaultComputeUnits) {
		return DefaultComputeUnits
	}
	if budget > uint64(simulationComputeUnits) {
		return simulationComputeUnits
	}
	return uint32(budget)
}
