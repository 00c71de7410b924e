package domain

import "time"

// DeploymentRecord is the persisted outcome of one deployment cycle,
// written after the cycle reaches Success or Error.
type DeploymentRecord struct {
	RoundID      uint64
	Sequence     int
	Signature    string
	Phase        CyclePhase
	ComputeUnits uint32
	AssetPrice   float64
	BasePrice    float64
	ErrorMessage string
	CreatedAt    time.Time
}

// RoundSnapshot is one observed (round, prices) data point, recorded
// per poll tick for the dashboard's history views.
type RoundSnapshot struct {
	RoundID     uint64
	CurrentSlot uint64
	EndSlot     uint64
	SlotsLeft   uint64
	AssetPrice  float64
	BasePrice   float64
	ObservedAt  time.Time
}
