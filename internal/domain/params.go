package domain

import "fmt"

// SectorCount is the number of selectable board sectors per round.
// The on-chain program packs the selection into a 32-bit mask.
const SectorCount = 25

// AutomationParams are the operator-supplied deployment parameters.
// They are immutable for the lifetime of a controller run.
type AutomationParams struct {
	// DeployAmount is the stake per deployment in lamports.
	DeployAmount uint64
	// SlotsThreshold is the remaining-slots boundary at which a
	// deployment cycle is triggered.
	SlotsThreshold uint32
	// RefineRate is the refine rate argument forwarded to the program.
	RefineRate float64
	// Sectors selects which of the SectorCount board sectors to
	// deploy to. Must have exactly SectorCount entries.
	Sectors []bool
}

// Validate checks the parameters before the controller starts.
func (p AutomationParams) Validate() error {
	if p.DeployAmount == 0 {
		return fmt.Errorf("deploy amount must be positive")
	}
	if len(p.Sectors) != SectorCount {
		return fmt.Errorf("expected %d sector flags, got %d", SectorCount, len(p.Sectors))
	}
	if p.RefineRate < 0 {
		return fmt.Errorf("refine rate must not be negative")
	}
	any := false
	for _, s := range p.Sectors {
		if s {
			any = true
			break
		}
	}
	if !any {
		return fmt.Errorf("at least one sector must be selected")
	}
	return nil
}
