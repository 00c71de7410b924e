package domain

// RoundState is an immutable snapshot of the currently active round.
// A fresh snapshot supersedes the previous one on every poll tick.
type RoundState struct {
	RoundID     uint64
	CurrentSlot uint64
	EndSlot     uint64
}

// SlotsLeft returns the remaining slots before the round closes.
// Never negative: a round whose end slot has passed reports zero.
func (r RoundState) SlotsLeft() uint64 {
	if r.CurrentSlot >= r.EndSlot {
		return 0
	}
	return r.EndSlot - r.CurrentSlot
}
