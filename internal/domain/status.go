package domain

import "time"

// CyclePhase identifies where the current deployment cycle is in its
// lifecycle. Transitions are strictly sequential per cycle; Error is
// reachable from any phase and resets to Monitoring on the next tick.
type CyclePhase string

const (
	PhaseIdle            CyclePhase = "IDLE"
	PhaseMonitoring      CyclePhase = "MONITORING"
	PhaseReady           CyclePhase = "READY"
	PhaseSimulating      CyclePhase = "SIMULATING"
	PhaseWaitingApproval CyclePhase = "WAITING_APPROVAL"
	PhaseSending         CyclePhase = "SENDING"
	PhaseConfirming      CyclePhase = "CONFIRMING"
	PhaseSuccess         CyclePhase = "SUCCESS"
	PhaseError           CyclePhase = "ERROR"
)

// Terminal reports whether the phase ends a cycle.
func (p CyclePhase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseError
}

// CycleStatus is the externally observable state of the controller.
// It is overwritten wholesale on each transition; readers always get
// a snapshot copy, never a partial view.
type CycleStatus struct {
	Phase         CyclePhase `json:"phase"`
	RoundID       uint64     `json:"round_id"`
	SlotsLeft     uint64     `json:"slots_left"`
	Sequence      int        `json:"sequence"`
	LastSignature string     `json:"last_signature,omitempty"`
	Message       string     `json:"message,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
