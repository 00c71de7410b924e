package controller

// ShouldDeploy reports whether the remaining slot window has shrunk to
// the point where the deployment must be submitted. Kept pure so the
// threshold logic is testable without a timer.
func ShouldDeploy(slotsLeft uint64, threshold uint32) bool {
	return slotsLeft <= uint64(threshold)
}
