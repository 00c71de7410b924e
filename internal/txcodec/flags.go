package txcodec

import "fmt"

// MaskBits is the number of flag slots a sector mask can carry.
const MaskBits = 25

// PackMask packs a 25-entry flag slice into a 32-bit mask, bit i set
// iff flags[i] is true. A slice of any other length is a precondition
// violation and fails before anything touches the network.
func PackMask(flags []bool) (uint32, error) {
	if len(flags) != MaskBits {
		return 0, fmt.Errorf("expected %d flags, got %d", MaskBits, len(flags))
	}
	var mask uint32
	for i, set := range flags {
		if set {
			mask |= 1 << uint(i)
		}
	}
	return mask, nil
}

// UnpackMask expands a 32-bit mask back into a 25-entry flag slice.
// Bits above MaskBits are ignored.
func UnpackMask(mask uint32) []bool {
	flags := make([]bool, MaskBits)
	for i := range flags {
		flags[i] = mask&(1<<uint(i)) != 0
	}
	return flags
}
