package txcodec

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
)

// pdaMarker is appended to the hash input by the on-chain runtime's own
// derivation. It must match byte-for-byte.
var pdaMarker = []byte("ProgramDerivedAddress")

// FindProgramAddress derives the program-owned address for the given
// seeds, mirroring the runtime's derivation exactly: sha256 over
// seeds || bump || programID || marker, walking the bump down from 255
// until the hash falls off the ed25519 curve. The derivation is pure;
// identical inputs always yield the identical (address, bump) pair.
func FindProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		for _, seed := range seeds {
			h.Write(seed)
		}
		h.Write([]byte{byte(bump)})
		h.Write(programID[:])
		h.Write(pdaMarker)

		var candidate Pubkey
		copy(candidate[:], h.Sum(nil))

		if !isOnCurve(candidate[:]) {
			return candidate, uint8(bump), nil
		}
	}
	return Pubkey{}, 0, fmt.Errorf("no off-curve address for seeds")
}

// isOnCurve reports whether the 32 bytes decode to a valid ed25519
// point. Off-curve addresses have no private key, which is what makes
// them safe program-owned accounts.
func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
