package txcodec

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Pubkey is a 32-byte account address.
type Pubkey [32]byte

// ParsePubkey decodes a base58 address string.
func ParsePubkey(s string) (Pubkey, error) {
	var pk Pubkey
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("decode pubkey %q: %w", s, err)
	}
	if len(raw) != len(pk) {
		return pk, fmt.Errorf("pubkey %q: expected 32 bytes, got %d", s, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

// MustPubkey parses a base58 address and panics on failure.
// Intended for package-level program id constants.
func MustPubkey(s string) Pubkey {
	pk, err := ParsePubkey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// String returns the base58 encoding of the address.
func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// IsZero reports whether the address is all zero bytes.
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}
