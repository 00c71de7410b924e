// Package signer abstracts transaction signing. The bot never holds
// key material outside this package.
package signer

import (
	"context"
	"errors"

	"solana-round-bot/internal/txcodec"
)

// ErrDeclined is returned when the signer refuses to sign. A declined
// signature ends the current deployment attempt without retrying.
var ErrDeclined = errors.New("signer declined")

// Signer signs serialized transaction messages.
type Signer interface {
	// Sign returns the 64-byte ed25519 signature over message.
	Sign(ctx context.Context, message []byte) ([]byte, error)

	// PublicKey returns the signing authority's public key.
	PublicKey() txcodec.Pubkey
}
