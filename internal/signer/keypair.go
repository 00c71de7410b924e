package signer

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"solana-round-bot/internal/txcodec"
)

// Keypair signs with a local ed25519 private key. The on-disk format
// is the standard Solana CLI keypair file: a JSON array of 64 bytes,
// seed followed by public key.
type Keypair struct {
	priv ed25519.PrivateKey
	pub  txcodec.Pubkey
}

// LoadKeypair reads a Solana CLI keypair file.
func LoadKeypair(path string) (*Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}
	return ParseKeypair(raw)
}

// ParseKeypair parses the JSON-array keypair format.
func ParseKeypair(raw []byte) (*Keypair, error) {
	var bytes []byte
	if err := json.Unmarshal(raw, &bytes); err != nil {
		return nil, fmt.Errorf("parse keypair: %w", err)
	}
	if len(bytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair: expected %d bytes, got %d", ed25519.PrivateKeySize, len(bytes))
	}

	priv := ed25519.PrivateKey(bytes)
	var pub txcodec.Pubkey
	copy(pub[:], priv.Public().(ed25519.PublicKey))

	// The file embeds the public key after the seed; reject a
	// corrupted file where the two halves disagree.
	var embedded txcodec.Pubkey
	copy(embedded[:], bytes[32:])
	if pub != embedded {
		return nil, fmt.Errorf("keypair: public key does not match seed")
	}

	return &Keypair{priv: priv, pub: pub}, nil
}

// NewKeypairFromSeed creates a keypair from a 32-byte seed.
func NewKeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keypair: expected %d-byte seed, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	var pub txcodec.Pubkey
	copy(pub[:], priv.Public().(ed25519.PublicKey))
	return &Keypair{priv: priv, pub: pub}, nil
}

// Sign returns the ed25519 signature over message.
func (k *Keypair) Sign(_ context.Context, message []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, message), nil
}

// PublicKey returns the signing authority's public key.
func (k *Keypair) PublicKey() txcodec.Pubkey {
	return k.pub
}
