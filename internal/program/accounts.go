package program

import (
	"encoding/binary"
	"fmt"

	"solana-round-bot/internal/txcodec"
)

// Account discriminators, first byte of account data.
const (
	accountConfig byte = 1
	accountRound  byte = 2
)

// ConfigAccount is the program's global config account layout:
// discriminator(1) | admin(32) | treasury(32) | round_duration_slots(8).
type ConfigAccount struct {
	Admin              txcodec.Pubkey
	Treasury           txcodec.Pubkey
	RoundDurationSlots uint64
}

const configAccountSize = 1 + 32 + 32 + 8

// ParseConfigAccount decodes config account data.
func ParseConfigAccount(data []byte) (*ConfigAccount, error) {
	if len(data) < configAccountSize {
		return nil, fmt.Errorf("config account: expected %d bytes, got %d", configAccountSize, len(data))
	}
	if data[0] != accountConfig {
		return nil, fmt.Errorf("config account: unexpected discriminator %d", data[0])
	}

	var cfg ConfigAccount
	copy(cfg.Admin[:], data[1:33])
	copy(cfg.Treasury[:], data[33:65])
	cfg.RoundDurationSlots = binary.LittleEndian.Uint64(data[65:73])
	return &cfg, nil
}

// RoundAccount is the per-round account layout:
// discriminator(1) | round_id(8) | start_slot(8) | end_slot(8) |
// total_deployed(8) | miner_count(4).
type RoundAccount struct {
	RoundID       uint64
	StartSlot     uint64
	EndSlot       uint64
	TotalDeployed uint64
	MinerCount    uint32
}

const roundAccountSize = 1 + 8 + 8 + 8 + 8 + 4

// ParseRoundAccount decodes round account data.
func ParseRoundAccount(data []byte) (*RoundAccount, error) {
	if len(data) < roundAccountSize {
		return nil, fmt.Errorf("round account: expected %d bytes, got %d", roundAccountSize, len(data))
	}
	if data[0] != accountRound {
		return nil, fmt.Errorf("round account: unexpected discriminator %d", data[0])
	}

	return &RoundAccount{
		RoundID:       binary.LittleEndian.Uint64(data[1:9]),
		StartSlot:     binary.LittleEndian.Uint64(data[9:17]),
		EndSlot:       binary.LittleEndian.Uint64(data[17:25]),
		TotalDeployed: binary.LittleEndian.Uint64(data[25:33]),
		MinerCount:    binary.LittleEndian.Uint32(data[33:37]),
	}, nil
}
