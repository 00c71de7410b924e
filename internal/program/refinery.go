// Package program encodes the refinery program's ABI: seed strings,
// opcode discriminators, account ordering, and on-chain account
// layouts. Everything here mirrors the deployed program byte-for-byte;
// none of it is negotiable client-side.
package program

import (
	"encoding/binary"
	"fmt"

	"solana-round-bot/internal/txcodec"
)

// RefineryProgramID is the deployed refinery program.
var RefineryProgramID = txcodec.MustPubkey("81ZDWMNfroWSjr3RmbUkeowhhMMY56wWYo3wkRsVq39H")

// SystemProgramID is the native system program.
var SystemProgramID = txcodec.MustPubkey("11111111111111111111111111111111")

// Instruction opcodes. One leading byte selects the handler.
const (
	OpCheckpoint byte = 1
	OpDeploy     byte = 2
	OpClaim      byte = 3
)

// PDA seed strings. These must match the program's own derivation.
const (
	seedConfig   = "config"
	seedRound    = "round"
	seedMiner    = "miner"
	seedTreasury = "treasury"
)

// ConfigAddress derives the global config account.
func ConfigAddress() (txcodec.Pubkey, uint8, error) {
	return txcodec.FindProgramAddress([][]byte{[]byte(seedConfig)}, RefineryProgramID)
}

// TreasuryAddress derives the treasury account. The treasury is always
// derived fresh and cross-checked against the config account at
// startup; it is never hardcoded.
func TreasuryAddress() (txcodec.Pubkey, uint8, error) {
	return txcodec.FindProgramAddress([][]byte{[]byte(seedTreasury)}, RefineryProgramID)
}

// RoundAddress derives the account for a specific round. Round ids are
// part of the seed, so the address changes every round and must be
// recomputed per cycle, never cached.
func RoundAddress(roundID uint64) (txcodec.Pubkey, uint8, error) {
	id := make([]byte, 8)
	binary.LittleEndian.PutUint64(id, roundID)
	return txcodec.FindProgramAddress([][]byte{[]byte(seedRound), id}, RefineryProgramID)
}

// MinerAddress derives the per-authority miner account.
func MinerAddress(authority txcodec.Pubkey) (txcodec.Pubkey, uint8, error) {
	return txcodec.FindProgramAddress([][]byte{[]byte(seedMiner), authority[:]}, RefineryProgramID)
}

// DeployArgs are the arguments of the Deploy instruction, serialized in
// this exact field order.
type DeployArgs struct {
	RoundID    uint64
	Amount     uint64
	SectorMask uint32
	RefineRate float64
	Sequence   uint8
}

// NewDeployInstruction builds the primary deployment instruction.
func NewDeployInstruction(authority txcodec.Pubkey, args DeployArgs) (txcodec.Instruction, error) {
	accounts, err := commonAccounts(authority, args.RoundID)
	if err != nil {
		return txcodec.Instruction{}, err
	}

	data := txcodec.NewWriter(OpDeploy).
		U64(args.RoundID).
		U64(args.Amount).
		U32(args.SectorMask).
		F64(args.RefineRate).
		U8(args.Sequence).
		Bytes()

	return txcodec.Instruction{
		ProgramID: RefineryProgramID,
		Accounts:  accounts,
		Data:      data,
	}, nil
}

// NewCheckpointInstruction builds the settlement instruction that must
// precede Deploy within the same transaction.
func NewCheckpointInstruction(authority txcodec.Pubkey, roundID uint64) (txcodec.Instruction, error) {
	config, _, err := ConfigAddress()
	if err != nil {
		return txcodec.Instruction{}, fmt.Errorf("derive config: %w", err)
	}
	round, _, err := RoundAddress(roundID)
	if err != nil {
		return txcodec.Instruction{}, fmt.Errorf("derive round: %w", err)
	}
	treasury, _, err := TreasuryAddress()
	if err != nil {
		return txcodec.Instruction{}, fmt.Errorf("derive treasury: %w", err)
	}

	return txcodec.Instruction{
		ProgramID: RefineryProgramID,
		Accounts: []txcodec.AccountMeta{
			{Pubkey: config},
			{Pubkey: round, IsWritable: true},
			{Pubkey: treasury, IsWritable: true},
			{Pubkey: authority, IsSigner: true, IsWritable: true},
		},
		Data: txcodec.NewWriter(OpCheckpoint).U64(roundID).Bytes(),
	}, nil
}

// NewClaimInstruction builds the reward-claim instruction that must
// follow Deploy within the same transaction.
func NewClaimInstruction(authority txcodec.Pubkey, roundID uint64) (txcodec.Instruction, error) {
	config, _, err := ConfigAddress()
	if err != nil {
		return txcodec.Instruction{}, fmt.Errorf("derive config: %w", err)
	}
	round, _, err := RoundAddress(roundID)
	if err != nil {
		return txcodec.Instruction{}, fmt.Errorf("derive round: %w", err)
	}
	miner, _, err := MinerAddress(authority)
	if err != nil {
		return txcodec.Instruction{}, fmt.Errorf("derive miner: %w", err)
	}
	treasury, _, err := TreasuryAddress()
	if err != nil {
		return txcodec.Instruction{}, fmt.Errorf("derive treasury: %w", err)
	}

	return txcodec.Instruction{
		ProgramID: RefineryProgramID,
		Accounts: []txcodec.AccountMeta{
			{Pubkey: config},
			{Pubkey: round},
			{Pubkey: miner, IsWritable: true},
			{Pubkey: treasury, IsWritable: true},
			{Pubkey: authority, IsSigner: true, IsWritable: true},
		},
		Data: txcodec.NewWriter(OpClaim).U64(roundID).Bytes(),
	}, nil
}

// commonAccounts is the Deploy account list. Ordering is ABI contract.
func commonAccounts(authority txcodec.Pubkey, roundID uint64) ([]txcodec.AccountMeta, error) {
	config, _, err := ConfigAddress()
	if err != nil {
		return nil, fmt.Errorf("derive config: %w", err)
	}
	round, _, err := RoundAddress(roundID)
	if err != nil {
		return nil, fmt.Errorf("derive round: %w", err)
	}
	miner, _, err := MinerAddress(authority)
	if err != nil {
		return nil, fmt.Errorf("derive miner: %w", err)
	}
	treasury, _, err := TreasuryAddress()
	if err != nil {
		return nil, fmt.Errorf("derive treasury: %w", err)
	}

	return []txcodec.AccountMeta{
		{Pubkey: config},
		{Pubkey: round, IsWritable: true},
		{Pubkey: miner, IsWritable: true},
		{Pubkey: treasury, IsWritable: true},
		{Pubkey: authority, IsSigner: true, IsWritable: true},
		{Pubkey: SystemProgramID},
	}, nil
}
