package program

import "solana-round-bot/internal/txcodec"

// ComputeBudgetProgramID is the native compute budget program.
var ComputeBudgetProgramID = txcodec.MustPubkey("ComputeBudget111111111111111111111111111111")

// Compute budget instruction discriminators.
const (
	opSetComputeUnitLimit byte = 2
	opSetComputeUnitPrice byte = 3
)

// SetComputeUnitLimit caps the compute units the transaction may
// consume. It must be the first instruction in the transaction.
func SetComputeUnitLimit(units uint32) txcodec.Instruction {
	return txcodec.Instruction{
		ProgramID: ComputeBudgetProgramID,
		Data:      txcodec.NewWriter(opSetComputeUnitLimit).U32(units).Bytes(),
	}
}

// SetComputeUnitPrice sets the priority fee in micro-lamports per
// compute unit.
func SetComputeUnitPrice(microLamports uint64) txcodec.Instruction {
	return txcodec.Instruction{
		ProgramID: ComputeBudgetProgramID,
		Data:      txcodec.NewWriter(opSetComputeUnitPrice).U64(microLamports).Bytes(),
	}
}
