package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface the deployment
// pipeline consumes.
type RPCClient interface {
	// GetLatestBlockhash retrieves the current blockhash freshness token.
	GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error)

	// IsBlockhashValid reports whether a blockhash is still usable.
	IsBlockhashValid(ctx context.Context, blockhash string) (bool, error)

	// SimulateTransaction dry-runs a base64-encoded transaction.
	SimulateTransaction(ctx context.Context, txBase64 string) (*SimulationResult, error)

	// SendTransaction broadcasts a base64-encoded signed transaction
	// and returns its signature.
	SendTransaction(ctx context.Context, txBase64 string) (string, error)

	// GetSignatureStatuses retrieves confirmation state for signatures.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// GetAccountInfo retrieves account info by public key. Returns nil
	// if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (uint64, error)

	// GetBalance retrieves an account's lamport balance.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)
}

// LatestBlockhash is the freshness token a transaction must carry.
type LatestBlockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// SimulationResult is the outcome of a transaction dry-run.
type SimulationResult struct {
	// Err is non-nil when the simulated execution failed on-chain.
	Err interface{}
	// UnitsConsumed is the compute cost estimate; nil when the node
	// did not report one.
	UnitsConsumed *uint64
	Logs          []string
}

// SignatureStatus is the confirmation state of one signature. A nil
// entry in the response means the node does not know the signature.
type SignatureStatus struct {
	Slot               uint64
	Confirmations      *uint64
	ConfirmationStatus string
	Err                interface{}
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// Commitment levels for confirmation queries.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)
