package deploy

import "errors"

// Terminal pipeline errors. Each ends the current cycle without retry;
// the distinction matters to the controller and to operators reading
// logs.
var (
	// ErrSignerDeclined means the signer refused the transaction.
	ErrSignerDeclined = errors.New("signer declined transaction")

	// ErrExpired means the blockhash validity window elapsed before
	// the transaction confirmed. The next round starts a fresh cycle.
	ErrExpired = errors.New("blockhash expired before confirmation")

	// ErrInsufficientBalance means the authority cannot fund the
	// deployment plus fees.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrTransactionFailed means the transaction landed on-chain but
	// its execution failed.
	ErrTransactionFailed = errors.New("transaction failed on-chain")
)
