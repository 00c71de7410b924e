// Package stub provides in-memory test doubles for the solana package
// interfaces.
package stub

import (
	"context"
	"sync"

	"solana-round-bot/internal/solana"
)

// RPCClient implements solana.RPCClient for testing. Zero values give
// sensible defaults; error fields force failures per method.
type RPCClient struct {
	mu sync.Mutex

	Blockhash      solana.LatestBlockhash
	BlockhashErr   error
	BlockhashValid bool
	ValidErr       error

	Simulation    solana.SimulationResult
	SimulationErr error

	Signature string
	SendErr   error
	// SendErrCount fails the first N SendTransaction calls with
	// SendErr, then succeeds.
	SendErrCount int

	Statuses  map[string]*solana.SignatureStatus
	StatusErr error

	Accounts   map[string]*solana.AccountInfo
	AccountErr error

	Slot    uint64
	SlotErr error

	Balances   map[string]uint64
	BalanceErr error

	// Call counters for asserting pipeline behavior.
	SimulateCalls int
	SendCalls     int
	StatusCalls   int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Blockhash:      solana.LatestBlockhash{Blockhash: "9sHcv6xwn9YkB8nxTUGKDwPwNnmqVp5oLcxRK3dT3sPc", LastValidBlockHeight: 1000},
		BlockhashValid: true,
		Signature:      "stubsignature",
		Statuses:       make(map[string]*solana.SignatureStatus),
		Accounts:       make(map[string]*solana.AccountInfo),
		Balances:       make(map[string]uint64),
	}
}

func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.LatestBlockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.BlockhashErr != nil {
		return nil, c.BlockhashErr
	}
	bh := c.Blockhash
	return &bh, nil
}

func (c *RPCClient) IsBlockhashValid(_ context.Context, _ string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ValidErr != nil {
		return false, c.ValidErr
	}
	return c.BlockhashValid, nil
}

func (c *RPCClient) SimulateTransaction(_ context.Context, _ string) (*solana.SimulationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SimulateCalls++
	if c.SimulationErr != nil {
		return nil, c.SimulationErr
	}
	sim := c.Simulation
	return &sim, nil
}

func (c *RPCClient) SendTransaction(_ context.Context, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SendCalls++
	if c.SendErr != nil {
		if c.SendErrCount == 0 {
			return "", c.SendErr
		}
		if c.SendCalls <= c.SendErrCount {
			return "", c.SendErr
		}
	}
	return c.Signature, nil
}

func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StatusCalls++
	if c.StatusErr != nil {
		return nil, c.StatusErr
	}
	statuses := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		statuses[i] = c.Statuses[sig]
	}
	return statuses, nil
}

func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.AccountErr != nil {
		return nil, c.AccountErr
	}
	return c.Accounts[pubkey], nil
}

func (c *RPCClient) GetSlot(_ context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SlotErr != nil {
		return 0, c.SlotErr
	}
	return c.Slot, nil
}

func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.BalanceErr != nil {
		return 0, c.BalanceErr
	}
	return c.Balances[pubkey], nil
}

// SetStatus records a confirmation status for a signature.
func (c *RPCClient) SetStatus(signature string, status *solana.SignatureStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statuses[signature] = status
}
