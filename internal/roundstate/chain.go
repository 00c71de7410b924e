package roundstate

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"solana-round-bot/internal/domain"
	"solana-round-bot/internal/program"
	"solana-round-bot/internal/solana"
)

// ChainClient reads round state directly from the chain. It walks
// forward from the last round it saw: once a round's slot window is
// over, the next round account is expected to exist.
type ChainClient struct {
	rpc solana.RPCClient

	mu          sync.Mutex
	lastRoundID uint64
}

// NewChainClient creates a chain-backed round source starting its
// search at initialRoundID.
func NewChainClient(rpc solana.RPCClient, initialRoundID uint64) *ChainClient {
	return &ChainClient{rpc: rpc, lastRoundID: initialRoundID}
}

// Current retrieves the live round state from the chain.
func (c *ChainClient) Current(ctx context.Context) (domain.RoundState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, err := c.rpc.GetSlot(ctx)
	if err != nil {
		return domain.RoundState{}, fmt.Errorf("get slot: %w", err)
	}

	roundID := c.lastRoundID
	round, err := c.fetchRound(ctx, roundID)
	if err != nil {
		return domain.RoundState{}, err
	}

	// Advance past finished rounds. The walk stops at the first round
	// still in progress or at the newest round that exists.
	for round.EndSlot <= slot {
		next, err := c.fetchRound(ctx, roundID+1)
		if err != nil {
			break
		}
		roundID++
		round = next
	}

	c.lastRoundID = roundID
	return domain.RoundState{
		RoundID:     round.RoundID,
		CurrentSlot: slot,
		EndSlot:     round.EndSlot,
	}, nil
}

func (c *ChainClient) fetchRound(ctx context.Context, roundID uint64) (*program.RoundAccount, error) {
	addr, _, err := program.RoundAddress(roundID)
	if err != nil {
		return nil, fmt.Errorf("derive round address: %w", err)
	}

	info, err := c.rpc.GetAccountInfo(ctx, addr.String())
	if err != nil {
		return nil, fmt.Errorf("get round account %d: %w", roundID, err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: round account %d not found", ErrInvalidState, roundID)
	}

	data, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode round account data: %w", err)
	}

	round, err := program.ParseRoundAccount(data)
	if err != nil {
		return nil, fmt.Errorf("parse round account %d: %w", roundID, err)
	}
	return round, nil
}
