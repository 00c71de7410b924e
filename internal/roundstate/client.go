// Package roundstate tracks the recurring on-chain round: its id and
// the slot window it spans. State comes from the indexer HTTP endpoint
// when available, or straight from the chain otherwise.
package roundstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"solana-round-bot/internal/domain"
)

// ErrInvalidState is returned when the round endpoint responds with a
// state that cannot be true on-chain.
var ErrInvalidState = errors.New("invalid round state")

// Source provides the current round state.
type Source interface {
	Current(ctx context.Context) (domain.RoundState, error)
}

// DefaultTimeout bounds a single round state request.
const DefaultTimeout = 10 * time.Second

// Client fetches round state from the indexer HTTP endpoint.
type Client struct {
	endpoint string
	client   *http.Client
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a round state client.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// roundResponse uses pointer fields so an absent field is distinguishable
// from a zero value. A round id is never guessed: if the endpoint does not
// name one, the state is invalid.
type roundResponse struct {
	RoundID     *uint64 `json:"roundId"`
	CurrentSlot *uint64 `json:"currentSlot"`
	EndSlot     *uint64 `json:"endSlot"`
}

// Current retrieves the live round state.
func (c *Client) Current(ctx context.Context) (domain.RoundState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return domain.RoundState{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.RoundState{}, fmt.Errorf("round request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.RoundState{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.RoundState{}, fmt.Errorf("round endpoint status %d: %s", resp.StatusCode, string(body))
	}

	var rr roundResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return domain.RoundState{}, fmt.Errorf("unmarshal round state: %w", err)
	}

	if rr.RoundID == nil {
		return domain.RoundState{}, fmt.Errorf("%w: missing round id", ErrInvalidState)
	}
	if rr.CurrentSlot == nil {
		return domain.RoundState{}, fmt.Errorf("%w: missing current slot", ErrInvalidState)
	}
	if rr.EndSlot == nil {
		return domain.RoundState{}, fmt.Errorf("%w: missing end slot", ErrInvalidState)
	}

	state := domain.RoundState{
		RoundID:     *rr.RoundID,
		CurrentSlot: *rr.CurrentSlot,
		EndSlot:     *rr.EndSlot,
	}
	if err := validate(state); err != nil {
		return domain.RoundState{}, err
	}
	return state, nil
}

// validate rejects states that cannot occur on-chain. A round past its
// end slot is fine (the next round just has not been observed yet), a
// zero end slot is not.
func validate(s domain.RoundState) error {
	if s.EndSlot == 0 {
		return fmt.Errorf("%w: zero end slot", ErrInvalidState)
	}
	if s.CurrentSlot == 0 {
		return fmt.Errorf("%w: zero current slot", ErrInvalidState)
	}
	return nil
}
