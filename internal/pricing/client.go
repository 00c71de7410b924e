// Package pricing fetches asset quotes from the price oracle and
// caches them for reuse within a short freshness window.
package pricing

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

// ErrMissingQuote is returned when the oracle response lacks one of
// the required quotes or carries a non-positive price.
var ErrMissingQuote = errors.New("missing or invalid quote")

// DefaultTimeout bounds a single oracle request.
const DefaultTimeout = 10 * time.Second

// Client fetches quotes from an HTTP price oracle.
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

// NewClient creates a price oracle client.
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

// quoteResponse is the oracle's wire format. Prices are keyed by
// symbol under "prices".
type quoteResponse struct {
	Prices map[string]float64 `json:"prices"`
}

// Symbols queried from the oracle.
const (
	AssetSymbol = "ORE"
	BaseSymbol  = "SOL"
)

// Fetch retrieves a fresh quote for the asset and base symbols.
func (c *Client) Fetch(ctx context.Context) (domain.PriceQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("oracle request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.PriceQuote{}, fmt.Errorf("oracle status %d: %s", resp.StatusCode, string(body))
	}

	var qr quoteResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("unmarshal quote: %w", err)
	}

	asset, okAsset := qr.Prices[AssetSymbol]
	base, okBase := qr.Prices[BaseSymbol]
	if !okAsset || !okBase {
		return domain.PriceQuote{}, fmt.Errorf("%w: response missing %s or %s", ErrMissingQuote, AssetSymbol, BaseSymbol)
	}

	quote := domain.PriceQuote{AssetPrice: asset, BasePrice: base}
	if !quote.Valid() {
		return domain.PriceQuote{}, fmt.Errorf("%w: asset=%f base=%f", ErrMissingQuote, asset, base)
	}

	return quote, nil
}
