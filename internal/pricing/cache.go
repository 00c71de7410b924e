package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"solana-round-bot/internal/domain"
)

// Source provides the current price quote.
type Source interface {
	Fetch(ctx context.Context) (domain.PriceQuote, error)
}

// DefaultTTL is how long a fetched quote stays fresh.
const DefaultTTL = 10 * time.Second

// CachedSource wraps a Source with a freshness window. A quote is
// reused until its TTL elapses; round transitions invalidate it
// explicitly so a new round never prices off the old one.
type CachedSource struct {
	source Source
	ttl    time.Duration
	clock  clockwork.Clock

	mu    sync.Mutex
	quote domain.PriceQuote
}

// NewCachedSource wraps source with the default TTL.
func NewCachedSource(source Source) *CachedSource {
	return NewCachedSourceWithClock(source, DefaultTTL, clockwork.NewRealClock())
}

// NewCachedSourceWithClock wraps source with an explicit TTL and clock.
func NewCachedSourceWithClock(source Source, ttl time.Duration, clock clockwork.Clock) *CachedSource {
	return &CachedSource{
		source: source,
		ttl:    ttl,
		clock:  clock,
	}
}

// Fetch returns the cached quote when fresh, otherwise fetches a new
// one. A failed refresh does not evict the previous quote, but the
// error is still returned; the caller decides whether stale data is
// acceptable.
func (c *CachedSource) Fetch(ctx context.Context) (domain.PriceQuote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.quote.FreshAt(now, c.ttl) {
		return c.quote, nil
	}

	quote, err := c.source.Fetch(ctx)
	if err != nil {
		return domain.PriceQuote{}, err
	}
	quote.FetchedAt = now
	c.quote = quote
	return quote, nil
}

// Invalidate drops the cached quote. The next Fetch hits the source.
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quote = domain.PriceQuote{}
}
