// Package controller runs the scheduling loop: poll round state on a
// fixed interval, decide whether the submission window is open, and
// drive at most one deployment cycle at a time.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"solana-round-bot/internal/deploy"
	"solana-round-bot/internal/domain"
	"solana-round-bot/internal/roundstate"
	"solana-round-bot/internal/storage"
)

// DefaultInterval is the poll period of the scheduling loop.
const DefaultInterval = time.Second

// sequenceModulus wraps the per-round attempt counter.
const sequenceModulus = 100

// CycleRunner executes one deployment cycle.
type CycleRunner interface {
	Run(ctx context.Context, req deploy.Request) (*deploy.Result, error)
}

// PriceSource provides quotes and supports explicit invalidation on
// round transitions.
type PriceSource interface {
	Fetch(ctx context.Context) (domain.PriceQuote, error)
	Invalidate()
}

// Controller owns the scheduling loop and all cycle-scoped state: the
// last seen round, the attempt counter, and the published status.
type Controller struct {
	rounds   roundstate.Source
	prices   PriceSource
	runner   CycleRunner
	params   domain.AutomationParams
	interval time.Duration
	clock    clockwork.Clock
	logger   *log.Logger
	events   *Broadcaster

	deployments storage.DeploymentStore
	snapshots   storage.RoundSnapshotStore

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	mu          sync.Mutex
	status      domain.CycleStatus
	lastRoundID uint64
	haveRound   bool
	sequence    int
	roundDone   bool
	lastQuote   domain.PriceQuote
}

// Option configures Controller.
type Option func(*Controller)

// WithInterval sets the poll period.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.interval = d
	}
}

// WithClock sets the loop clock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithDeploymentStore persists cycle outcomes.
func WithDeploymentStore(store storage.DeploymentStore) Option {
	return func(c *Controller) {
		c.deployments = store
	}
}

// WithSnapshotStore persists per-tick round observations.
func WithSnapshotStore(store storage.RoundSnapshotStore) Option {
	return func(c *Controller) {
		c.snapshots = store
	}
}

// New creates a controller.
func New(rounds roundstate.Source, prices PriceSource, runner CycleRunner, params domain.AutomationParams, opts ...Option) (*Controller, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	c := &Controller{
		rounds:   rounds,
		prices:   prices,
		runner:   runner,
		params:   params,
		interval: DefaultInterval,
		clock:    clockwork.NewRealClock(),
		logger:   log.New(os.Stdout, "[controller] ", log.LstdFlags),
		events:   NewBroadcaster(),
		status:   domain.CycleStatus{Phase: domain.PhaseIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Subscribe registers an observer for status and error events.
func (c *Controller) Subscribe(o Observer) {
	c.events.Register(o)
}

// Start launches the scheduling loop. The context bounds the network
// calls of individual ticks; Stop only prevents future ticks.
func (c *Controller) Start(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("controller already running")
	}

	c.done = make(chan struct{})
	c.wg.Add(1)
	go c.loop(ctx)

	c.logger.Printf("started: interval=%s threshold=%d slots amount=%d", c.interval, c.params.SlotsThreshold, c.params.DeployAmount)
	return nil
}

// Stop cancels future ticks and waits for an in-flight cycle to run to
// completion. It does not abort in-progress network calls.
func (c *Controller) Stop() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}
	close(c.done)
	c.wg.Wait()
	c.logger.Printf("stopped")
}

// Status returns a snapshot of the current cycle status.
func (c *Controller) Status() domain.CycleStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) loop(ctx context.Context) {
	defer c.wg.Done()

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			c.tick(ctx)
		}
	}
}

// tick runs one iteration of the loop. A tick either observes and
// returns, or runs one full deployment cycle; it never overlaps with
// another tick.
func (c *Controller) tick(ctx context.Context) {
	state, err := c.rounds.Current(ctx)
	if err != nil {
		c.logger.Printf("round state fetch failed: %v", err)
		c.publish(func(s *domain.CycleStatus) {
			s.Message = fmt.Sprintf("round state unavailable: %v", err)
		})
		c.events.OnError(err)
		return
	}

	slotsLeft := state.SlotsLeft()

	c.mu.Lock()
	roundChanged := !c.haveRound || state.RoundID != c.lastRoundID
	if roundChanged {
		c.logger.Printf("round %d active (end slot %d)", state.RoundID, state.EndSlot)
		c.lastRoundID = state.RoundID
		c.haveRound = true
		c.sequence = 0
		c.roundDone = false
		c.prices.Invalidate()
	}
	roundDone := c.roundDone
	c.mu.Unlock()

	if roundChanged {
		// Refresh eagerly so a new round never observes the old
		// round's prices. A failure here is not fatal: the cycle's
		// own fetch retries before any transaction is built.
		if quote, err := c.prices.Fetch(ctx); err != nil {
			c.logger.Printf("price refresh failed: %v", err)
		} else {
			c.mu.Lock()
			c.lastQuote = quote
			c.mu.Unlock()
		}
	}

	c.recordSnapshot(ctx, state, slotsLeft)

	if roundDone || !ShouldDeploy(slotsLeft, c.params.SlotsThreshold) {
		c.publish(func(s *domain.CycleStatus) {
			s.Phase = domain.PhaseMonitoring
			s.RoundID = state.RoundID
			s.SlotsLeft = slotsLeft
			s.Message = ""
		})
		return
	}

	c.runCycle(ctx, state, slotsLeft)
}

// runCycle executes one deployment cycle synchronously within the tick.
func (c *Controller) runCycle(ctx context.Context, state domain.RoundState, slotsLeft uint64) {
	c.mu.Lock()
	seq := c.sequence
	c.sequence = (c.sequence + 1) % sequenceModulus
	c.mu.Unlock()

	c.publish(func(s *domain.CycleStatus) {
		s.Phase = domain.PhaseReady
		s.RoundID = state.RoundID
		s.SlotsLeft = slotsLeft
		s.Sequence = seq
		s.Message = ""
	})

	quote, err := c.prices.Fetch(ctx)
	if err != nil {
		c.failCycle(fmt.Errorf("price fetch: %w", err), state, nil)
		return
	}
	c.mu.Lock()
	c.lastQuote = quote
	c.mu.Unlock()

	req := deploy.Request{
		Round:    state,
		Params:   c.params,
		Quote:    quote,
		Sequence: uint8(seq),
		OnPhase: func(ph domain.CyclePhase) {
			c.publish(func(s *domain.CycleStatus) {
				s.Phase = ph
			})
		},
	}

	res, err := c.runner.Run(ctx, req)
	if err != nil {
		c.failCycle(err, state, &quote)
		return
	}

	c.logger.Printf("round %d deployed: %s (%d units)", state.RoundID, res.Signature, res.ComputeUnits)
	c.mu.Lock()
	c.roundDone = true
	c.mu.Unlock()

	c.publish(func(s *domain.CycleStatus) {
		s.Phase = domain.PhaseSuccess
		s.LastSignature = res.Signature
		s.Message = ""
	})
	c.events.OnTransactionSent(res.Signature)

	c.recordDeployment(ctx, &domain.DeploymentRecord{
		RoundID:      state.RoundID,
		Sequence:     seq,
		Signature:    res.Signature,
		Phase:        domain.PhaseSuccess,
		ComputeUnits: res.ComputeUnits,
		AssetPrice:   quote.AssetPrice,
		BasePrice:    quote.BasePrice,
	})
}

// failCycle publishes the error state and decides whether the round is
// spent. Signer rejection and blockhash expiry are terminal for the
// round; anything else is retried on a later tick with the next
// sequence number.
func (c *Controller) failCycle(err error, state domain.RoundState, quote *domain.PriceQuote) {
	c.logger.Printf("round %d cycle failed: %v", state.RoundID, err)

	terminal := errors.Is(err, deploy.ErrSignerDeclined) || errors.Is(err, deploy.ErrExpired)
	c.mu.Lock()
	seq := c.status.Sequence
	if terminal {
		c.roundDone = true
	}
	c.mu.Unlock()

	c.publish(func(s *domain.CycleStatus) {
		s.Phase = domain.PhaseError
		s.Message = err.Error()
	})
	c.events.OnError(err)

	rec := &domain.DeploymentRecord{
		RoundID:      state.RoundID,
		Sequence:     seq,
		Phase:        domain.PhaseError,
		ErrorMessage: err.Error(),
	}
	if quote != nil {
		rec.AssetPrice = quote.AssetPrice
		rec.BasePrice = quote.BasePrice
	}
	c.recordDeployment(context.Background(), rec)
}

// publish applies a mutation to the status under lock, stamps it, and
// broadcasts a snapshot copy.
func (c *Controller) publish(mutate func(*domain.CycleStatus)) {
	c.mu.Lock()
	mutate(&c.status)
	c.status.UpdatedAt = c.clock.Now()
	snapshot := c.status
	c.mu.Unlock()

	c.events.OnStatus(snapshot)
}

func (c *Controller) recordSnapshot(ctx context.Context, state domain.RoundState, slotsLeft uint64) {
	if c.snapshots == nil {
		return
	}

	c.mu.Lock()
	quote := c.lastQuote
	c.mu.Unlock()

	snap := &domain.RoundSnapshot{
		RoundID:     state.RoundID,
		CurrentSlot: state.CurrentSlot,
		EndSlot:     state.EndSlot,
		SlotsLeft:   slotsLeft,
		AssetPrice:  quote.AssetPrice,
		BasePrice:   quote.BasePrice,
		ObservedAt:  c.clock.Now(),
	}
	if err := c.snapshots.SaveSnapshot(ctx, snap); err != nil {
		c.logger.Printf("snapshot save failed: %v", err)
	}
}

func (c *Controller) recordDeployment(ctx context.Context, rec *domain.DeploymentRecord) {
	if c.deployments == nil {
		return
	}

	rec.CreatedAt = c.clock.Now()
	if err := c.deployments.SaveDeployment(ctx, rec); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		c.logger.Printf("deployment save failed: %v", err)
	}
}
