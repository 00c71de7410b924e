// Package deploy drives one deployment cycle: build the transaction,
// size its compute budget, sign, broadcast, and await confirmation.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"solana-round-bot/internal/domain"
	"solana-round-bot/internal/program"
	"solana-round-bot/internal/signer"
	"solana-round-bot/internal/solana"
	"solana-round-bot/internal/txcodec"
)

// feeReserveLamports is kept back from the balance preflight so the
// transaction fee itself is always fundable.
const feeReserveLamports = 5_000_000

// Default confirmation behavior.
const (
	DefaultConfirmTimeout = 90 * time.Second
	DefaultPollInterval   = 2 * time.Second
)

// Request is the input to one deployment cycle.
type Request struct {
	Round    domain.RoundState
	Params   domain.AutomationParams
	Quote    domain.PriceQuote
	Sequence uint8

	// OnPhase, when set, overrides the pipeline-level phase hook for
	// this cycle.
	OnPhase PhaseFunc
}

// Result is the outcome of a successful cycle.
type Result struct {
	Signature    string
	ComputeUnits uint32
	Slot         uint64
}

// PhaseFunc receives phase transitions as the pipeline progresses.
type PhaseFunc func(phase domain.CyclePhase)

// Pipeline executes deployment cycles.
type Pipeline struct {
	rpc    solana.RPCClient
	ws     solana.WSClient
	signer signer.Signer
	logger *log.Logger
	clock  clockwork.Clock

	priorityFee    uint64
	confirmTimeout time.Duration
	pollInterval   time.Duration
	onPhase        PhaseFunc
}

// PipelineOption configures Pipeline.
type PipelineOption func(*Pipeline)

// WithWSClient enables WebSocket-based confirmation. Without it the
// pipeline polls signature statuses.
func WithWSClient(ws solana.WSClient) PipelineOption {
	return func(p *Pipeline) {
		p.ws = ws
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *log.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithClock sets the clock used for confirmation timing.
func WithClock(clock clockwork.Clock) PipelineOption {
	return func(p *Pipeline) {
		p.clock = clock
	}
}

// WithPriorityFee adds a compute unit price instruction, in
// micro-lamports per unit.
func WithPriorityFee(microLamports uint64) PipelineOption {
	return func(p *Pipeline) {
		p.priorityFee = microLamports
	}
}

// WithConfirmTimeout bounds the confirmation wait.
func WithConfirmTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.confirmTimeout = d
	}
}

// WithPollInterval sets the signature status polling period.
func WithPollInterval(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.pollInterval = d
	}
}

// WithPhaseHook registers a phase transition callback.
func WithPhaseHook(fn PhaseFunc) PipelineOption {
	return func(p *Pipeline) {
		p.onPhase = fn
	}
}

// NewPipeline creates a deployment pipeline.
func NewPipeline(rpc solana.RPCClient, s signer.Signer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		rpc:            rpc,
		signer:         s,
		logger:         log.New(os.Stdout, "[deploy] ", log.LstdFlags),
		clock:          clockwork.NewRealClock(),
		confirmTimeout: DefaultConfirmTimeout,
		pollInterval:   DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one deployment cycle. The returned error wraps one of
// the package sentinels when the failure class matters to the caller.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	phase := p.onPhase
	if req.OnPhase != nil {
		phase = req.OnPhase
	}
	notify := func(ph domain.CyclePhase) {
		if phase != nil {
			phase(ph)
		}
	}

	if err := req.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	authority := p.signer.PublicKey()

	if err := p.checkBalance(ctx, authority, req.Params.DeployAmount); err != nil {
		return nil, err
	}

	instructions, err := p.buildInstructions(authority, req)
	if err != nil {
		return nil, err
	}

	blockhash, err := p.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("get blockhash: %w", err)
	}

	notify(domain.PhaseSimulating)
	units := p.sizeComputeBudget(ctx, authority, blockhash.Blockhash, instructions)
	p.logger.Printf("compute budget: %d units", units)

	msg, err := p.compileMessage(authority, blockhash.Blockhash, units, instructions)
	if err != nil {
		return nil, err
	}

	notify(domain.PhaseWaitingApproval)
	sig, err := p.signer.Sign(ctx, msg.Serialize())
	if err != nil {
		if errors.Is(err, signer.ErrDeclined) {
			return nil, fmt.Errorf("%w: %v", ErrSignerDeclined, err)
		}
		return nil, fmt.Errorf("sign: %w", err)
	}

	tx := &txcodec.Transaction{Signatures: [][]byte{sig}, Message: msg}
	txBase64, err := tx.Base64()
	if err != nil {
		return nil, fmt.Errorf("serialize transaction: %w", err)
	}

	notify(domain.PhaseSending)
	signature, err := p.rpc.SendTransaction(ctx, txBase64)
	if err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}
	p.logger.Printf("sent transaction %s (round %d, seq %d)", signature, req.Round.RoundID, req.Sequence)

	notify(domain.PhaseConfirming)
	slot, err := p.confirm(ctx, signature, blockhash.Blockhash)
	if err != nil {
		return nil, err
	}

	return &Result{Signature: signature, ComputeUnits: units, Slot: slot}, nil
}

func (p *Pipeline) checkBalance(ctx context.Context, authority txcodec.Pubkey, amount uint64) error {
	balance, err := p.rpc.GetBalance(ctx, authority.String())
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	if balance < amount+feeReserveLamports {
		return fmt.Errorf("%w: have %d lamports, need %d", ErrInsufficientBalance, balance, amount+feeReserveLamports)
	}
	return nil
}

// buildInstructions assembles the protocol-ordered instruction list:
// checkpoint, deploy, claim. The order is part of the on-chain
// contract.
func (p *Pipeline) buildInstructions(authority txcodec.Pubkey, req Request) ([]txcodec.Instruction, error) {
	mask, err := txcodec.PackMask(req.Params.Sectors)
	if err != nil {
		return nil, fmt.Errorf("pack sector mask: %w", err)
	}

	checkpoint, err := program.NewCheckpointInstruction(authority, req.Round.RoundID)
	if err != nil {
		return nil, fmt.Errorf("build checkpoint: %w", err)
	}

	deployIx, err := program.NewDeployInstruction(authority, program.DeployArgs{
		RoundID:    req.Round.RoundID,
		Amount:     req.Params.DeployAmount,
		SectorMask: mask,
		RefineRate: req.Params.RefineRate,
		Sequence:   req.Sequence,
	})
	if err != nil {
		return nil, fmt.Errorf("build deploy: %w", err)
	}

	claim, err := program.NewClaimInstruction(authority, req.Round.RoundID)
	if err != nil {
		return nil, fmt.Errorf("build claim: %w", err)
	}

	return []txcodec.Instruction{checkpoint, deployIx, claim}, nil
}

// compileMessage prepends the compute budget instructions and compiles
// the final message.
func (p *Pipeline) compileMessage(authority txcodec.Pubkey, blockhash string, units uint32, instructions []txcodec.Instruction) (*txcodec.Message, error) {
	all := []txcodec.Instruction{program.SetComputeUnitLimit(units)}
	if p.priorityFee > 0 {
		all = append(all, program.SetComputeUnitPrice(p.priorityFee))
	}
	all = append(all, instructions...)

	msg, err := txcodec.NewMessage(authority, blockhash, all)
	if err != nil {
		return nil, fmt.Errorf("compile message: %w", err)
	}
	return msg, nil
}

// sizeComputeBudget dry-runs the transaction with an uncapped
// placeholder limit and derives the real budget from units consumed.
// Any failure degrades to the safety floor.
func (p *Pipeline) sizeComputeBudget(ctx context.Context, authority txcodec.Pubkey, blockhash string, instructions []txcodec.Instruction) uint32 {
	msg, err := p.compileMessage(authority, blockhash, simulationComputeUnits, instructions)
	if err != nil {
		p.logger.Printf("simulation skipped, compile failed: %v", err)
		return DefaultComputeUnits
	}

	tx := &txcodec.Transaction{Message: msg}
	txBase64, err := tx.UnsignedBase64()
	if err != nil {
		p.logger.Printf("simulation skipped, serialize failed: %v", err)
		return DefaultComputeUnits
	}

	sim, simErr := p.rpc.SimulateTransaction(ctx, txBase64)
	if simErr != nil {
		p.logger.Printf("simulation failed, using default budget: %v", simErr)
	} else if sim.Err != nil {
		p.logger.Printf("simulation reported error, using default budget: %v", sim.Err)
	}
	return ComputeUnitLimit(sim, simErr)
}

// confirm waits for the signature to reach confirmed commitment. The
// blockhash attached at assembly bounds the wait: once it is no longer
// valid and the transaction still is not confirmed, the cycle is
// abandoned as expired.
func (p *Pipeline) confirm(ctx context.Context, signature, blockhash string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	defer cancel()

	if p.ws != nil {
		slot, err := p.confirmWS(ctx, signature)
		if err == nil {
			return slot, nil
		}
		if errors.Is(err, ErrTransactionFailed) || errors.Is(err, ErrExpired) {
			return 0, err
		}
		p.logger.Printf("ws confirmation unavailable, falling back to polling: %v", err)
	}

	return p.confirmPolling(ctx, signature, blockhash)
}

func (p *Pipeline) confirmWS(ctx context.Context, signature string) (uint64, error) {
	ch, err := p.ws.SubscribeSignature(ctx, signature)
	if err != nil {
		return 0, fmt.Errorf("signature subscribe: %w", err)
	}

	select {
	case notif, ok := <-ch:
		if !ok {
			return 0, fmt.Errorf("signature subscription closed")
		}
		if notif.Err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTransactionFailed, notif.Err)
		}
		return notif.Slot, nil
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: confirmation timed out", ErrExpired)
	}
}

func (p *Pipeline) confirmPolling(ctx context.Context, signature, blockhash string) (uint64, error) {
	for {
		statuses, err := p.rpc.GetSignatureStatuses(ctx, []string{signature})
		if err != nil {
			p.logger.Printf("status poll failed: %v", err)
		} else if len(statuses) == 1 && statuses[0] != nil {
			st := statuses[0]
			if st.Err != nil {
				return 0, fmt.Errorf("%w: %v", ErrTransactionFailed, st.Err)
			}
			if st.ConfirmationStatus == solana.CommitmentConfirmed || st.ConfirmationStatus == solana.CommitmentFinalized {
				return st.Slot, nil
			}
		}

		valid, err := p.rpc.IsBlockhashValid(ctx, blockhash)
		if err == nil && !valid {
			return 0, fmt.Errorf("%w: blockhash no longer valid", ErrExpired)
		}

		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("%w: confirmation timed out", ErrExpired)
		case <-p.clock.After(p.pollInterval):
		}
	}
}
