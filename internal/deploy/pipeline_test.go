package deploy

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"solana-round-bot/internal/domain"
	"solana-round-bot/internal/signer"
	"solana-round-bot/internal/solana"
	"solana-round-bot/internal/solana/stub"
	"solana-round-bot/internal/txcodec"
)

func testSigner(t *testing.T) *signer.Keypair {
	t.Helper()
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	kp, err := signer.NewKeypairFromSeed(seed)
	if err != nil {
		t.Fatalf("NewKeypairFromSeed: %v", err)
	}
	return kp
}

// decliningSigner refuses every request.
type decliningSigner struct {
	pub txcodec.Pubkey
}

func (s *decliningSigner) Sign(_ context.Context, _ []byte) ([]byte, error) {
	return nil, signer.ErrDeclined
}

func (s *decliningSigner) PublicKey() txcodec.Pubkey { return s.pub }

func allSectors() []bool {
	sectors := make([]bool, domain.SectorCount)
	for i := range sectors {
		sectors[i] = true
	}
	return sectors
}

func testRequest() Request {
	return Request{
		Round: domain.RoundState{RoundID: 42, CurrentSlot: 1100, EndSlot: 1150},
		Params: domain.AutomationParams{
			DeployAmount:   1_000_000,
			SlotsThreshold: 15,
			RefineRate:     0.25,
			Sectors:        allSectors(),
		},
		Quote:    domain.PriceQuote{AssetPrice: 1.0, BasePrice: 100.0, FetchedAt: time.Now()},
		Sequence: 3,
	}
}

func fundedRPC(kp *signer.Keypair) *stub.RPCClient {
	rpc := stub.NewRPCClient()
	rpc.Balances[kp.PublicKey().String()] = 100_000_000
	return rpc
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func confirmStatus(slot uint64) *solana.SignatureStatus {
	return &solana.SignatureStatus{Slot: slot, ConfirmationStatus: solana.CommitmentConfirmed}
}

func TestPipeline_Run_Success(t *testing.T) {
	kp := testSigner(t)
	rpc := fundedRPC(kp)
	units := uint64(250_000)
	rpc.Simulation = solana.SimulationResult{UnitsConsumed: &units}
	rpc.SetStatus("stubsignature", confirmStatus(1120))

	var mu sync.Mutex
	var phases []domain.CyclePhase
	p := NewPipeline(rpc, kp,
		WithLogger(quietLogger()),
		WithPollInterval(time.Millisecond),
		WithPhaseHook(func(ph domain.CyclePhase) {
			mu.Lock()
			phases = append(phases, ph)
			mu.Unlock()
		}))

	res, err := p.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Signature != "stubsignature" {
		t.Errorf("signature = %s", res.Signature)
	}
	if res.ComputeUnits != 275_000 {
		t.Errorf("compute units = %d, want 275000", res.ComputeUnits)
	}
	if res.Slot != 1120 {
		t.Errorf("slot = %d, want 1120", res.Slot)
	}

	want := []domain.CyclePhase{
		domain.PhaseSimulating,
		domain.PhaseWaitingApproval,
		domain.PhaseSending,
		domain.PhaseConfirming,
	}
	mu.Lock()
	defer mu.Unlock()
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phase %d = %s, want %s", i, phases[i], want[i])
		}
	}

	if rpc.SimulateCalls != 1 {
		t.Errorf("simulate calls = %d, want 1", rpc.SimulateCalls)
	}
	if rpc.SendCalls != 1 {
		t.Errorf("send calls = %d, want 1", rpc.SendCalls)
	}
}

func TestPipeline_Run_SimulationFailureUsesDefaultBudget(t *testing.T) {
	kp := testSigner(t)
	rpc := fundedRPC(kp)
	rpc.SimulationErr = errors.New("node unavailable")
	rpc.SetStatus("stubsignature", confirmStatus(1120))

	p := NewPipeline(rpc, kp, WithLogger(quietLogger()), WithPollInterval(time.Millisecond))

	res, err := p.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ComputeUnits != DefaultComputeUnits {
		t.Errorf("compute units = %d, want default %d", res.ComputeUnits, DefaultComputeUnits)
	}
}

func TestPipeline_Run_SignerDeclined(t *testing.T) {
	kp := testSigner(t)
	rpc := fundedRPC(kp)
	declined := &decliningSigner{pub: kp.PublicKey()}

	p := NewPipeline(rpc, declined, WithLogger(quietLogger()))

	_, err := p.Run(context.Background(), testRequest())
	if !errors.Is(err, ErrSignerDeclined) {
		t.Errorf("expected ErrSignerDeclined, got %v", err)
	}
	if rpc.SendCalls != 0 {
		t.Error("declined transaction must not be sent")
	}
}

func TestPipeline_Run_InsufficientBalance(t *testing.T) {
	kp := testSigner(t)
	rpc := stub.NewRPCClient()
	rpc.Balances[kp.PublicKey().String()] = 1000

	p := NewPipeline(rpc, kp, WithLogger(quietLogger()))

	_, err := p.Run(context.Background(), testRequest())
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
	if rpc.SimulateCalls != 0 {
		t.Error("underfunded cycle must stop before simulation")
	}
}

func TestPipeline_Run_ExpiredBlockhash(t *testing.T) {
	kp := testSigner(t)
	rpc := fundedRPC(kp)
	// Never confirmed and blockhash drops out of validity.
	rpc.BlockhashValid = false

	p := NewPipeline(rpc, kp,
		WithLogger(quietLogger()),
		WithPollInterval(time.Millisecond),
		WithConfirmTimeout(time.Second))

	_, err := p.Run(context.Background(), testRequest())
	if !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
}

func TestPipeline_Run_TransactionFailedOnChain(t *testing.T) {
	kp := testSigner(t)
	rpc := fundedRPC(kp)
	rpc.SetStatus("stubsignature", &solana.SignatureStatus{
		Slot:               1120,
		ConfirmationStatus: solana.CommitmentConfirmed,
		Err:                map[string]interface{}{"InstructionError": []interface{}{1, "Custom"}},
	})

	p := NewPipeline(rpc, kp, WithLogger(quietLogger()), WithPollInterval(time.Millisecond))

	_, err := p.Run(context.Background(), testRequest())
	if !errors.Is(err, ErrTransactionFailed) {
		t.Errorf("expected ErrTransactionFailed, got %v", err)
	}
}

func TestPipeline_Run_InvalidParams(t *testing.T) {
	kp := testSigner(t)
	rpc := fundedRPC(kp)

	p := NewPipeline(rpc, kp, WithLogger(quietLogger()))

	req := testRequest()
	req.Params.Sectors = make([]bool, 10)

	if _, err := p.Run(context.Background(), req); err == nil {
		t.Error("expected precondition error for malformed sectors")
	}
	if rpc.SimulateCalls != 0 || rpc.SendCalls != 0 {
		t.Error("invalid parameters must fail before any network call")
	}
}
