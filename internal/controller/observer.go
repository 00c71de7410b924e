package controller

import (
	"log"
	"sync"

	"solana-round-bot/internal/domain"
)

// Observer receives controller events. Hooks are fire-and-forget: the
// controller never consumes a return value and never blocks its loop
// on an observer.
type Observer interface {
	OnStatus(status domain.CycleStatus)
	OnError(err error)
	OnTransactionSent(signature string)
}

// Broadcaster fans controller events out to registered observers.
type Broadcaster struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Register adds an observer. Safe to call while the controller runs.
func (b *Broadcaster) Register(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

func (b *Broadcaster) OnStatus(status domain.CycleStatus) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, o := range b.observers {
		o.OnStatus(status)
	}
}

func (b *Broadcaster) OnError(err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, o := range b.observers {
		o.OnError(err)
	}
}

func (b *Broadcaster) OnTransactionSent(signature string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, o := range b.observers {
		o.OnTransactionSent(signature)
	}
}

// LogObserver writes controller events to a logger.
type LogObserver struct {
	logger *log.Logger
}

// NewLogObserver creates a logging observer.
func NewLogObserver(logger *log.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnStatus(status domain.CycleStatus) {
	o.logger.Printf("phase=%s round=%d slots_left=%d seq=%d msg=%q",
		status.Phase, status.RoundID, status.SlotsLeft, status.Sequence, status.Message)
}

func (o *LogObserver) OnError(err error) {
	o.logger.Printf("cycle error: %v", err)
}

func (o *LogObserver) OnTransactionSent(signature string) {
	o.logger.Printf("transaction sent: %s", signature)
}
