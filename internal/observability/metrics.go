// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solana-round-bot/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scheduler metrics
	TicksTotal      prometheus.Counter
	CyclesTotal     *prometheus.CounterVec
	RoundsObserved  prometheus.Counter
	CurrentRoundID  prometheus.Gauge
	SlotsLeft       prometheus.Gauge
	CyclePhase      *prometheus.GaugeVec
	SequenceCounter prometheus.Gauge

	// Deployment metrics
	DeploymentsTotal *prometheus.CounterVec
	ComputeUnitsUsed prometheus.Histogram
	ConfirmationTime prometheus.Histogram
	DeployedLamports prometheus.Counter

	// Price metrics
	PriceFetchesTotal *prometheus.CounterVec
	AssetPrice        prometheus.Gauge
	BasePrice         prometheus.Gauge

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulDeploy prometheus.Gauge
	UptimeSeconds        prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_round_bot"
	}

	return &Metrics{
		// Scheduler metrics
		TicksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Total number of scheduler ticks",
		}),
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycles_total",
			Help:      "Total number of deployment cycles by outcome",
		}, []string{"outcome"}),
		RoundsObserved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "rounds_observed_total",
			Help:      "Total number of distinct rounds observed",
		}),
		CurrentRoundID: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "current_round_id",
			Help:      "Identifier of the round currently observed",
		}),
		SlotsLeft: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "slots_left",
			Help:      "Slots remaining in the current round",
		}),
		CyclePhase: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycle_phase",
			Help:      "Current cycle phase (1 for the active phase, 0 otherwise)",
		}, []string{"phase"}),
		SequenceCounter: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "sequence_counter",
			Help:      "Per-round attempt sequence counter",
		}),

		// Deployment metrics
		DeploymentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deploy",
			Name:      "deployments_total",
			Help:      "Total number of deployment transactions by result",
		}, []string{"result"}),
		ComputeUnitsUsed: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "deploy",
			Name:      "compute_units",
			Help:      "Compute unit budget attached to deployment transactions",
			Buckets:   []float64{200_000, 250_000, 300_000, 400_000, 600_000, 1_000_000, 1_400_000},
		}),
		ConfirmationTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "deploy",
			Name:      "confirmation_seconds",
			Help:      "Time from send to confirmed commitment in seconds",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 90},
		}),
		DeployedLamports: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deploy",
			Name:      "deployed_lamports_total",
			Help:      "Total lamports committed across confirmed deployments",
		}),

		// Price metrics
		PriceFetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "fetches_total",
			Help:      "Total number of price oracle fetches by result",
		}, []string{"result"}),
		AssetPrice: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "asset_price_usd",
			Help:      "Last observed asset price in USD",
		}),
		BasePrice: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "base_price_usd",
			Help:      "Last observed base currency price in USD",
		}),

		// RPC metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Health metrics
		LastSuccessfulDeploy: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_deploy_timestamp",
			Help:      "Unix timestamp of the last confirmed deployment",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// allPhases enumerates the phase gauge labels once so the active phase
// can be flipped exclusively.
var allPhases = []domain.CyclePhase{
	domain.PhaseIdle,
	domain.PhaseMonitoring,
	domain.PhaseReady,
	domain.PhaseSimulating,
	domain.PhaseWaitingApproval,
	domain.PhaseSending,
	domain.PhaseConfirming,
	domain.PhaseSuccess,
	domain.PhaseError,
}

// StatusObserver exports controller status transitions as metrics. It
// implements the controller's observer interface.
type StatusObserver struct {
	metrics *Metrics
}

// NewStatusObserver creates a metrics-exporting observer.
func NewStatusObserver(metrics *Metrics) *StatusObserver {
	return &StatusObserver{metrics: metrics}
}

// OnStatus updates the scheduler gauges from a status snapshot.
func (o *StatusObserver) OnStatus(status domain.CycleStatus) {
	o.metrics.CurrentRoundID.Set(float64(status.RoundID))
	o.metrics.SlotsLeft.Set(float64(status.SlotsLeft))
	o.metrics.SequenceCounter.Set(float64(status.Sequence))

	for _, ph := range allPhases {
		v := 0.0
		if ph == status.Phase {
			v = 1.0
		}
		o.metrics.CyclePhase.WithLabelValues(string(ph)).Set(v)
	}

	if status.Phase.Terminal() {
		outcome := "success"
		if status.Phase == domain.PhaseError {
			outcome = "error"
		}
		o.metrics.CyclesTotal.WithLabelValues(outcome).Inc()
	}
}

// OnError counts failed cycles.
func (o *StatusObserver) OnError(_ error) {
	o.metrics.DeploymentsTotal.WithLabelValues("error").Inc()
}

// OnTransactionSent counts confirmed deployments.
func (o *StatusObserver) OnTransactionSent(_ string) {
	o.metrics.DeploymentsTotal.WithLabelValues("success").Inc()
}
