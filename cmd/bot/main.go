package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"solana-round-bot/internal/controller"
	"solana-round-bot/internal/deploy"
	"solana-round-bot/internal/domain"
	"solana-round-bot/internal/observability"
	"solana-round-bot/internal/pricing"
	"solana-round-bot/internal/program"
	"solana-round-bot/internal/roundstate"
	"solana-round-bot/internal/signer"
	"solana-round-bot/internal/solana"
	"solana-round-bot/internal/storage"
	chstore "solana-round-bot/internal/storage/clickhouse"
	"solana-round-bot/internal/storage/memory"
	"solana-round-bot/internal/storage/migrations"
	pgstore "solana-round-bot/internal/storage/postgres"
)

func main() {
	// Load .env file if exists (system env vars take precedence)
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (empty to confirm by polling only)")
	priceEndpoint := flag.String("price-endpoint", os.Getenv("PRICE_API_ENDPOINT"), "Price oracle HTTP endpoint")
	roundEndpoint := flag.String("round-endpoint", os.Getenv("ROUND_API_ENDPOINT"), "Round state HTTP endpoint (empty to read round accounts on-chain)")
	keypairPath := flag.String("keypair", os.Getenv("KEYPAIR_PATH"), "Path to the authority keypair JSON file")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	deployAmount := flag.Uint64("deploy-amount", 0, "Stake per deployment in lamports")
	slotsThreshold := flag.Uint("slots-threshold", 12, "Remaining-slots boundary that triggers a deployment")
	refineRate := flag.Float64("refine-rate", 1.0, "Refine rate forwarded to the program")
	sectors := flag.String("sectors", "all", "Board sectors to deploy to: 'all' or comma-separated indices (0-24)")
	initialRound := flag.Uint64("initial-round", 0, "Round ID to start scanning from in on-chain mode")
	interval := flag.Duration("interval", controller.DefaultInterval, "Round polling interval")
	priorityFee := flag.Uint64("priority-fee", 0, "Priority fee in micro-lamports per compute unit (0 to disable)")
	confirmTimeout := flag.Duration("confirm-timeout", deploy.DefaultConfirmTimeout, "Confirmation timeout per transaction")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for health/metrics/status (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *priceEndpoint == "" {
		logger.Fatal("--price-endpoint is required")
	}
	if *keypairPath == "" {
		logger.Fatal("--keypair is required")
	}
	if *deployAmount == 0 {
		logger.Fatal("--deploy-amount is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	sectorFlags, err := parseSectors(*sectors)
	if err != nil {
		logger.Fatalf("Invalid --sectors: %v", err)
	}

	params := domain.AutomationParams{
		DeployAmount:   *deployAmount,
		SlotsThreshold: uint32(*slotsThreshold),
		RefineRate:     *refineRate,
		Sectors:        sectorFlags,
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = run(ctx, logger, runConfig{
		rpcEndpoint:    *rpcEndpoint,
		wsEndpoint:     *wsEndpoint,
		priceEndpoint:  *priceEndpoint,
		roundEndpoint:  *roundEndpoint,
		keypairPath:    *keypairPath,
		postgresDSN:    *postgresDSN,
		clickhouseDSN:  *clickhouseDSN,
		params:         params,
		initialRound:   *initialRound,
		interval:       *interval,
		priorityFee:    *priorityFee,
		confirmTimeout: *confirmTimeout,
		useMemory:      *useMemory,
		metricsAddr:    *metricsAddr,
	})

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// runConfig carries the resolved flag values into run.
type runConfig struct {
	rpcEndpoint    string
	wsEndpoint     string
	priceEndpoint  string
	roundEndpoint  string
	keypairPath    string
	postgresDSN    string
	clickhouseDSN  string
	params         domain.AutomationParams
	initialRound   uint64
	interval       time.Duration
	priorityFee    uint64
	confirmTimeout time.Duration
	useMemory      bool
	metricsAddr    string
}

func run(ctx context.Context, logger *log.Logger, cfg runConfig) error {
	rpc := solana.NewHTTPClient(cfg.rpcEndpoint)

	keypair, err := signer.LoadKeypair(cfg.keypairPath)
	if err != nil {
		return fmt.Errorf("load keypair: %w", err)
	}
	logger.Printf("Authority: %s", keypair.PublicKey())

	if err := verifyTreasury(ctx, rpc); err != nil {
		return fmt.Errorf("verify treasury: %w", err)
	}

	// Create stores (use interfaces)
	var deploymentStore storage.DeploymentStore = memory.NewDeploymentStore()
	var snapshotStore storage.RoundSnapshotStore = memory.NewRoundSnapshotStore()

	if !cfg.useMemory {
		pool, err := pgstore.NewPool(ctx, cfg.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		deploymentStore = pgstore.NewDeploymentStore(pool)

		chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("migrate clickhouse: %w", err)
		}
		defer chConn.Close()
		snapshotStore = chstore.NewRoundSnapshotStore(chConn)
	}

	// Price oracle with a short freshness window
	prices := pricing.NewCachedSource(pricing.NewClient(cfg.priceEndpoint))

	// Round state: HTTP endpoint if configured, otherwise read the round
	// accounts directly from the chain
	var rounds roundstate.Source
	if cfg.roundEndpoint != "" {
		rounds = roundstate.NewClient(cfg.roundEndpoint)
	} else {
		rounds = roundstate.NewChainClient(rpc, cfg.initialRound)
		logger.Printf("Reading round state on-chain from round %d", cfg.initialRound)
	}

	// Deployment pipeline
	pipelineOpts := []deploy.PipelineOption{
		deploy.WithLogger(logger),
		deploy.WithConfirmTimeout(cfg.confirmTimeout),
	}
	if cfg.priorityFee > 0 {
		pipelineOpts = append(pipelineOpts, deploy.WithPriorityFee(cfg.priorityFee))
	}
	if cfg.wsEndpoint != "" {
		ws, err := solana.NewWSClient(ctx, cfg.wsEndpoint, nil)
		if err != nil {
			return fmt.Errorf("create websocket client: %w", err)
		}
		defer ws.Close()
		pipelineOpts = append(pipelineOpts, deploy.WithWSClient(ws))
	}
	pipeline := deploy.NewPipeline(rpc, keypair, pipelineOpts...)

	ctrl, err := controller.New(rounds, prices, pipeline, cfg.params,
		controller.WithInterval(cfg.interval),
		controller.WithLogger(logger),
		controller.WithDeploymentStore(deploymentStore),
		controller.WithSnapshotStore(snapshotStore),
	)
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	metrics := observability.NewMetrics("")
	ctrl.Subscribe(observability.NewStatusObserver(metrics))
	ctrl.Subscribe(controller.NewLogObserver(logger))

	// Start HTTP server for health/metrics/status
	if cfg.metricsAddr != "" {
		go startHTTPServer(logger, cfg.metricsAddr, ctrl)
	}

	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("start controller: %w", err)
	}
	logger.Printf("Watching rounds every %v, deploying at %d slots left", cfg.interval, cfg.params.SlotsThreshold)

	<-ctx.Done()
	ctrl.Stop()
	return ctx.Err()
}

// verifyTreasury cross-checks the derived treasury address against the
// on-chain program config before any funds move.
func verifyTreasury(ctx context.Context, rpc solana.RPCClient) error {
	configAddr, _, err := program.ConfigAddress()
	if err != nil {
		return fmt.Errorf("derive config address: %w", err)
	}

	info, err := rpc.GetAccountInfo(ctx, configAddr.String())
	if err != nil {
		return fmt.Errorf("fetch config account: %w", err)
	}
	if info == nil {
		return fmt.Errorf("config account %s does not exist", configAddr)
	}

	raw, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return fmt.Errorf("decode config account data: %w", err)
	}
	config, err := program.ParseConfigAccount(raw)
	if err != nil {
		return fmt.Errorf("parse config account: %w", err)
	}

	derived, _, err := program.TreasuryAddress()
	if err != nil {
		return fmt.Errorf("derive treasury address: %w", err)
	}
	if config.Treasury != derived {
		return fmt.Errorf("treasury mismatch: config has %s, derived %s", config.Treasury, derived)
	}

	return nil
}

// parseSectors parses the --sectors flag into per-sector flags.
func parseSectors(spec string) ([]bool, error) {
	flags := make([]bool, domain.SectorCount)

	if strings.TrimSpace(strings.ToLower(spec)) == "all" {
		for i := range flags {
			flags[i] = true
		}
		return flags, nil
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("parse sector index %q: %w", part, err)
		}
		if idx < 0 || idx >= domain.SectorCount {
			return nil, fmt.Errorf("sector index %d out of range [0, %d)", idx, domain.SectorCount)
		}
		flags[idx] = true
	}

	return flags, nil
}

// startHTTPServer serves health, metrics and status endpoints.
func startHTTPServer(logger *log.Logger, addr string, ctrl *controller.Controller) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ctrl.Status())
	})

	logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("HTTP server error: %v", err)
	}
}
