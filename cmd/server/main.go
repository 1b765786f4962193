// Package main runs the full tokenwatch service: the monitoring
// scheduler plus the HTTP status and trigger surface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"tokenwatch/internal/alert"
	"tokenwatch/internal/analyzer"
	"tokenwatch/internal/chain"
	"tokenwatch/internal/gateway"
	"tokenwatch/internal/market"
	"tokenwatch/internal/monitor"
	"tokenwatch/internal/observability"
	"tokenwatch/internal/server"
	"tokenwatch/internal/storage"
	chstore "tokenwatch/internal/storage/clickhouse"
	"tokenwatch/internal/storage/memory"
	"tokenwatch/internal/storage/migrations"
	pgstore "tokenwatch/internal/storage/postgres"
)

type stores struct {
	tokens  storage.TokenStore
	holders storage.HolderStore
	tickers storage.TickerMappingStore
	history storage.AnalysisHistoryStore
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var (
		port          = flag.Int("port", envInt("PORT", 8080), "HTTP listen port")
		marketBaseURL = flag.String("market-base-url", os.Getenv("MARKET_BASE_URL"), "Market data API base URL")
		marketAPIKey  = flag.String("market-api-key", os.Getenv("MARKET_API_KEY"), "Market data API key")
		chainBaseURL  = flag.String("chain-base-url", os.Getenv("CHAIN_BASE_URL"), "Chain indexing API base URL")
		chainProject  = flag.String("chain-project-id", os.Getenv("CHAIN_PROJECT_ID"), "Chain indexing API project ID")
		postgresDSN   = flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
		clickhouseDSN = flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse DSN for the analysis history mirror (optional)")
		useMemory     = flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
		interval      = flag.Duration("interval", envDuration("MONITOR_INTERVAL", monitor.DefaultInterval), "Monitoring cycle interval")
		maxAnalyses   = flag.Int("max-analyses", monitor.DefaultMaxAnalysesPerCycle, "New tokens analyzed per cycle")
		webhookURL    = flag.String("webhook-url", os.Getenv("ALERT_WEBHOOK_URL"), "Alert webhook URL (log-only when empty)")
		denylist      = flag.String("denylist", os.Getenv("DENYLIST"), "Comma-separated units to never process")
		debug         = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	if *marketBaseURL == "" {
		log.Fatal().Msg("-market-base-url (or MARKET_BASE_URL) is required")
	}
	if *chainBaseURL == "" {
		log.Fatal().Msg("-chain-base-url (or CHAIN_BASE_URL) is required")
	}
	if !*useMemory && *postgresDSN == "" {
		log.Fatal().Msg("-postgres-dsn is required (or pass -use-memory)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := createStores(ctx, log, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		log.Fatal().Err(err).Msg("store setup failed")
	}
	defer cleanup()

	metrics := observability.NewMetrics("")

	gw := gateway.New(gateway.Options{
		Market:  market.New(*marketBaseURL, market.WithAPIKey(*marketAPIKey)),
		Chain:   chain.New(*chainBaseURL, chain.WithProjectID(*chainProject)),
		Logger:  log,
		Metrics: metrics,
	})

	pipeline := analyzer.New(analyzer.Options{
		Gateway: gw,
		Tokens:  st.tokens,
		Holders: st.holders,
		Tickers: st.tickers,
		History: st.history,
		Logger:  log,
		Metrics: metrics,
	})

	var dispatcher alert.Dispatcher = alert.NewLogDispatcher(log)
	if *webhookURL != "" {
		dispatcher = alert.NewWebhookDispatcher(*webhookURL)
	}

	mon := monitor.New(monitor.Options{
		Feed:       gw,
		Analyzer:   pipeline,
		Tokens:     st.tokens,
		Dispatcher: dispatcher,
		Config: monitor.Config{
			Interval:            *interval,
			MaxAnalysesPerCycle: *maxAnalyses,
			Denylist:            splitList(*denylist),
		},
		Logger:  log,
		Metrics: metrics,
	})

	srv := server.New(server.Config{
		Port:       *port,
		Pipeline:   pipeline,
		Monitor:    mon,
		Tokens:     st.tokens,
		History:    st.history,
		Gateway:    gw,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Log:        log,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if err := mon.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("monitor start failed")
	}
	log.Info().Int("port", *port).Dur("interval", *interval).Msg("tokenwatch running")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
	}

	mon.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}

// createStores wires the storage backends. The ClickHouse DSN, when set,
// replaces the relational analysis history with the analytics mirror.
func createStores(ctx context.Context, log zerolog.Logger, postgresDSN, clickhouseDSN string, useMemory bool) (*stores, func(), error) {
	if useMemory {
		return &stores{
			tokens:  memory.NewTokenStore(),
			holders: memory.NewHolderStore(),
			tickers: memory.NewTickerMappingStore(),
			history: memory.NewAnalysisHistoryStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	st := &stores{
		tokens:  pgstore.NewTokenStore(pool),
		holders: pgstore.NewHolderStore(pool),
		tickers: pgstore.NewTickerMappingStore(pool),
		history: pgstore.NewAnalysisHistoryStore(pool),
	}
	cleanup := func() { pool.Close() }

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		st.history = chstore.NewAnalysisHistoryStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
		log.Info().Msg("analysis history backed by clickhouse")
	}

	return st, cleanup, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		var v int
		if _, err := fmt.Sscanf(raw, "%d", &v); err == nil {
			return v
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return fallback
}
