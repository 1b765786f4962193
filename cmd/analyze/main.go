// Package main runs a one-off risk analysis for a single token and
// prints the report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"tokenwatch/internal/analyzer"
	"tokenwatch/internal/chain"
	"tokenwatch/internal/gateway"
	"tokenwatch/internal/market"
	"tokenwatch/internal/storage/memory"
)

func main() {
	_ = godotenv.Load()

	var (
		marketBaseURL = flag.String("market-base-url", os.Getenv("MARKET_BASE_URL"), "Market data API base URL")
		marketAPIKey  = flag.String("market-api-key", os.Getenv("MARKET_API_KEY"), "Market data API key")
		chainBaseURL  = flag.String("chain-base-url", os.Getenv("CHAIN_BASE_URL"), "Chain indexing API base URL")
		chainProject  = flag.String("chain-project-id", os.Getenv("CHAIN_PROJECT_ID"), "Chain indexing API project ID")
		gold          = flag.Bool("gold", false, "Run the gold-standard analysis")
		timeout       = flag.Duration("timeout", 5*time.Minute, "Overall analysis timeout")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	identifier := flag.Arg(0)
	if identifier == "" {
		log.Fatal().Msg("usage: analyze [flags] <unit-or-ticker>")
	}
	if *marketBaseURL == "" || *chainBaseURL == "" {
		log.Fatal().Msg("market and chain base URLs are required")
	}

	gw := gateway.New(gateway.Options{
		Market: market.New(*marketBaseURL, market.WithAPIKey(*marketAPIKey)),
		Chain:  chain.New(*chainBaseURL, chain.WithProjectID(*chainProject)),
		Logger: log,
	})

	// One-off runs keep results in memory; only the printed report matters.
	pipeline := analyzer.New(analyzer.Options{
		Gateway: gw,
		Tickers: memory.NewTickerMappingStore(),
		Logger:  log,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	run := pipeline.Analyze
	if *gold {
		run = pipeline.AnalyzeGold
	}

	report, err := run(ctx, identifier)
	if err != nil {
		log.Fatal().Err(err).Str("identifier", identifier).Msg("analysis failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal().Err(err).Msg("encode report failed")
	}
}
