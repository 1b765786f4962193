package cluster

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tokenwatch/internal/domain"
)

// MaxDeepDiveClusters bounds the per-token deep-dive budget.
const MaxDeepDiveClusters = 25

// Resolver supplies the upstream signals the deep dive needs. The
// Gateway satisfies it; every accessor degrades to empty on failure.
type Resolver interface {
	StakeAddresses(ctx context.Context, stake string) []string
	Trades(ctx context.Context, unit string) []*domain.TokenTrade
	PortfolioPositions(ctx context.Context, address string) int
}

// DeepDiver enriches the top clusters with connected-address, trade and
// portfolio signals and flags high-risk clusters.
type DeepDiver struct {
	resolver Resolver
	max      int
	log      zerolog.Logger
}

// NewDeepDiver creates a DeepDiver with the default budget.
func NewDeepDiver(resolver Resolver, log zerolog.Logger) *DeepDiver {
	return &DeepDiver{
		resolver: resolver,
		max:      MaxDeepDiveClusters,
		log:      log.With().Str("component", "deepdive").Logger(),
	}
}

// Enrich resolves signals for the top clusters of one unit, in place.
// Best-effort: missing upstream data simply contributes no flag.
func (d *DeepDiver) Enrich(ctx context.Context, unit string, summary *domain.ClusterSummary) {
	if summary == nil || len(summary.Clusters) == 0 {
		return
	}

	tradesByStake := countTradesByStake(d.resolver.Trades(ctx, unit))

	limit := d.max
	if limit > len(summary.Clusters) {
		limit = len(summary.Clusters)
	}

	for _, c := range summary.Clusters[:limit] {
		c.Connected = d.resolver.StakeAddresses(ctx, c.StakeAddress)
		c.TradeCount = tradesByStake[c.StakeAddress]
		if len(c.Connected) > 0 {
			c.Diversity = d.resolver.PortfolioPositions(ctx, c.Connected[0])
		}

		flagHighRisk(c)
		if c.IsHighRisk {
			summary.HighRiskCount++
			d.log.Debug().
				Str("stake", c.StakeAddress).
				Strs("reasons", c.RiskReasons).
				Msg("cluster flagged high risk")
		}
	}
}

// High-risk thresholds.
const (
	highRiskAddressCount = 10
	highRiskCombinedPct  = 25.0
	highRiskTradeCount   = 20
	highRiskMaxDiversity = 3
)

func flagHighRisk(c *domain.StakeCluster) {
	if len(c.Connected) > highRiskAddressCount {
		c.RiskReasons = append(c.RiskReasons, fmt.Sprintf("%d connected wallets", len(c.Connected)))
	}
	if c.CombinedPct > highRiskCombinedPct {
		c.RiskReasons = append(c.RiskReasons, fmt.Sprintf("controls %.1f%% of supply", c.CombinedPct))
	}
	if c.TradeCount > highRiskTradeCount {
		c.RiskReasons = append(c.RiskReasons, fmt.Sprintf("%d trades in window", c.TradeCount))
	}
	if c.Diversity > 0 && c.Diversity <= highRiskMaxDiversity {
		c.RiskReasons = append(c.RiskReasons, fmt.Sprintf("portfolio holds only %d tokens", c.Diversity))
	}
	c.IsHighRisk = len(c.RiskReasons) > 0
}

func countTradesByStake(trades []*domain.TokenTrade) map[string]int {
	counts := make(map[string]int, len(trades))
	for _, t := range trades {
		if t.StakeAddress != "" {
			counts[t.StakeAddress]++
		}
	}
	return counts
}
