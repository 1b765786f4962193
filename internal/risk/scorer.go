// Package risk combines concentration, clustering, liquidity and
// social-presence signals into a bounded, ordered risk score and verdict.
//
// Scoring is a pure function: deterministic given identical inputs and
// never erroring. Missing inputs are treated as their most conservative
// value, so a pipeline whose upstream phases all degraded still scores.
package risk

import (
	"fmt"

	"tokenwatch/internal/domain"
)

// Score bounds and thresholds.
const (
	MaxScore = 10

	topTierExtreme  = 50.0 // top-holder % above this adds 4
	topTierHigh     = 25.0 // above this adds 3
	topTierElevated = 10.0 // above this adds 2

	clusteredSupplyCount = 3 // clusters above 10% beyond this adds 2

	// LowLiquidityQuote is the locked-quote floor under which present
	// liquidity still scores as thin.
	LowLiquidityQuote = 10000.0
)

// Input carries the aggregate signals for one token. The zero value is
// the most conservative possible input.
type Input struct {
	TopHolderPct       float64
	ClustersAbove10Pct int
	HighRiskClusters   int

	// Liquidity is nil when the liquidity phase produced no data, which
	// scores identically to no liquidity existing.
	Liquidity *domain.LiquiditySummary

	// HasSocials is false both for "no links registered" and for "links
	// endpoint unreachable"; absence is scored conservatively either way.
	HasSocials bool
}

// Score produces the full assessment for an input.
func Score(in Input) *domain.RiskAssessment {
	score := 0
	var factors []string

	// Highest concentration tier wins; tiers are mutually exclusive.
	switch {
	case in.TopHolderPct > topTierExtreme:
		score += 4
		factors = append(factors, fmt.Sprintf("top holder controls %.1f%% of supply", in.TopHolderPct))
	case in.TopHolderPct > topTierHigh:
		score += 3
		factors = append(factors, fmt.Sprintf("top holder controls %.1f%% of supply", in.TopHolderPct))
	case in.TopHolderPct > topTierElevated:
		score += 2
		factors = append(factors, fmt.Sprintf("top holder controls %.1f%% of supply", in.TopHolderPct))
	}

	if in.ClustersAbove10Pct > clusteredSupplyCount {
		score += 2
		factors = append(factors, fmt.Sprintf("%d clusters each hold over 10%% of supply", in.ClustersAbove10Pct))
	}

	switch {
	case in.Liquidity == nil || !in.Liquidity.HasLiquidity:
		score += 3
		factors = append(factors, "no liquidity pool found")
	case in.Liquidity.IsLowLiquidity:
		score += 1
		factors = append(factors, fmt.Sprintf("thin liquidity (%.0f locked)", in.Liquidity.TotalLockedQuote))
	}

	if !in.HasSocials {
		score += 1
		factors = append(factors, "no social presence")
	}

	if in.HighRiskClusters > 0 {
		score += 2
		factors = append(factors, fmt.Sprintf("%d high-risk holder clusters", in.HighRiskClusters))
	}

	if score > MaxScore {
		score = MaxScore
	}

	verdict := VerdictFor(score)
	return &domain.RiskAssessment{
		Score:   score,
		Verdict: verdict,
		Quick:   QuickVerdictFor(score),
		Action:  actionFor(score),
		Factors: factors,
	}
}

// VerdictFor maps a score to the fine-grained verdict. Monotonically
// non-decreasing in score.
func VerdictFor(score int) domain.Verdict {
	switch {
	case score >= 8:
		return domain.VerdictExtreme
	case score >= 6:
		return domain.VerdictHigh
	case score >= 4:
		return domain.VerdictModerate
	case score >= 2:
		return domain.VerdictLow
	default:
		return domain.VerdictSafe
	}
}

// QuickVerdictFor is the coarser mapping used by the fast path.
func QuickVerdictFor(score int) domain.QuickVerdict {
	switch {
	case score <= 3:
		return domain.QuickSafe
	case score <= 6:
		return domain.QuickCaution
	default:
		return domain.QuickAvoid
	}
}

func actionFor(score int) domain.Action {
	switch {
	case score >= 8:
		return domain.ActionAvoid
	case score >= 4:
		return domain.ActionCaution
	default:
		return domain.ActionMonitor
	}
}
