// Package holders turns a raw top-holder list into ranked,
// percentage-annotated holdings and concentration aggregates, filtering
// out entries that are almost certainly liquidity pools.
package holders

import (
	"sort"

	"tokenwatch/internal/domain"
)

// Classification thresholds, in percent of circulating supply.
//
// A non-pool, non-exchange individual rarely legitimately holds more than
// 10% of a live token without being a custodial or AMM address, so
// anything above PoolThresholdPct is excluded from concentration math.
const (
	PoolThresholdPct  = 10.0
	WhaleThresholdPct = 3.0
	MajorThresholdPct = 1.0
)

// Analysis is the analyzer output for one token.
type Analysis struct {
	// Holders is the post-filter set, sorted by quantity descending with
	// contiguous 1-based ranks.
	Holders []*domain.HolderRecord
	// Pools are the excluded presumed-pool entries, retained for display.
	Pools   []*domain.HolderRecord
	Summary domain.HolderSummary
}

// Analyze annotates and aggregates a raw holder list. A supplied positive
// circulating supply is authoritative since it reflects non-observed
// supply too; otherwise the observed total is used. Never errors: an
// empty list or zero supply yields zero aggregates.
func Analyze(raw []*domain.HolderRecord, circulatingSupply float64) *Analysis {
	analysis := &Analysis{}

	if len(raw) == 0 {
		return analysis
	}

	var observed float64
	for _, h := range raw {
		observed += h.Quantity
	}

	supply := circulatingSupply
	supplyObserved := false
	if supply <= 0 {
		supply = observed
		supplyObserved = true
	}

	// Copy before sorting; callers keep their input.
	all := make([]*domain.HolderRecord, len(raw))
	for i, h := range raw {
		c := *h
		all[i] = &c
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Quantity != all[j].Quantity {
			return all[i].Quantity > all[j].Quantity
		}
		return all[i].StakeAddress < all[j].StakeAddress
	})

	for _, h := range all {
		if supply > 0 {
			h.Percentage = h.Quantity / supply * 100
		} else {
			h.Percentage = 0
		}
		h.IsPool = h.Percentage > PoolThresholdPct
	}

	for _, h := range all {
		if h.IsPool {
			analysis.Pools = append(analysis.Pools, h)
			continue
		}
		analysis.Holders = append(analysis.Holders, h)
	}

	rank := 0
	for _, h := range analysis.Holders {
		rank++
		h.Rank = rank
		h.IsWhale = h.Percentage > WhaleThresholdPct
		h.IsMajor = h.Percentage > MajorThresholdPct
	}

	analysis.Summary = summarize(analysis.Holders, len(analysis.Pools), supply, supplyObserved)
	return analysis
}

func summarize(filtered []*domain.HolderRecord, excludedPools int, supply float64, supplyObserved bool) domain.HolderSummary {
	s := domain.HolderSummary{
		ExcludedPoolCount: excludedPools,
		HolderCount:       len(filtered),
		CirculatingSupply: supply,
		SupplyObserved:    supplyObserved,
	}

	for i, h := range filtered {
		if i < 1 {
			s.Top1Pct += h.Percentage
		}
		if i < 5 {
			s.Top5Pct += h.Percentage
		}
		if i < 10 {
			s.Top10Pct += h.Percentage
		}
		if h.IsWhale {
			s.WhaleCount++
		}
		if h.IsMajor {
			s.MajorHolderCount++
		}
	}
	return s
}
