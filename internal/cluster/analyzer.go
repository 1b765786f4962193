// Package cluster groups holder records by stake identity and resolves
// each cluster's connected payment addresses for deeper signal.
//
// Precondition: the input is the post-pool-filter holder list and each
// entry carries a stake-level identity, because the upstream holder API
// aggregates by stake. Grouping is a no-op when every stake is unique but
// defends against providers that return duplicate stake entries.
package cluster

import (
	"sort"

	"tokenwatch/internal/domain"
)

// SuspicionThresholdPct marks a single-member cluster suspicious.
const SuspicionThresholdPct = 3.0

// Group partitions holders into stake clusters. Every input holder lands
// in exactly one cluster; clusters are sorted by combined percentage
// descending.
func Group(holders []*domain.HolderRecord) *domain.ClusterSummary {
	byStake := make(map[string]*domain.StakeCluster)
	var order []string

	for _, h := range holders {
		c, ok := byStake[h.StakeAddress]
		if !ok {
			c = &domain.StakeCluster{StakeAddress: h.StakeAddress}
			byStake[h.StakeAddress] = c
			order = append(order, h.StakeAddress)
		}
		c.Members = append(c.Members, h)
		c.CombinedPct += h.Percentage
	}

	clusters := make([]*domain.StakeCluster, 0, len(order))
	for _, stake := range order {
		c := byStake[stake]
		c.IsSuspicious = len(c.Members) > 1 || c.CombinedPct > SuspicionThresholdPct
		clusters = append(clusters, c)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].CombinedPct != clusters[j].CombinedPct {
			return clusters[i].CombinedPct > clusters[j].CombinedPct
		}
		return clusters[i].StakeAddress < clusters[j].StakeAddress
	})

	summary := &domain.ClusterSummary{Clusters: clusters}
	for _, c := range clusters {
		if c.CombinedPct > 3 {
			summary.Above3Pct++
		}
		if c.CombinedPct > 5 {
			summary.Above5Pct++
		}
		if c.CombinedPct > 10 {
			summary.Above10Pct++
		}
		if c.IsSuspicious {
			summary.SuspiciousCount++
		}
	}
	return summary
}
