package domain

// StakeCluster groups holder records sharing one stake identity, plus the
// connected payment addresses resolved for it.
//
// Precondition: the input holder set is already aggregated at stake level
// by the upstream holder API. Grouping collapses duplicate stake entries
// if a future provider returns raw payment addresses; a provider change
// that breaks this shows up as clusters with unexpected member counts,
// not as silent miscounting.
type StakeCluster struct {
	StakeAddress string
	Members      []*HolderRecord
	CombinedPct  float64
	Connected    []string // resolved payment addresses, deep dive only
	TradeCount   int      // trades in the lookback window, deep dive only
	Diversity    int      // distinct tokens in portfolio, deep dive only
	IsSuspicious bool     // >1 member or single member above 3%
	IsHighRisk   bool     // deep dive verdict
	RiskReasons  []string
}

// MemberCount returns the number of holders in the cluster.
func (c *StakeCluster) MemberCount() int {
	return len(c.Members)
}

// ClusterSummary is the cluster analyzer output for one token.
type ClusterSummary struct {
	Clusters        []*StakeCluster // sorted by combined percentage descending
	Above3Pct       int
	Above5Pct       int
	Above10Pct      int
	SuspiciousCount int
	HighRiskCount   int
}
