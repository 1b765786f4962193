package domain

// HolderRecord represents one stake-level holder of one token.
// Derived fresh on each analysis run; the persisted set is the latest
// snapshot per (unit, stake_address).
type HolderRecord struct {
	Unit         string
	StakeAddress string  // stake-level identity from the holder API
	Quantity     float64 // raw on-chain quantity
	Percentage   float64 // of circulating supply
	Rank         int     // 1-based, contiguous after pool exclusion
	Handle       string  // resolved naming handle, empty if none
	IsPool       bool    // presumed liquidity pool, excluded from concentration math
	IsExchange   bool
	IsBurn       bool
	IsWhale      bool // >3% of supply
	IsMajor      bool // >1% of supply
	SnapshotAt   int64 // Unix timestamp in milliseconds
}

// HolderSummary aggregates the post-filter holder set.
type HolderSummary struct {
	Top1Pct           float64
	Top5Pct           float64
	Top10Pct          float64
	WhaleCount        int
	MajorHolderCount  int
	ExcludedPoolCount int
	HolderCount       int // size of the filtered set
	CirculatingSupply float64
	SupplyObserved    bool // true when supply was summed, not provided
}
