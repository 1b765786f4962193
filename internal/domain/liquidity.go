package domain

// LiquidityPool is one pool holding locked liquidity for a unit.
type LiquidityPool struct {
	Unit        string
	Exchange    string
	LockedToken float64 // token side of the pool
	LockedQuote float64 // quote-currency side of the pool
}

// LiquiditySummary aggregates a token's pools. A token with no reachable
// liquidity data is summarized as HasLiquidity=false; the scorer treats
// that identically to no liquidity existing.
type LiquiditySummary struct {
	HasLiquidity     bool
	PoolCount        int
	TotalLockedQuote float64
	Exchanges        []string
	IsLowLiquidity   bool
}
