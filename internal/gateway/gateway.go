// Package gateway provides the rate-tracked, cached client for the two
// upstream read APIs. It owns the per-resource TTL caches, the per-API
// rate limiters and circuit breakers, and the call-count ledger. Upstream
// failures never propagate past this boundary: every accessor degrades to
// nil or empty and logs, so callers only ever handle absence.
package gateway

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"tokenwatch/internal/cache"
	"tokenwatch/internal/chain"
	"tokenwatch/internal/domain"
	"tokenwatch/internal/observability"
)

// MarketAPI is the market/holder-data upstream consumed by the Gateway.
// *market.Client satisfies it.
type MarketAPI interface {
	TopVolumeTokens(ctx context.Context, timeframe string, limit int) ([]*domain.TokenListing, error)
	TopMarketCapTokens(ctx context.Context, page, perPage int) ([]*domain.TokenListing, error)
	TopHolders(ctx context.Context, unit string, limit int) ([]*domain.HolderRecord, error)
	LiquidityPools(ctx context.Context, unit string) ([]*domain.LiquidityPool, error)
	MarketCapSummary(ctx context.Context, unit string) (*domain.MarketCapSummary, error)
	SocialLinks(ctx context.Context, unit string) (*domain.SocialLinks, error)
	Trades(ctx context.Context, unit, timeframe string, limit int) ([]*domain.TokenTrade, error)
	PortfolioPositions(ctx context.Context, address string) (int, error)
}

// ChainAPI is the blockchain-indexing upstream consumed by the Gateway.
// *chain.Client satisfies it.
type ChainAPI interface {
	StakeAddresses(ctx context.Context, stake string) ([]string, error)
	AddressAssets(ctx context.Context, address string) ([]chain.Asset, error)
}

// Per-resource cache TTLs.
const (
	HolderTTL     = 15 * time.Minute
	LiquidityTTL  = 60 * time.Minute
	MarketCapTTL  = 30 * time.Minute
	VolumeListTTL = 10 * time.Minute
)

// Config holds Gateway tunables.
type Config struct {
	Timeframe   string  // market list/trade timeframe
	HolderLimit int     // holders fetched per unit
	TradeLimit  int     // trades fetched per unit
	ListLimit   int     // top-volume list size
	MarketRate  float64 // market API requests per second
	MarketBurst int
	ChainRate   float64 // indexing API requests per second
	ChainBurst  int
}

// DefaultConfig returns production defaults. Rates are deliberately
// conservative; politeness is a property of the Gateway, not of callers.
func DefaultConfig() Config {
	return Config{
		Timeframe:   "24h",
		HolderLimit: 100,
		TradeLimit:  100,
		ListLimit:   50,
		MarketRate:  2,
		MarketBurst: 4,
		ChainRate:   5,
		ChainBurst:  10,
	}
}

// Options for creating a Gateway.
type Options struct {
	Market  MarketAPI
	Chain   ChainAPI
	Config  Config
	Logger  zerolog.Logger
	Metrics *observability.Metrics // optional
	Clock   func() time.Time       // optional, for deterministic tests
}

// Gateway fronts both upstream APIs. One instance per process; owns all
// shared mutable state (caches, ledger) so no package-level globals exist.
type Gateway struct {
	market MarketAPI
	chain  ChainAPI
	cfg    Config

	holdersCache   *cache.Cache[[]*domain.HolderRecord]
	liquidityCache *cache.Cache[[]*domain.LiquidityPool]
	mcapCache      *cache.Cache[*domain.MarketCapSummary]
	volumeCache    *cache.Cache[[]*domain.TokenListing]

	marketLimiter *rate.Limiter
	chainLimiter  *rate.Limiter
	marketBreaker *gobreaker.CircuitBreaker
	chainBreaker  *gobreaker.CircuitBreaker

	ledger  *CallLedger
	metrics *observability.Metrics
	log     zerolog.Logger
}

// New creates a Gateway.
func New(opts Options) *Gateway {
	cfg := opts.Config
	defaults := DefaultConfig()
	if cfg.Timeframe == "" {
		cfg.Timeframe = defaults.Timeframe
	}
	if cfg.HolderLimit <= 0 {
		cfg.HolderLimit = defaults.HolderLimit
	}
	if cfg.TradeLimit <= 0 {
		cfg.TradeLimit = defaults.TradeLimit
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = defaults.ListLimit
	}
	if cfg.MarketRate <= 0 {
		cfg.MarketRate = defaults.MarketRate
	}
	if cfg.MarketBurst <= 0 {
		cfg.MarketBurst = defaults.MarketBurst
	}
	if cfg.ChainRate <= 0 {
		cfg.ChainRate = defaults.ChainRate
	}
	if cfg.ChainBurst <= 0 {
		cfg.ChainBurst = defaults.ChainBurst
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Gateway{
		market: opts.Market,
		chain:  opts.Chain,
		cfg:    cfg,

		holdersCache:   cache.New(HolderTTL, cache.WithClock[[]*domain.HolderRecord](clock)),
		liquidityCache: cache.New(LiquidityTTL, cache.WithClock[[]*domain.LiquidityPool](clock)),
		mcapCache:      cache.New(MarketCapTTL, cache.WithClock[*domain.MarketCapSummary](clock)),
		volumeCache:    cache.New(VolumeListTTL, cache.WithClock[[]*domain.TokenListing](clock)),

		marketLimiter: rate.NewLimiter(rate.Limit(cfg.MarketRate), cfg.MarketBurst),
		chainLimiter:  rate.NewLimiter(rate.Limit(cfg.ChainRate), cfg.ChainBurst),
		marketBreaker: newBreaker("market"),
		chainBreaker:  newBreaker("chain"),

		ledger:  NewCallLedger(clock),
		metrics: opts.Metrics,
		log:     opts.Logger.With().Str("component", "gateway").Logger(),
	}
}

// newBreaker builds a per-upstream circuit breaker. Five consecutive
// failures open it for a minute; a tripped breaker reads as upstream
// unavailable, which callers already degrade on.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// CallStats returns a snapshot of the upstream call ledger.
func (g *Gateway) CallStats() CallStats {
	return g.ledger.Stats()
}

// call runs one upstream call through the limiter, breaker, ledger and
// metrics. Generic because Go methods cannot carry type parameters.
func call[T any](ctx context.Context, g *Gateway, limiter *rate.Limiter, breaker *gobreaker.CircuitBreaker, endpoint string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := limiter.Wait(ctx); err != nil {
		return zero, err
	}

	g.ledger.Record(endpoint)
	if g.metrics != nil {
		g.metrics.UpstreamCalls.WithLabelValues(endpoint).Inc()
	}

	start := time.Now()
	res, err := breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if g.metrics != nil {
		g.metrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if g.metrics != nil {
			g.metrics.UpstreamErrors.WithLabelValues(endpoint).Inc()
		}
		return zero, err
	}
	return res.(T), nil
}

func (g *Gateway) degrade(endpoint string, err error) {
	g.log.Warn().Err(err).Str("endpoint", endpoint).Msg("upstream call failed, degrading to empty")
}

func (g *Gateway) cacheCount(resource string, hit bool) {
	if g.metrics == nil {
		return
	}
	if hit {
		g.metrics.CacheHits.WithLabelValues(resource).Inc()
	} else {
		g.metrics.CacheMisses.WithLabelValues(resource).Inc()
	}
}

// TopVolumeTokens returns the top tokens by volume, cached 10 minutes.
// Returns nil on upstream failure.
func (g *Gateway) TopVolumeTokens(ctx context.Context) []*domain.TokenListing {
	key := "volume:" + g.cfg.Timeframe
	if v, ok := g.volumeCache.Get(key); ok {
		g.cacheCount("top_volume", true)
		return v
	}
	g.cacheCount("top_volume", false)

	listings, err := call(ctx, g, g.marketLimiter, g.marketBreaker, "token/top/volume", func(ctx context.Context) ([]*domain.TokenListing, error) {
		return g.market.TopVolumeTokens(ctx, g.cfg.Timeframe, g.cfg.ListLimit)
	})
	if err != nil {
		g.degrade("token/top/volume", err)
		return nil
	}
	g.volumeCache.Set(key, listings)
	return listings
}

// TopMarketCapTokens returns one page of the market-cap ranking. Not
// cached: page walks are infrequent and always want fresh ordering.
func (g *Gateway) TopMarketCapTokens(ctx context.Context, page, perPage int) []*domain.TokenListing {
	listings, err := call(ctx, g, g.marketLimiter, g.marketBreaker, "token/top/mcap", func(ctx context.Context) ([]*domain.TokenListing, error) {
		return g.market.TopMarketCapTokens(ctx, page, perPage)
	})
	if err != nil {
		g.degrade("token/top/mcap", err)
		return nil
	}
	return listings
}

// TopHolders returns the ranked top holders for a unit, cached 15 minutes.
func (g *Gateway) TopHolders(ctx context.Context, unit string) []*domain.HolderRecord {
	if v, ok := g.holdersCache.Get(unit); ok {
		g.cacheCount("holders", true)
		return v
	}
	g.cacheCount("holders", false)

	holders, err := call(ctx, g, g.marketLimiter, g.marketBreaker, "token/holders/top", func(ctx context.Context) ([]*domain.HolderRecord, error) {
		return g.market.TopHolders(ctx, unit, g.cfg.HolderLimit)
	})
	if err != nil {
		g.degrade("token/holders/top", err)
		return nil
	}
	g.holdersCache.Set(unit, holders)
	return holders
}

// LiquidityPools returns a unit's pools, cached 60 minutes.
func (g *Gateway) LiquidityPools(ctx context.Context, unit string) []*domain.LiquidityPool {
	if v, ok := g.liquidityCache.Get(unit); ok {
		g.cacheCount("liquidity", true)
		return v
	}
	g.cacheCount("liquidity", false)

	pools, err := call(ctx, g, g.marketLimiter, g.marketBreaker, "token/pools", func(ctx context.Context) ([]*domain.LiquidityPool, error) {
		return g.market.LiquidityPools(ctx, unit)
	})
	if err != nil {
		g.degrade("token/pools", err)
		return nil
	}
	g.liquidityCache.Set(unit, pools)
	return pools
}

// MarketCapSummary returns supply/price figures, cached 30 minutes.
func (g *Gateway) MarketCapSummary(ctx context.Context, unit string) *domain.MarketCapSummary {
	if v, ok := g.mcapCache.Get(unit); ok {
		g.cacheCount("mcap", true)
		return v
	}
	g.cacheCount("mcap", false)

	summary, err := call(ctx, g, g.marketLimiter, g.marketBreaker, "token/mcap", func(ctx context.Context) (*domain.MarketCapSummary, error) {
		return g.market.MarketCapSummary(ctx, unit)
	})
	if err != nil {
		g.degrade("token/mcap", err)
		return nil
	}
	g.mcapCache.Set(unit, summary)
	return summary
}

// SocialLinks returns a unit's social links, nil on failure.
func (g *Gateway) SocialLinks(ctx context.Context, unit string) *domain.SocialLinks {
	links, err := call(ctx, g, g.marketLimiter, g.marketBreaker, "token/links", func(ctx context.Context) (*domain.SocialLinks, error) {
		return g.market.SocialLinks(ctx, unit)
	})
	if err != nil {
		g.degrade("token/links", err)
		return nil
	}
	return links
}

// Trades returns recent trades for a unit, nil on failure.
func (g *Gateway) Trades(ctx context.Context, unit string) []*domain.TokenTrade {
	trades, err := call(ctx, g, g.marketLimiter, g.marketBreaker, "token/trades", func(ctx context.Context) ([]*domain.TokenTrade, error) {
		return g.market.Trades(ctx, unit, g.cfg.Timeframe, g.cfg.TradeLimit)
	})
	if err != nil {
		g.degrade("token/trades", err)
		return nil
	}
	return trades
}

// PortfolioPositions returns the distinct-position count for an address,
// zero on failure.
func (g *Gateway) PortfolioPositions(ctx context.Context, address string) int {
	n, err := call(ctx, g, g.marketLimiter, g.marketBreaker, "wallet/portfolio", func(ctx context.Context) (int, error) {
		return g.market.PortfolioPositions(ctx, address)
	})
	if err != nil {
		g.degrade("wallet/portfolio", err)
		return 0
	}
	return n
}

// StakeAddresses returns the payment addresses under a stake identity,
// nil on failure.
func (g *Gateway) StakeAddresses(ctx context.Context, stake string) []string {
	addrs, err := call(ctx, g, g.chainLimiter, g.chainBreaker, "accounts/addresses", func(ctx context.Context) ([]string, error) {
		return g.chain.StakeAddresses(ctx, stake)
	})
	if err != nil {
		g.degrade("accounts/addresses", err)
		return nil
	}
	return addrs
}

// ResolveHandle resolves the naming handle for a stake identity by
// scanning its first payment address for a handle asset. Returns "" when
// the stake has no handle or any lookup fails.
func (g *Gateway) ResolveHandle(ctx context.Context, stake string) string {
	addrs := g.StakeAddresses(ctx, stake)
	if len(addrs) == 0 {
		return ""
	}

	assets, err := call(ctx, g, g.chainLimiter, g.chainBreaker, "addresses/assets", func(ctx context.Context) ([]chain.Asset, error) {
		return g.chain.AddressAssets(ctx, addrs[0])
	})
	if err != nil {
		g.degrade("addresses/assets", err)
		return ""
	}
	return chain.HandleFromAssets(assets)
}
