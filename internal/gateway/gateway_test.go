package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tokenwatch/internal/chain"
	"tokenwatch/internal/domain"
)

// fakeMarket counts calls and can be switched to fail everything.
type fakeMarket struct {
	mu     sync.Mutex
	calls  map[string]int
	fail   bool
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{calls: make(map[string]int)}
}

func (f *fakeMarket) count(endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[endpoint]++
	if f.fail {
		return errors.New("upstream down")
	}
	return nil
}

func (f *fakeMarket) callCount(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func (f *fakeMarket) TopVolumeTokens(ctx context.Context, timeframe string, limit int) ([]*domain.TokenListing, error) {
	if err := f.count("volume"); err != nil {
		return nil, err
	}
	return []*domain.TokenListing{{Unit: "unitA", Ticker: "AAA", Source: domain.SourceTopVolume}}, nil
}

func (f *fakeMarket) TopMarketCapTokens(ctx context.Context, page, perPage int) ([]*domain.TokenListing, error) {
	if err := f.count("mcap_list"); err != nil {
		return nil, err
	}
	return []*domain.TokenListing{{Unit: "unitB", Ticker: "BBB", Source: domain.SourceMarketCap}}, nil
}

func (f *fakeMarket) TopHolders(ctx context.Context, unit string, limit int) ([]*domain.HolderRecord, error) {
	if err := f.count("holders"); err != nil {
		return nil, err
	}
	return []*domain.HolderRecord{{Unit: unit, StakeAddress: "stake1aaa", Quantity: 100}}, nil
}

func (f *fakeMarket) LiquidityPools(ctx context.Context, unit string) ([]*domain.LiquidityPool, error) {
	if err := f.count("pools"); err != nil {
		return nil, err
	}
	return []*domain.LiquidityPool{{Unit: unit, Exchange: "dexA", LockedQuote: 50000}}, nil
}

func (f *fakeMarket) MarketCapSummary(ctx context.Context, unit string) (*domain.MarketCapSummary, error) {
	if err := f.count("mcap"); err != nil {
		return nil, err
	}
	return &domain.MarketCapSummary{Unit: unit, CirculatingSupply: 1000}, nil
}

func (f *fakeMarket) SocialLinks(ctx context.Context, unit string) (*domain.SocialLinks, error) {
	if err := f.count("links"); err != nil {
		return nil, err
	}
	return &domain.SocialLinks{Twitter: "https://x.com/token"}, nil
}

func (f *fakeMarket) Trades(ctx context.Context, unit, timeframe string, limit int) ([]*domain.TokenTrade, error) {
	if err := f.count("trades"); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeMarket) PortfolioPositions(ctx context.Context, address string) (int, error) {
	if err := f.count("portfolio"); err != nil {
		return 0, err
	}
	return 7, nil
}

type fakeChain struct {
	addresses []string
	assets    []chain.Asset
	fail      bool
}

func (f *fakeChain) StakeAddresses(ctx context.Context, stake string) ([]string, error) {
	if f.fail {
		return nil, errors.New("chain down")
	}
	return f.addresses, nil
}

func (f *fakeChain) AddressAssets(ctx context.Context, address string) ([]chain.Asset, error) {
	if f.fail {
		return nil, errors.New("chain down")
	}
	return f.assets, nil
}

func newTestGateway(market MarketAPI, chainAPI ChainAPI, clock func() time.Time) *Gateway {
	return New(Options{
		Market: market,
		Chain:  chainAPI,
		Config: Config{MarketRate: 1000, MarketBurst: 1000, ChainRate: 1000, ChainBurst: 1000},
		Logger: zerolog.Nop(),
		Clock:  clock,
	})
}

func TestGateway_TopHoldersCached(t *testing.T) {
	market := newFakeMarket()
	g := newTestGateway(market, &fakeChain{}, nil)
	ctx := context.Background()

	first := g.TopHolders(ctx, "unitA")
	if len(first) != 1 {
		t.Fatalf("expected 1 holder, got %d", len(first))
	}
	second := g.TopHolders(ctx, "unitA")
	if len(second) != 1 {
		t.Fatalf("expected cached holder, got %d", len(second))
	}
	if market.callCount("holders") != 1 {
		t.Errorf("expected 1 upstream call, got %d", market.callCount("holders"))
	}

	// Different unit is a different cache key.
	g.TopHolders(ctx, "unitB")
	if market.callCount("holders") != 2 {
		t.Errorf("expected 2 upstream calls, got %d", market.callCount("holders"))
	}
}

func TestGateway_ExpiredEntryRefetchedOnce(t *testing.T) {
	now := time.Unix(1700000000, 0)
	market := newFakeMarket()
	g := newTestGateway(market, &fakeChain{}, func() time.Time { return now })
	ctx := context.Background()

	g.TopVolumeTokens(ctx)
	g.TopVolumeTokens(ctx)
	if market.callCount("volume") != 1 {
		t.Fatalf("expected 1 upstream call, got %d", market.callCount("volume"))
	}

	now = now.Add(VolumeListTTL + time.Second)
	g.TopVolumeTokens(ctx)
	g.TopVolumeTokens(ctx)
	if market.callCount("volume") != 2 {
		t.Errorf("expected exactly one refetch after TTL, got %d calls", market.callCount("volume"))
	}
}

func TestGateway_FailureDegradesToNil(t *testing.T) {
	market := newFakeMarket()
	market.fail = true
	g := newTestGateway(market, &fakeChain{fail: true}, nil)
	ctx := context.Background()

	if got := g.TopHolders(ctx, "unitA"); got != nil {
		t.Errorf("expected nil holders, got %v", got)
	}
	if got := g.LiquidityPools(ctx, "unitA"); got != nil {
		t.Errorf("expected nil pools, got %v", got)
	}
	if got := g.MarketCapSummary(ctx, "unitA"); got != nil {
		t.Errorf("expected nil summary, got %v", got)
	}
	if got := g.SocialLinks(ctx, "unitA"); got != nil {
		t.Errorf("expected nil links, got %v", got)
	}
	if got := g.ResolveHandle(ctx, "stake1aaa"); got != "" {
		t.Errorf("expected empty handle, got %q", got)
	}

	// Failed loads are not cached: next call hits upstream again.
	market.fail = false
	if got := g.TopHolders(ctx, "unitA"); len(got) != 1 {
		t.Errorf("expected recovery after upstream heals, got %v", got)
	}
}

func TestGateway_LedgerCountsCalls(t *testing.T) {
	market := newFakeMarket()
	g := newTestGateway(market, &fakeChain{}, nil)
	ctx := context.Background()

	g.TopHolders(ctx, "unitA")
	g.TopHolders(ctx, "unitA") // cache hit, no ledger entry
	g.LiquidityPools(ctx, "unitA")
	g.MarketCapSummary(ctx, "unitA")

	stats := g.CallStats()
	if stats.TotalCalls != 3 {
		t.Errorf("expected 3 recorded calls, got %d", stats.TotalCalls)
	}
	if len(stats.TopEndpoints) != 3 {
		t.Errorf("expected 3 endpoints, got %d", len(stats.TopEndpoints))
	}
}

func TestGateway_ResolveHandle(t *testing.T) {
	handleUnit := chain.HandlePolicyID + "7768616c65" // "whale" in hex

	chainAPI := &fakeChain{
		addresses: []string{"addr1xxx"},
		assets:    []chain.Asset{{Unit: handleUnit, Quantity: "1"}},
	}
	g := newTestGateway(newFakeMarket(), chainAPI, nil)

	if got := g.ResolveHandle(context.Background(), "stake1aaa"); got != "$whale" {
		t.Errorf("expected $whale, got %q", got)
	}
}
