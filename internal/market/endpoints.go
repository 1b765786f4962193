package market

import (
	"context"
	"net/url"
	"time"

	"tokenwatch/internal/domain"
)

// TopVolumeTokens returns the top tokens by trading volume over timeframe.
func (c *Client) TopVolumeTokens(ctx context.Context, timeframe string, limit int) ([]*domain.TokenListing, error) {
	if timeframe == "" {
		timeframe = DefaultTimeframe
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	q := url.Values{}
	q.Set("timeframe", timeframe)
	q.Set("perPage", intParam(limit))

	var wire []wireListing
	if err := c.get(ctx, "/token/top/volume", q, &wire); err != nil {
		return nil, err
	}

	listings := make([]*domain.TokenListing, 0, len(wire))
	for _, w := range wire {
		if w.Unit == "" {
			continue
		}
		listings = append(listings, w.toDomain(domain.SourceTopVolume))
	}
	return listings, nil
}

// TopMarketCapTokens returns one page of tokens ranked by market cap.
// Pages are 1-based.
func (c *Client) TopMarketCapTokens(ctx context.Context, page, perPage int) ([]*domain.TokenListing, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPageSize
	}

	q := url.Values{}
	q.Set("page", intParam(page))
	q.Set("perPage", intParam(perPage))

	var wire []wireListing
	if err := c.get(ctx, "/token/top/mcap", q, &wire); err != nil {
		return nil, err
	}

	listings := make([]*domain.TokenListing, 0, len(wire))
	for _, w := range wire {
		if w.Unit == "" {
			continue
		}
		listings = append(listings, w.toDomain(domain.SourceMarketCap))
	}
	return listings, nil
}

// TopHolders returns the provider-ranked top holders for a unit, already
// aggregated at stake level by the provider.
func (c *Client) TopHolders(ctx context.Context, unit string, limit int) ([]*domain.HolderRecord, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	q := url.Values{}
	q.Set("unit", unit)
	q.Set("perPage", intParam(limit))

	var wire []wireHolder
	if err := c.get(ctx, "/token/holders/top", q, &wire); err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	holders := make([]*domain.HolderRecord, 0, len(wire))
	for _, w := range wire {
		stake := w.stake()
		if stake == "" {
			continue
		}
		holders = append(holders, &domain.HolderRecord{
			Unit:         unit,
			StakeAddress: stake,
			Quantity:     w.quantity(),
			SnapshotAt:   now,
		})
	}
	return holders, nil
}

// LiquidityPools returns the liquidity pools for a unit.
func (c *Client) LiquidityPools(ctx context.Context, unit string) ([]*domain.LiquidityPool, error) {
	q := url.Values{}
	q.Set("unit", unit)

	var wire []wirePool
	if err := c.get(ctx, "/token/pools", q, &wire); err != nil {
		return nil, err
	}

	pools := make([]*domain.LiquidityPool, 0, len(wire))
	for _, w := range wire {
		pools = append(pools, &domain.LiquidityPool{
			Unit:        unit,
			Exchange:    w.Exchange,
			LockedToken: w.TokenLocked,
			LockedQuote: w.QuoteLocked,
		})
	}
	return pools, nil
}

// MarketCapSummary returns price and supply figures for a unit.
func (c *Client) MarketCapSummary(ctx context.Context, unit string) (*domain.MarketCapSummary, error) {
	q := url.Values{}
	q.Set("unit", unit)

	var wire wireMcap
	if err := c.get(ctx, "/token/mcap", q, &wire); err != nil {
		return nil, err
	}

	return &domain.MarketCapSummary{
		Unit:              unit,
		Price:             wire.Price,
		MarketCap:         wire.Mcap,
		CirculatingSupply: wire.CircSupply,
		TotalSupply:       wire.TotalSupply,
	}, nil
}

// SocialLinks returns the social links registered for a unit.
func (c *Client) SocialLinks(ctx context.Context, unit string) (*domain.SocialLinks, error) {
	q := url.Values{}
	q.Set("unit", unit)

	var wire wireLinks
	if err := c.get(ctx, "/token/links", q, &wire); err != nil {
		return nil, err
	}

	return &domain.SocialLinks{
		Website:  wire.Website,
		Twitter:  wire.Twitter,
		Discord:  wire.Discord,
		Telegram: wire.Telegram,
	}, nil
}

// Trades returns recent trades for a unit within timeframe, newest first.
func (c *Client) Trades(ctx context.Context, unit, timeframe string, limit int) ([]*domain.TokenTrade, error) {
	if timeframe == "" {
		timeframe = DefaultTimeframe
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	q := url.Values{}
	q.Set("unit", unit)
	q.Set("timeframe", timeframe)
	q.Set("perPage", intParam(limit))

	var wire []wireTrade
	if err := c.get(ctx, "/token/trades", q, &wire); err != nil {
		return nil, err
	}

	trades := make([]*domain.TokenTrade, 0, len(wire))
	for _, w := range wire {
		trades = append(trades, w.toDomain(unit))
	}
	return trades, nil
}

// PortfolioPositions returns the number of distinct token positions held
// at an address. Used as the diversity signal for cluster deep dives.
func (c *Client) PortfolioPositions(ctx context.Context, address string) (int, error) {
	q := url.Values{}
	q.Set("address", address)

	var wire wirePortfolio
	if err := c.get(ctx, "/wallet/portfolio/positions", q, &wire); err != nil {
		return 0, err
	}
	if wire.NumPositions > 0 {
		return wire.NumPositions, nil
	}
	return len(wire.Positions), nil
}
