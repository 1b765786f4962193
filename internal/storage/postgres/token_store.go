package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Upsert inserts or updates a token by unit. first_seen_at is preserved
// on update.
func (s *TokenStore) Upsert(ctx context.Context, t *domain.Token) error {
	if t == nil || t.Unit == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tokens (
			unit, ticker, name, price, volume_24h, market_cap,
			circulating_supply, total_supply, risk_score, top_holder_pct,
			liquidity_pools, website, twitter, discord, telegram,
			source, first_seen_at, updated_at, analyzed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19
		)
		ON CONFLICT (unit) DO UPDATE SET
			ticker = EXCLUDED.ticker,
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			volume_24h = EXCLUDED.volume_24h,
			market_cap = EXCLUDED.market_cap,
			circulating_supply = EXCLUDED.circulating_supply,
			total_supply = EXCLUDED.total_supply,
			risk_score = EXCLUDED.risk_score,
			top_holder_pct = EXCLUDED.top_holder_pct,
			liquidity_pools = EXCLUDED.liquidity_pools,
			website = EXCLUDED.website,
			twitter = EXCLUDED.twitter,
			discord = EXCLUDED.discord,
			telegram = EXCLUDED.telegram,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at,
			analyzed_at = GREATEST(tokens.analyzed_at, EXCLUDED.analyzed_at)
	`

	_, err := s.pool.Exec(ctx, query,
		t.Unit,
		t.Ticker,
		t.Name,
		t.Price,
		t.Volume24h,
		t.MarketCap,
		t.CirculatingSupply,
		t.TotalSupply,
		t.RiskScore,
		t.TopHolderPct,
		t.LiquidityPools,
		t.Socials.Website,
		t.Socials.Twitter,
		t.Socials.Discord,
		t.Socials.Telegram,
		string(t.Source),
		t.FirstSeenAt,
		t.UpdatedAt,
		t.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// GetByUnit retrieves a token by unit. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByUnit(ctx context.Context, unit string) (*domain.Token, error) {
	query := tokenSelect + ` WHERE unit = $1`

	row := s.pool.QueryRow(ctx, query, unit)
	t, err := scanToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by unit: %w", err)
	}
	return t, nil
}

// ListUnits returns every known unit.
func (s *TokenStore) ListUnits(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT unit FROM tokens ORDER BY unit`)
	if err != nil {
		return nil, fmt.Errorf("list token units: %w", err)
	}
	defer rows.Close()

	var units []string
	for rows.Next() {
		var unit string
		if err := rows.Scan(&unit); err != nil {
			return nil, fmt.Errorf("scan token unit: %w", err)
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token units: %w", err)
	}
	return units, nil
}

// ListSuspicious returns analyzed tokens with risk score >= minScore,
// highest score first.
func (s *TokenStore) ListSuspicious(ctx context.Context, minScore, limit int) ([]*domain.Token, error) {
	if limit <= 0 {
		limit = 50
	}

	query := tokenSelect + `
		WHERE risk_score >= $1 AND analyzed_at > 0
		ORDER BY risk_score DESC, unit
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("list suspicious tokens: %w", err)
	}
	defer rows.Close()

	var result []*domain.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suspicious tokens: %w", err)
	}
	return result, nil
}

const tokenSelect = `
	SELECT unit, ticker, name, price, volume_24h, market_cap,
		circulating_supply, total_supply, risk_score, top_holder_pct,
		liquidity_pools, website, twitter, discord, telegram,
		source, first_seen_at, updated_at, analyzed_at
	FROM tokens
`

// scanToken scans a single row into a Token.
func scanToken(row pgx.Row) (*domain.Token, error) {
	var t domain.Token
	var source string

	err := row.Scan(
		&t.Unit,
		&t.Ticker,
		&t.Name,
		&t.Price,
		&t.Volume24h,
		&t.MarketCap,
		&t.CirculatingSupply,
		&t.TotalSupply,
		&t.RiskScore,
		&t.TopHolderPct,
		&t.LiquidityPools,
		&t.Socials.Website,
		&t.Socials.Twitter,
		&t.Socials.Discord,
		&t.Socials.Telegram,
		&source,
		&t.FirstSeenAt,
		&t.UpdatedAt,
		&t.AnalyzedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Source = domain.Source(source)
	return &t, nil
}
