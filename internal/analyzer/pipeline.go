// Package analyzer orchestrates the phased risk analysis of a single
// token: market data, holder concentration, stake clustering, liquidity
// and scoring, assembled into one report.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tokenwatch/internal/cluster"
	"tokenwatch/internal/domain"
	"tokenwatch/internal/holders"
	"tokenwatch/internal/observability"
	"tokenwatch/internal/risk"
	"tokenwatch/internal/storage"
)

// Phase names, in execution order.
const (
	PhaseBasicInfo        = "BASIC_INFO"
	PhaseHolderAnalysis   = "HOLDER_ANALYSIS"
	PhaseClusterAnalysis  = "CLUSTER_ANALYSIS"
	PhaseStakeDeepDive    = "STAKE_DEEP_DIVE"
	PhaseHandleResolution = "HANDLE_RESOLUTION"
	PhaseLiquidity        = "LIQUIDITY_ANALYSIS"
	PhaseRiskAssessment   = "RISK_ASSESSMENT"
	PhaseReport           = "REPORT"
)

// handleBudget caps how many top holders get a handle lookup per run.
const handleBudget = 10

// ErrUnresolvedToken is the only pipeline-fatal error: the identifier
// could not be mapped to a unit. Every other failure degrades the phase.
var ErrUnresolvedToken = errors.New("token identifier could not be resolved to a unit")

// Gateway supplies every upstream signal the pipeline consumes. All
// accessors degrade to zero values on failure; none of them errors.
type Gateway interface {
	cluster.Resolver

	TopVolumeTokens(ctx context.Context) []*domain.TokenListing
	TopHolders(ctx context.Context, unit string) []*domain.HolderRecord
	LiquidityPools(ctx context.Context, unit string) []*domain.LiquidityPool
	MarketCapSummary(ctx context.Context, unit string) *domain.MarketCapSummary
	SocialLinks(ctx context.Context, unit string) *domain.SocialLinks
	ResolveHandle(ctx context.Context, stake string) string
}

// Options configures an Analyzer. Gateway is required; stores are
// optional and skipped when nil, which keeps the pipeline usable for
// one-off lookups.
type Options struct {
	Gateway Gateway
	Tokens  storage.TokenStore
	Holders storage.HolderStore
	Tickers storage.TickerMappingStore
	History storage.AnalysisHistoryStore
	Logger  zerolog.Logger
	Metrics *observability.Metrics
	Clock   func() time.Time
}

// Analyzer runs the phased pipeline for one token at a time.
type Analyzer struct {
	gw      Gateway
	tokens  storage.TokenStore
	holders storage.HolderStore
	tickers storage.TickerMappingStore
	history storage.AnalysisHistoryStore
	diver   *cluster.DeepDiver
	log     zerolog.Logger
	metrics *observability.Metrics
	clock   func() time.Time
}

// New creates an Analyzer.
func New(opts Options) *Analyzer {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Analyzer{
		gw:      opts.Gateway,
		tokens:  opts.Tokens,
		holders: opts.Holders,
		tickers: opts.Tickers,
		history: opts.History,
		diver:   cluster.NewDeepDiver(opts.Gateway, opts.Logger),
		log:     opts.Logger,
		metrics: opts.Metrics,
		clock:   opts.Clock,
	}
}

// Analyze runs the deep pipeline for a unit or ticker.
func (a *Analyzer) Analyze(ctx context.Context, identifier string) (*domain.AnalysisReport, error) {
	return a.run(ctx, identifier, domain.ModeDeep)
}

// AnalyzeGold runs the deep pipeline plus the gold-standard enrichments.
func (a *Analyzer) AnalyzeGold(ctx context.Context, identifier string) (*domain.AnalysisReport, error) {
	return a.run(ctx, identifier, domain.ModeGold)
}

func (a *Analyzer) run(ctx context.Context, identifier string, mode domain.AnalysisMode) (*domain.AnalysisReport, error) {
	started := a.clock()

	unit, ticker, err := a.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	report := &domain.AnalysisReport{
		ReportID:    uuid.NewString(),
		Unit:        unit,
		Ticker:      ticker,
		Mode:        mode,
		GeneratedAt: started.UnixMilli(),
	}

	log := a.log.With().Str("unit", unit).Str("mode", string(mode)).Logger()

	// BASIC_INFO
	mcap := a.gw.MarketCapSummary(ctx, unit)
	socials := a.gw.SocialLinks(ctx, unit)
	token := &domain.Token{
		Unit:      unit,
		Ticker:    ticker,
		UpdatedAt: started.UnixMilli(),
	}
	if mcap != nil {
		token.Price = mcap.Price
		token.MarketCap = mcap.MarketCap
		token.CirculatingSupply = mcap.CirculatingSupply
		token.TotalSupply = mcap.TotalSupply
	} else {
		a.degradePhase(report, log, PhaseBasicInfo)
	}
	if socials != nil {
		token.Socials = *socials
	}
	report.Token = token

	// HOLDER_ANALYSIS
	var holderAnalysis *holders.Analysis
	raw := a.gw.TopHolders(ctx, unit)
	if len(raw) == 0 {
		a.degradePhase(report, log, PhaseHolderAnalysis)
	} else {
		holderAnalysis = holders.Analyze(raw, token.CirculatingSupply)
		report.Holders = holderAnalysis.Holders
		report.Summary = &holderAnalysis.Summary
	}

	// CLUSTER_ANALYSIS + STAKE_DEEP_DIVE
	if holderAnalysis != nil {
		report.Clusters = cluster.Group(holderAnalysis.Holders)
		a.diver.Enrich(ctx, unit, report.Clusters)

		// HANDLE_RESOLUTION for the top holders only
		for i, h := range holderAnalysis.Holders {
			if i >= handleBudget {
				break
			}
			h.Handle = a.gw.ResolveHandle(ctx, h.StakeAddress)
		}
	} else {
		a.degradePhase(report, log, PhaseClusterAnalysis)
	}

	// LIQUIDITY_ANALYSIS
	pools := a.gw.LiquidityPools(ctx, unit)
	if pools == nil {
		a.degradePhase(report, log, PhaseLiquidity)
	}
	report.Liquidity = summarizeLiquidity(pools)
	token.LiquidityPools = report.Liquidity.PoolCount

	// RISK_ASSESSMENT
	input := risk.Input{
		TopHolderPct: report.TopHolderPct(),
		HasSocials:   token.Socials.Any(),
		Liquidity:    report.Liquidity,
	}
	if report.Clusters != nil {
		input.ClustersAbove10Pct = report.Clusters.Above10Pct
		input.HighRiskClusters = report.Clusters.HighRiskCount
	}
	report.Risk = risk.Score(input)

	if mode == domain.ModeGold {
		report.Gold = a.goldFindings(ctx, unit, holderAnalysis)
	}

	// REPORT
	report.Headline = headline(report)
	token.RiskScore = report.Score()
	token.TopHolderPct = report.TopHolderPct()
	token.AnalyzedAt = a.clock().UnixMilli()

	a.persist(ctx, log, report, holderAnalysis)

	if a.metrics != nil {
		a.metrics.AnalysesTotal.WithLabelValues(string(mode)).Inc()
		a.metrics.AnalysisDuration.Observe(a.clock().Sub(started).Seconds())
	}
	log.Info().
		Int("score", report.Score()).
		Str("verdict", string(report.Risk.Verdict)).
		Int("phase_errors", len(report.PhaseErrors)).
		Msg("analysis complete")

	return report, nil
}

// resolve maps an identifier to a unit. A hex string longer than a bare
// policy ID is already a unit; anything else is treated as a ticker and
// resolved through the mapping store, refreshing the mapping from the
// volume list once on a miss.
func (a *Analyzer) resolve(ctx context.Context, identifier string) (unit, ticker string, err error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", "", ErrUnresolvedToken
	}

	if isUnit(identifier) {
		return identifier, "", nil
	}

	key := strings.ToUpper(strings.TrimPrefix(identifier, "$"))
	if a.tickers != nil {
		if m, err := a.tickers.Resolve(ctx, key); err == nil {
			return m.Unit, m.Ticker, nil
		}
	}

	// Miss: refresh the mapping from the current volume list.
	for _, listing := range a.gw.TopVolumeTokens(ctx) {
		if a.tickers != nil {
			_ = a.tickers.Upsert(ctx, &domain.TickerMapping{
				Ticker:     strings.ToUpper(listing.Ticker),
				Unit:       listing.Unit,
				Confidence: 0.8,
				Source:     "volume_list",
				UpdatedAt:  a.clock().UnixMilli(),
			})
		}
		if strings.EqualFold(listing.Ticker, key) {
			return listing.Unit, strings.ToUpper(listing.Ticker), nil
		}
	}

	return "", "", fmt.Errorf("%w: %s", ErrUnresolvedToken, identifier)
}

// isUnit reports whether the identifier is a policy-id-prefixed asset
// unit rather than a ticker.
func isUnit(s string) bool {
	if len(s) < domain.PolicyIDLength {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func (a *Analyzer) degradePhase(report *domain.AnalysisReport, log zerolog.Logger, phase string) {
	report.PhaseErrors = append(report.PhaseErrors, phase)
	if a.metrics != nil {
		a.metrics.PhaseErrors.WithLabelValues(phase).Inc()
	}
	log.Warn().Str("phase", phase).Msg("phase degraded to empty output")
}

// persist writes the analysis results to whatever stores are configured.
// All writes are best-effort: the report is returned regardless.
func (a *Analyzer) persist(ctx context.Context, log zerolog.Logger, report *domain.AnalysisReport, holderAnalysis *holders.Analysis) {
	if a.tokens != nil && report.Token != nil {
		if existing, err := a.tokens.GetByUnit(ctx, report.Unit); err == nil {
			report.Token.FirstSeenAt = existing.FirstSeenAt
			if report.Token.Source == "" {
				report.Token.Source = existing.Source
			}
			if report.Token.Ticker == "" {
				report.Token.Ticker = existing.Ticker
			}
		}
		if report.Token.Source == "" {
			report.Token.Source = domain.SourceManual
		}
		if report.Token.FirstSeenAt == 0 {
			report.Token.FirstSeenAt = report.GeneratedAt
		}
		if err := a.tokens.Upsert(ctx, report.Token); err != nil {
			a.storeError(log, "tokens", err)
		}
	}

	if a.holders != nil && holderAnalysis != nil {
		if err := a.holders.ReplaceSnapshot(ctx, report.Unit, holderAnalysis.Holders); err != nil {
			a.storeError(log, "token_holders", err)
		}
	}

	if a.history != nil {
		payload, err := json.Marshal(report)
		if err != nil {
			a.storeError(log, "analysis_history", err)
			return
		}
		record := &domain.AnalysisRecord{
			RecordID:     report.ReportID,
			Unit:         report.Unit,
			Ticker:       report.Ticker,
			Mode:         report.Mode,
			Score:        report.Score(),
			Verdict:      report.Risk.Verdict,
			TopHolderPct: report.TopHolderPct(),
			Report:       payload,
			CreatedAt:    report.GeneratedAt,
		}
		if err := a.history.Append(ctx, record); err != nil {
			a.storeError(log, "analysis_history", err)
		}
	}
}

func (a *Analyzer) storeError(log zerolog.Logger, table string, err error) {
	if a.metrics != nil {
		a.metrics.StoreErrors.WithLabelValues(table).Inc()
	}
	log.Error().Err(err).Str("table", table).Msg("best-effort persist failed")
}

// summarizeLiquidity aggregates pools into the scorer's liquidity view.
// nil pools (endpoint unreachable) and zero pools summarize identically.
func summarizeLiquidity(pools []*domain.LiquidityPool) *domain.LiquiditySummary {
	summary := &domain.LiquiditySummary{}
	seen := make(map[string]struct{})
	for _, p := range pools {
		if p == nil {
			continue
		}
		summary.PoolCount++
		summary.TotalLockedQuote += p.LockedQuote
		if p.Exchange != "" {
			if _, ok := seen[p.Exchange]; !ok {
				seen[p.Exchange] = struct{}{}
				summary.Exchanges = append(summary.Exchanges, p.Exchange)
			}
		}
	}
	summary.HasLiquidity = summary.PoolCount > 0
	summary.IsLowLiquidity = summary.HasLiquidity && summary.TotalLockedQuote < risk.LowLiquidityQuote
	return summary
}

func headline(r *domain.AnalysisReport) string {
	label := r.Ticker
	if label == "" {
		label = r.Unit
	}
	return fmt.Sprintf("%s: risk %d/10 (%s), top holder %.1f%%, %d pools",
		label, r.Score(), r.Risk.Verdict, r.TopHolderPct(), r.Liquidity.PoolCount)
}
