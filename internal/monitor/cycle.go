package monitor

import (
	"context"
	"sync"

	"tokenwatch/internal/alert"
	"tokenwatch/internal/domain"
)

// RunCycle executes one full monitoring cycle. Cycles are serialized: a
// call while another cycle runs returns immediately.
func (m *Monitor) RunCycle(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.log.Debug().Msg("cycle already running, skipping")
		return
	}
	m.running = true
	m.mu.Unlock()

	started := m.clock()
	summary := &CycleSummary{StartedAt: started.UnixMilli()}

	defer func() {
		summary.Duration = m.clock().Sub(started)

		m.mu.Lock()
		m.running = false
		m.lastCycle = summary
		knownCount := len(m.known)
		m.mu.Unlock()

		if m.metrics != nil {
			m.metrics.CyclesTotal.Inc()
			m.metrics.CycleDuration.Observe(summary.Duration.Seconds())
			m.metrics.KnownTokens.Set(float64(knownCount))
			m.metrics.LastCycleUnix.Set(float64(m.clock().Unix()))
		}
		m.log.Info().
			Int("candidates", summary.Candidates).
			Int("new", summary.NewTokens).
			Int("analyzed", summary.Analyzed).
			Int("alerts", summary.Alerts).
			Int("errors", summary.Errors).
			Dur("duration", summary.Duration).
			Msg("monitoring cycle complete")
	}()

	candidates := m.gatherCandidates(ctx)
	summary.Candidates = len(candidates)

	fresh := m.partitionNew(candidates)
	summary.NewTokens = len(fresh)

	m.upsertCandidates(ctx, candidates, summary)

	reports := m.analyzeNew(ctx, fresh, summary)

	m.dispatchAlerts(ctx, reports, summary)
}

// gatherCandidates pulls both feeds and merges them by unit. Volume
// listings win on conflict since only volume-sourced tokens are eligible
// for same-cycle analysis; denylisted units are dropped.
func (m *Monitor) gatherCandidates(ctx context.Context) []*domain.TokenListing {
	var merged []*domain.TokenListing
	seen := make(map[string]struct{})

	volume := m.feed.TopVolumeTokens(ctx)
	for _, l := range volume {
		if l == nil || l.Unit == "" {
			continue
		}
		if _, denied := m.denied[l.Unit]; denied {
			continue
		}
		if _, dup := seen[l.Unit]; dup {
			continue
		}
		seen[l.Unit] = struct{}{}
		l.Source = domain.SourceTopVolume
		merged = append(merged, l)
	}
	if m.metrics != nil {
		m.metrics.CandidatesSeen.WithLabelValues(string(domain.SourceTopVolume)).Add(float64(len(merged)))
	}

	mcapCount := 0
	for _, l := range m.feed.TopMarketCapTokens(ctx, m.cfg.McapPage, m.cfg.McapPerPage) {
		if l == nil || l.Unit == "" {
			continue
		}
		if _, denied := m.denied[l.Unit]; denied {
			continue
		}
		if _, dup := seen[l.Unit]; dup {
			continue
		}
		seen[l.Unit] = struct{}{}
		l.Source = domain.SourceMarketCap
		merged = append(merged, l)
		mcapCount++
	}
	if m.metrics != nil {
		m.metrics.CandidatesSeen.WithLabelValues(string(domain.SourceMarketCap)).Add(float64(mcapCount))
	}

	return merged
}

// partitionNew returns the candidates not yet in the known set. Units
// join the set only once their upsert succeeds, so a token that failed
// to persist is retried as new on the next cycle.
func (m *Monitor) partitionNew(candidates []*domain.TokenListing) []*domain.TokenListing {
	m.mu.Lock()
	defer m.mu.Unlock()

	var fresh []*domain.TokenListing
	for _, l := range candidates {
		if _, ok := m.known[l.Unit]; !ok {
			fresh = append(fresh, l)
		}
	}
	return fresh
}

// upsertCandidates persists every candidate listing in fixed-size
// batches: concurrent within a batch, sequential across batches.
func (m *Monitor) upsertCandidates(ctx context.Context, candidates []*domain.TokenListing, summary *CycleSummary) {
	now := m.clock().UnixMilli()

	for start := 0; start < len(candidates); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		var wg sync.WaitGroup
		var errCount int
		var errMu sync.Mutex

		for _, l := range candidates[start:end] {
			wg.Add(1)
			go func(l *domain.TokenListing) {
				defer wg.Done()
				t := &domain.Token{
					Unit:        l.Unit,
					Ticker:      l.Ticker,
					Name:        l.Name,
					Price:       l.Price,
					Volume24h:   l.Volume24h,
					MarketCap:   l.MarketCap,
					Source:      l.Source,
					FirstSeenAt: now,
					UpdatedAt:   now,
				}
				if existing, err := m.tokens.GetByUnit(ctx, l.Unit); err == nil {
					t.FirstSeenAt = existing.FirstSeenAt
					t.RiskScore = existing.RiskScore
					t.TopHolderPct = existing.TopHolderPct
					t.AnalyzedAt = existing.AnalyzedAt
					if existing.Source != "" {
						t.Source = existing.Source
					}
				}
				if err := m.tokens.Upsert(ctx, t); err != nil {
					m.log.Error().Err(err).Str("unit", l.Unit).Msg("candidate upsert failed")
					errMu.Lock()
					errCount++
					errMu.Unlock()
					return
				}
				m.mu.Lock()
				m.known[l.Unit] = struct{}{}
				m.mu.Unlock()
			}(l)
		}
		wg.Wait()
		summary.Errors += errCount
	}
}

// analyzeNew runs the pipeline for up to the per-cycle budget of new
// volume-sourced candidates, sequentially with a politeness delay.
// Market-cap-sourced candidates are persisted but never analyzed in the
// cycle that discovered them.
func (m *Monitor) analyzeNew(ctx context.Context, fresh []*domain.TokenListing, summary *CycleSummary) []*domain.AnalysisReport {
	var reports []*domain.AnalysisReport

	for _, l := range fresh {
		if summary.Analyzed >= m.cfg.MaxAnalysesPerCycle {
			break
		}
		if l.Source != domain.SourceTopVolume {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		if summary.Analyzed > 0 {
			m.sleep(ctx, m.cfg.InterTokenDelay)
		}

		report, err := m.analyzer.Analyze(ctx, l.Unit)
		if err != nil {
			m.log.Error().Err(err).Str("unit", l.Unit).Msg("cycle analysis failed")
			summary.Errors++
			continue
		}
		summary.Analyzed++
		reports = append(reports, report)
	}

	return reports
}

// dispatchAlerts sends one alert per report crossing either threshold,
// suppressing repeats for the cooldown window. Expired dedup entries are
// evicted on each pass so the map stays bounded by the window.
func (m *Monitor) dispatchAlerts(ctx context.Context, reports []*domain.AnalysisReport, summary *CycleSummary) {
	now := m.clock()

	m.mu.Lock()
	for unit, last := range m.lastAlert {
		if now.Sub(last) >= m.cfg.AlertCooldown {
			delete(m.lastAlert, unit)
		}
	}
	m.mu.Unlock()

	for _, r := range reports {
		if r.Score() < m.cfg.AlertScoreThreshold && r.TopHolderPct() < m.cfg.AlertTopHolderPct {
			continue
		}

		m.mu.Lock()
		last, alerted := m.lastAlert[r.Unit]
		if alerted && now.Sub(last) < m.cfg.AlertCooldown {
			m.mu.Unlock()
			continue
		}
		m.lastAlert[r.Unit] = now
		m.mu.Unlock()

		a := &alert.Alert{
			Unit:         r.Unit,
			Ticker:       r.Ticker,
			Name:         r.Name,
			Score:        r.Score(),
			Verdict:      r.Risk.Verdict,
			TopHolderPct: r.TopHolderPct(),
			Factors:      r.Risk.Factors,
			TriggeredAt:  now.UnixMilli(),
		}
		if r.Token != nil {
			a.Source = r.Token.Source
		}

		if err := m.dispatcher.Dispatch(ctx, a); err != nil {
			m.log.Error().Err(err).Str("unit", r.Unit).Msg("alert dispatch failed")
			summary.Errors++
			continue
		}
		summary.Alerts++
		if m.metrics != nil {
			m.metrics.AlertsDispatched.Inc()
		}
	}
}
