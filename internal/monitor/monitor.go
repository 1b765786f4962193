// Package monitor runs the periodic discovery and analysis cycle: pull
// candidate tokens from the market feeds, persist them, analyze a bounded
// number of new ones and dispatch alerts for risky findings.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"tokenwatch/internal/alert"
	"tokenwatch/internal/domain"
	"tokenwatch/internal/observability"
	"tokenwatch/internal/storage"
)

// Defaults for the cycle configuration.
const (
	DefaultInterval            = 30 * time.Minute
	DefaultMaxAnalysesPerCycle = 3
	DefaultInterTokenDelay     = 5 * time.Second
	DefaultAlertScoreThreshold = 6
	DefaultAlertTopHolderPct   = 50.0
	DefaultAlertCooldown       = 6 * time.Hour

	upsertBatchSize = 10
)

// Config tunes the monitoring cycle. Zero values fall back to defaults;
// Denylist units are dropped before any processing.
type Config struct {
	Interval            time.Duration
	MaxAnalysesPerCycle int
	InterTokenDelay     time.Duration
	AlertScoreThreshold int
	AlertTopHolderPct   float64
	AlertCooldown       time.Duration
	McapPage            int
	McapPerPage         int
	Denylist            []string
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxAnalysesPerCycle <= 0 {
		c.MaxAnalysesPerCycle = DefaultMaxAnalysesPerCycle
	}
	if c.InterTokenDelay <= 0 {
		c.InterTokenDelay = DefaultInterTokenDelay
	}
	if c.AlertScoreThreshold <= 0 {
		c.AlertScoreThreshold = DefaultAlertScoreThreshold
	}
	if c.AlertTopHolderPct <= 0 {
		c.AlertTopHolderPct = DefaultAlertTopHolderPct
	}
	if c.AlertCooldown <= 0 {
		c.AlertCooldown = DefaultAlertCooldown
	}
	if c.McapPage <= 0 {
		c.McapPage = 1
	}
	if c.McapPerPage <= 0 {
		c.McapPerPage = 50
	}
}

// Feed supplies candidate listings. The Gateway satisfies it.
type Feed interface {
	TopVolumeTokens(ctx context.Context) []*domain.TokenListing
	TopMarketCapTokens(ctx context.Context, page, perPage int) []*domain.TokenListing
}

// Analyzer runs the risk pipeline for one identifier.
type Analyzer interface {
	Analyze(ctx context.Context, identifier string) (*domain.AnalysisReport, error)
}

// CycleSummary describes one completed monitoring cycle.
type CycleSummary struct {
	StartedAt  int64         `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Candidates int           `json:"candidates"`
	NewTokens  int           `json:"new_tokens"`
	Analyzed   int           `json:"analyzed"`
	Alerts     int           `json:"alerts"`
	Errors     int           `json:"errors"`
}

// Status is the live monitor view exposed over HTTP.
type Status struct {
	Running     bool          `json:"running"`
	KnownTokens int           `json:"known_tokens"`
	LastCycle   *CycleSummary `json:"last_cycle,omitempty"`
	NextRunAt   int64         `json:"next_run_at,omitempty"`
}

// Options wires a Monitor.
type Options struct {
	Feed       Feed
	Analyzer   Analyzer
	Tokens     storage.TokenStore
	Dispatcher alert.Dispatcher
	Config     Config
	Logger     zerolog.Logger
	Metrics    *observability.Metrics
	Clock      func() time.Time
	// Sleep is injectable for tests; defaults to a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration)
}

// Monitor owns the cycle schedule, the known-unit set and the alert
// dedup state. One cycle runs at a time.
type Monitor struct {
	feed       Feed
	analyzer   Analyzer
	tokens     storage.TokenStore
	dispatcher alert.Dispatcher
	cfg        Config
	log        zerolog.Logger
	metrics    *observability.Metrics
	clock      func() time.Time
	sleep      func(ctx context.Context, d time.Duration)

	cron    *cron.Cron
	entryID cron.EntryID

	mu        sync.Mutex
	running   bool
	known     map[string]struct{}
	denied    map[string]struct{}
	lastAlert map[string]time.Time
	lastCycle *CycleSummary
}

// New creates a Monitor. The known-unit set is loaded on Start.
func New(opts Options) *Monitor {
	opts.Config.applyDefaults()
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = waitFor
	}

	denied := make(map[string]struct{}, len(opts.Config.Denylist))
	for _, unit := range opts.Config.Denylist {
		denied[unit] = struct{}{}
	}

	return &Monitor{
		feed:       opts.Feed,
		analyzer:   opts.Analyzer,
		tokens:     opts.Tokens,
		dispatcher: opts.Dispatcher,
		cfg:        opts.Config,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		clock:      opts.Clock,
		sleep:      opts.Sleep,
		known:      make(map[string]struct{}),
		denied:     denied,
		lastAlert:  make(map[string]time.Time),
	}
}

// Start loads the known-unit set, runs one immediate cycle and schedules
// recurring cycles. The scheduled job skips a tick if the previous cycle
// is still running.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.loadKnown(ctx); err != nil {
		return err
	}

	m.RunCycle(ctx)

	m.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	id, err := m.cron.AddFunc("@every "+m.cfg.Interval.String(), func() {
		m.RunCycle(context.Background())
	})
	if err != nil {
		return err
	}
	m.entryID = id
	m.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running cycle to finish.
func (m *Monitor) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
}

// Status reports the current monitor state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		Running:     m.running,
		KnownTokens: len(m.known),
		LastCycle:   m.lastCycle,
	}
	if m.cron != nil {
		if next := m.cron.Entry(m.entryID).Next; !next.IsZero() {
			s.NextRunAt = next.UnixMilli()
		}
	}
	return s
}

func (m *Monitor) loadKnown(ctx context.Context) error {
	units, err := m.tokens.ListUnits(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	for _, unit := range units {
		m.known[unit] = struct{}{}
	}
	m.mu.Unlock()
	return nil
}

func waitFor(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
