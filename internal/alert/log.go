package alert

import (
	"context"

	"github.com/rs/zerolog"
)

// LogDispatcher writes alerts to the structured log. Used when no webhook
// is configured.
type LogDispatcher struct {
	log zerolog.Logger
}

// NewLogDispatcher creates a log-backed dispatcher.
func NewLogDispatcher(log zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

var _ Dispatcher = (*LogDispatcher)(nil)

// Dispatch logs the alert at warn level. Never fails.
func (d *LogDispatcher) Dispatch(_ context.Context, a *Alert) error {
	d.log.Warn().
		Str("unit", a.Unit).
		Str("ticker", a.Ticker).
		Int("score", a.Score).
		Str("verdict", string(a.Verdict)).
		Float64("top_holder_pct", a.TopHolderPct).
		Strs("factors", a.Factors).
		Msg(a.Headline())
	return nil
}
