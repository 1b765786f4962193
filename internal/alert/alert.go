// Package alert dispatches notifications for tokens flagged by the
// monitoring scheduler.
package alert

import (
	"context"
	"fmt"

	"tokenwatch/internal/domain"
)

// Alert describes one flagged token.
type Alert struct {
	Unit         string         `json:"unit"`
	Ticker       string         `json:"ticker"`
	Name         string         `json:"name"`
	Score        int            `json:"score"`
	Verdict      domain.Verdict `json:"verdict"`
	TopHolderPct float64        `json:"top_holder_pct"`
	Factors      []string       `json:"factors,omitempty"`
	Source       domain.Source  `json:"source"`
	TriggeredAt  int64          `json:"triggered_at"`
}

// Headline renders a single-line summary suitable for chat channels.
func (a *Alert) Headline() string {
	label := a.Ticker
	if label == "" {
		label = a.Unit
	}
	return fmt.Sprintf("⚠️ %s risk %d/10 (%s), top holder %.1f%%", label, a.Score, a.Verdict, a.TopHolderPct)
}

// Dispatcher delivers alerts to some sink.
type Dispatcher interface {
	Dispatch(ctx context.Context, a *Alert) error
}
