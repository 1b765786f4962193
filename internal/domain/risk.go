package domain

// Verdict is the fine-grained risk verdict.
type Verdict string

const (
	VerdictSafe     Verdict = "SAFE"
	VerdictLow      Verdict = "LOW_RISK"
	VerdictModerate Verdict = "MODERATE_RISK"
	VerdictHigh     Verdict = "HIGH_RISK"
	VerdictExtreme  Verdict = "EXTREME_RISK"
)

// QuickVerdict is the coarse verdict used by the fast scoring path.
type QuickVerdict string

const (
	QuickSafe    QuickVerdict = "SAFE"
	QuickCaution QuickVerdict = "CAUTION"
	QuickAvoid   QuickVerdict = "AVOID"
)

// Action is the recommended action for a scored token.
type Action string

const (
	ActionMonitor Action = "MONITOR"
	ActionCaution Action = "CAUTION"
	ActionAvoid   Action = "AVOID"
)

// RiskAssessment is one token's scored outcome. Appended to the analysis
// history, never mutated in place.
type RiskAssessment struct {
	Score   int      // in [0, 10]
	Verdict Verdict
	Quick   QuickVerdict
	Action  Action
	Factors []string // contributing risk factors, in scoring order
}
