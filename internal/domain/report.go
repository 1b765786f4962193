package domain

// AnalysisMode distinguishes the base deep pipeline from the gold-standard
// variant with free-recipient and insider-network enrichment.
type AnalysisMode string

const (
	ModeDeep AnalysisMode = "DEEP"
	ModeGold AnalysisMode = "GOLD"
)

// AnalysisReport is the structured output of one pipeline run. It carries
// a human-oriented summary plus the full per-phase detail for handoff to
// presentation layers.
type AnalysisReport struct {
	ReportID    string       `json:"report_id"`
	Unit        string       `json:"unit"`
	Ticker      string       `json:"ticker"`
	Name        string       `json:"name"`
	Mode        AnalysisMode `json:"mode"`
	GeneratedAt int64        `json:"generated_at"`

	Token     *Token            `json:"token,omitempty"`
	Holders   []*HolderRecord   `json:"holders,omitempty"`
	Summary   *HolderSummary    `json:"holder_summary,omitempty"`
	Clusters  *ClusterSummary   `json:"clusters,omitempty"`
	Liquidity *LiquiditySummary `json:"liquidity,omitempty"`
	Risk      *RiskAssessment   `json:"risk,omitempty"`
	Gold      *GoldFindings     `json:"gold,omitempty"`

	// PhaseErrors records phases that degraded to empty output. The
	// pipeline never aborts on them; they are carried for diagnostics.
	PhaseErrors []string `json:"phase_errors,omitempty"`

	Headline string `json:"headline"`
}

// TopHolderPct returns the top-1 concentration, zero when holder analysis
// produced no data.
func (r *AnalysisReport) TopHolderPct() float64 {
	if r.Summary == nil {
		return 0
	}
	return r.Summary.Top1Pct
}

// Score returns the risk score, zero when scoring produced no data.
func (r *AnalysisReport) Score() int {
	if r.Risk == nil {
		return 0
	}
	return r.Risk.Score
}

// GoldFindings are the best-effort gold-standard enrichments. Either list
// may be empty or absent without invalidating the base report.
type GoldFindings struct {
	FreeRecipients  []*FreeRecipient  `json:"free_recipients,omitempty"`
	InsiderNetworks []*InsiderNetwork `json:"insider_networks,omitempty"`
}

// FreeRecipient is a holder that received supply without a recorded buy.
type FreeRecipient struct {
	StakeAddress string  `json:"stake_address"`
	Quantity     float64 `json:"quantity"`
	Percentage   float64 `json:"percentage"`
}

// InsiderNetwork groups free recipients sharing a stake-address prefix.
type InsiderNetwork struct {
	Prefix      string   `json:"prefix"`
	Members     []string `json:"members"`
	CombinedPct float64  `json:"combined_pct"`
}
