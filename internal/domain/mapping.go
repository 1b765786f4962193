package domain

// TickerMapping maps a ticker to a unit with a confidence score and
// provenance. Several units can claim the same ticker; resolution picks
// the highest confidence.
type TickerMapping struct {
	Ticker     string
	Unit       string
	Confidence float64 // in [0, 1]
	Source     string  // feed that produced the mapping
	UpdatedAt  int64   // Unix timestamp in milliseconds
}

// AnalysisRecord is one row of the append-only analysis history. Report
// is the full structured report as an opaque JSON document.
type AnalysisRecord struct {
	RecordID     string
	Unit         string
	Ticker       string
	Mode         AnalysisMode
	Score        int
	Verdict      Verdict
	TopHolderPct float64
	Report       []byte // JSON document
	CreatedAt    int64  // Unix timestamp in milliseconds
}
