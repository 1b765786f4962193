package domain

import "strings"

// PolicyIDLength is the hex length of an issuing policy id. A unit is the
// policy id concatenated with the hex-encoded asset name.
const PolicyIDLength = 56

// Token represents one tracked token.
// Corresponds to the tokens table; upserted by unit, never deleted.
type Token struct {
	Unit              string // PRIMARY KEY, policy id + asset name
	Ticker            string
	Name              string
	Price             float64
	Volume24h         float64
	MarketCap         float64
	CirculatingSupply float64
	TotalSupply       float64
	RiskScore         int     // last computed score, 0 if never analyzed
	TopHolderPct      float64 // last computed top-holder percentage
	LiquidityPools    int
	Socials           SocialLinks
	Source            Source
	FirstSeenAt       int64 // Unix timestamp in milliseconds
	UpdatedAt         int64 // Unix timestamp in milliseconds
	AnalyzedAt        int64 // 0 if never analyzed
}

// PolicyID returns the issuing policy portion of the unit.
func (t *Token) PolicyID() string {
	if len(t.Unit) < PolicyIDLength {
		return t.Unit
	}
	return t.Unit[:PolicyIDLength]
}

// AssetNameHex returns the hex-encoded asset name portion of the unit.
func (t *Token) AssetNameHex() string {
	if len(t.Unit) <= PolicyIDLength {
		return ""
	}
	return t.Unit[PolicyIDLength:]
}

// SocialLinks holds the social presence discovered for a token.
type SocialLinks struct {
	Website  string
	Twitter  string
	Discord  string
	Telegram string
}

// Any reports whether at least one social link is present.
func (s SocialLinks) Any() bool {
	return strings.TrimSpace(s.Website) != "" ||
		strings.TrimSpace(s.Twitter) != "" ||
		strings.TrimSpace(s.Discord) != "" ||
		strings.TrimSpace(s.Telegram) != ""
}

// TokenListing is a lightweight feed entry from a candidate source.
type TokenListing struct {
	Unit      string
	Ticker    string
	Name      string
	Price     float64
	Volume24h float64
	MarketCap float64
	Source    Source
}

// MarketCapSummary is the supply/price snapshot for one unit.
type MarketCapSummary struct {
	Unit              string
	Price             float64
	MarketCap         float64
	CirculatingSupply float64
	TotalSupply       float64
}
