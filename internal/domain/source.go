package domain

// Source represents the candidate feed a token was discovered through.
type Source string

const (
	SourceTopVolume Source = "TOP_VOLUME"
	SourceMarketCap Source = "MARKET_CAP"
	SourceManual    Source = "MANUAL"
)

// String returns the string representation of Source.
func (s Source) String() string {
	return string(s)
}

// IsValid checks if the source is a valid value.
func (s Source) IsValid() bool {
	return s == SourceTopVolume || s == SourceMarketCap || s == SourceManual
}
