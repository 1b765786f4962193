package domain

// TradeAction is the side of a token trade.
type TradeAction string

const (
	TradeBuy  TradeAction = "BUY"
	TradeSell TradeAction = "SELL"
)

// TokenTrade is one trade of a unit as reported by the market API.
type TokenTrade struct {
	Unit         string
	Action       TradeAction
	StakeAddress string
	Quantity     float64
	Price        float64
	Timestamp    int64 // Unix timestamp in milliseconds
}
