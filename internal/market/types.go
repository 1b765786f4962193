package market

import (
	"strings"

	"tokenwatch/internal/domain"
)

// wireListing is the upstream shape of a top-volume or top-mcap entry.
type wireListing struct {
	Unit       string  `json:"unit"`
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Volume     float64 `json:"volume"`
	Mcap       float64 `json:"mcap"`
	CircSupply float64 `json:"circSupply"`
}

func (w wireListing) toDomain(source domain.Source) *domain.TokenListing {
	return &domain.TokenListing{
		Unit:      w.Unit,
		Ticker:    w.Ticker,
		Name:      w.Name,
		Price:     w.Price,
		Volume24h: w.Volume,
		MarketCap: w.Mcap,
		Source:    source,
	}
}

// wireHolder tolerates the provider's inconsistent field naming. Some
// call sites return amount, others quantity; some label the stake
// identity address, others ownerAddress.
type wireHolder struct {
	Address      string  `json:"address"`
	OwnerAddress string  `json:"ownerAddress"`
	Amount       float64 `json:"amount"`
	Quantity     float64 `json:"quantity"`
}

func (w wireHolder) stake() string {
	if w.Address != "" {
		return w.Address
	}
	return w.OwnerAddress
}

func (w wireHolder) quantity() float64 {
	if w.Amount != 0 {
		return w.Amount
	}
	return w.Quantity
}

// wirePool is the upstream shape of one liquidity pool.
type wirePool struct {
	Exchange    string  `json:"exchange"`
	TokenLocked float64 `json:"tokenLocked"`
	QuoteLocked float64 `json:"adaLocked"`
}

// wireMcap is the upstream market-cap summary.
type wireMcap struct {
	Price       float64 `json:"price"`
	Mcap        float64 `json:"mcap"`
	CircSupply  float64 `json:"circSupply"`
	TotalSupply float64 `json:"totalSupply"`
}

// wireLinks is the upstream social-links record.
type wireLinks struct {
	Website  string `json:"website"`
	Twitter  string `json:"twitter"`
	Discord  string `json:"discord"`
	Telegram string `json:"telegram"`
}

// wireTrade is one upstream trade row.
type wireTrade struct {
	Action      string  `json:"action"`
	Address     string  `json:"address"`
	TokenAmount float64 `json:"tokenAmount"`
	Price       float64 `json:"price"`
	Time        int64   `json:"time"` // Unix seconds
}

func (w wireTrade) toDomain(unit string) *domain.TokenTrade {
	action := domain.TradeBuy
	if strings.EqualFold(w.Action, "sell") {
		action = domain.TradeSell
	}
	return &domain.TokenTrade{
		Unit:         unit,
		Action:       action,
		StakeAddress: w.Address,
		Quantity:     w.TokenAmount,
		Price:        w.Price,
		Timestamp:    w.Time * 1000,
	}
}

// wirePortfolio is the upstream portfolio-positions record.
type wirePortfolio struct {
	NumPositions int `json:"numPositions"`
	Positions    []struct {
		Unit string `json:"unit"`
	} `json:"positions"`
}
