package domain

// CoinEntry is one row of the coin catalog: the canonical CoinGecko id,
// the (not necessarily unique) ticker symbol, and the display name.
type CoinEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// MarketData holds the raw market statistics for a single coin as returned
// by the /coins/markets endpoint.
type MarketData struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Image               string  `json:"image"`
	CurrentPrice        float64 `json:"current_price"`
	CirculatingSupply   float64 `json:"circulating_supply"`
	MarketCap           float64 `json:"market_cap"`
	High24h             float64 `json:"high_24h"`
	Low24h              float64 `json:"low_24h"`
	PriceChangePct24h   float64 `json:"price_change_percentage_24h"`
	ATH                 float64 `json:"ath"`
	ATHChangePercentage float64 `json:"ath_change_percentage"`
	ATL                 float64 `json:"atl"`
}

// MarketSnapshot is the display-ready view of MarketData. Every field is a
// formatted string; the formatting rules live in the service package.
type MarketSnapshot struct {
	Name              string `json:"name"`
	ImageURL          string `json:"image_url"`
	Price             string `json:"price"`
	CirculatingSupply string `json:"circulating_supply"`
	MarketCap         string `json:"market_cap"`
	High24h           string `json:"high_24h"`
	Low24h            string `json:"low_24h"`
	Change24hPct      string `json:"change_24h_pct"`
	ATHPrice          string `json:"ath_price"`
	ATHChangePct      string `json:"ath_change_pct"`
	ATLPrice          string `json:"atl_price"`
}

// PricePoint is one sample of a market_chart price series.
type PricePoint struct {
	TimestampMS int64   `json:"timestamp_ms"`
	Price       float64 `json:"price"`
}

// MarketShare is one asset's slice of global market capitalization.
// Order matters: the provider returns these ranked.
type MarketShare struct {
	Symbol  string  `json:"symbol"`
	Percent float64 `json:"percent"`
}
