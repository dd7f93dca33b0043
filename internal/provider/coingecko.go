package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"coinwatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider is the market-data client backing the whole service:
// coin catalog, per-coin market statistics, price history, trending list,
// global dominance, and spot prices.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a new provider with built-in rate limiting.
// Rate limited to 8 requests per minute (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

// ListCoins fetches the full coin catalog (id, symbol, name) from /coins/list.
func (p *CoinGeckoProvider) ListCoins(ctx context.Context) ([]domain.CoinEntry, error) {
	_, span := p.tracer.Start(ctx, "coingecko.list-coins")
	defer span.End()

	body, err := p.doRequest(ctx, p.baseURL+"/coins/list")
	if err != nil {
		return nil, fmt.Errorf("fetch coin list: %w", err)
	}

	var entries []domain.CoinEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("parse coin list: %w", err)
	}

	return entries, nil
}

// MarketData fetches current market statistics for exactly one coin id.
// Zero rows from the API is an error: the caller asked for a known id.
func (p *CoinGeckoProvider) MarketData(ctx context.Context, id, vsCurrency string) (*domain.MarketData, error) {
	_, span := p.tracer.Start(ctx, "coingecko.market-data")
	defer span.End()

	url := fmt.Sprintf("%s/coins/markets?vs_currency=%s&ids=%s", p.baseURL, vsCurrency, id)

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch market data for %s: %w", id, err)
	}

	var rows []domain.MarketData
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse market data for %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no market data returned for %s", id)
	}

	return &rows[0], nil
}

// PriceHistory fetches the (timestamp, price) series for a coin over the
// most recent days from /coins/{id}/market_chart.
func (p *CoinGeckoProvider) PriceHistory(ctx context.Context, id, vsCurrency string, days int) ([]domain.PricePoint, error) {
	_, span := p.tracer.Start(ctx, "coingecko.price-history")
	defer span.End()

	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=%d",
		p.baseURL, id, vsCurrency, days)

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch price history for %s: %w", id, err)
	}

	var raw struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse price history for %s: %w", id, err)
	}

	points := make([]domain.PricePoint, 0, len(raw.Prices))
	for _, pt := range raw.Prices {
		if len(pt) < 2 {
			continue
		}
		points = append(points, domain.PricePoint{
			TimestampMS: int64(pt[0]),
			Price:       pt[1],
		})
	}

	return points, nil
}

// GlobalMarketShare fetches /global and returns each asset's share of total
// market capitalization, in the order the provider ranks them. The JSON
// object is token-walked rather than unmarshalled into a map so that order
// survives.
func (p *CoinGeckoProvider) GlobalMarketShare(ctx context.Context) ([]domain.MarketShare, error) {
	_, span := p.tracer.Start(ctx, "coingecko.global-market-share")
	defer span.End()

	body, err := p.doRequest(ctx, p.baseURL+"/global")
	if err != nil {
		return nil, fmt.Errorf("fetch global market data: %w", err)
	}

	var raw struct {
		Data struct {
			MarketCapPercentage json.RawMessage `json:"market_cap_percentage"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse global market data: %w", err)
	}

	shares, err := decodeOrderedShares(raw.Data.MarketCapPercentage)
	if err != nil {
		return nil, fmt.Errorf("parse market cap percentages: %w", err)
	}

	return shares, nil
}

// TrendingCoins fetches /search/trending and returns the coin names in
// provider order.
func (p *CoinGeckoProvider) TrendingCoins(ctx context.Context) ([]string, error) {
	_, span := p.tracer.Start(ctx, "coingecko.trending-coins")
	defer span.End()

	body, err := p.doRequest(ctx, p.baseURL+"/search/trending")
	if err != nil {
		return nil, fmt.Errorf("fetch trending coins: %w", err)
	}

	var raw struct {
		Coins []struct {
			Item struct {
				Name string `json:"name"`
			} `json:"item"`
		} `json:"coins"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse trending coins: %w", err)
	}

	names := make([]string, 0, len(raw.Coins))
	for _, c := range raw.Coins {
		names = append(names, c.Item.Name)
	}

	return names, nil
}

// SimplePrice fetches the current spot price for one coin id.
func (p *CoinGeckoProvider) SimplePrice(ctx context.Context, id, vsCurrency string) (float64, error) {
	_, span := p.tracer.Start(ctx, "coingecko.simple-price")
	defer span.End()

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s", p.baseURL, id, vsCurrency)

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("fetch simple price for %s: %w", id, err)
	}

	// Response shape: {"bitcoin": {"usd": 97000}}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("parse simple price for %s: %w", id, err)
	}

	price, ok := raw[id][vsCurrency]
	if !ok {
		return 0, fmt.Errorf("no price returned for %s in %s", id, vsCurrency)
	}

	return price, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// decodeOrderedShares walks a JSON object of symbol->percent pairs with a
// Decoder so the document's key order is preserved.
func decodeOrderedShares(raw json.RawMessage) ([]domain.MarketShare, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil { // opening brace
		return nil, err
	}

	var shares []domain.MarketShare
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", keyTok)
		}
		var pct float64
		if err := dec.Decode(&pct); err != nil {
			return nil, err
		}
		shares = append(shares, domain.MarketShare{Symbol: key, Percent: pct})
	}

	return shares, nil
}
