package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coinwatch/internal/catalog"
	"coinwatch/internal/domain"
	"coinwatch/internal/presence"
	"coinwatch/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type fakeProvider struct {
	marketData *domain.MarketData
	marketErr  error
	shares     []domain.MarketShare
	trending   []string
}

func (f *fakeProvider) MarketData(ctx context.Context, id, vsCurrency string) (*domain.MarketData, error) {
	if f.marketErr != nil {
		return nil, f.marketErr
	}
	return f.marketData, nil
}

func (f *fakeProvider) GlobalMarketShare(ctx context.Context) ([]domain.MarketShare, error) {
	return f.shares, nil
}

func (f *fakeProvider) TrendingCoins(ctx context.Context) ([]string, error) {
	return f.trending, nil
}

func (f *fakeProvider) SimplePrice(ctx context.Context, id, vsCurrency string) (float64, error) {
	return 0, nil
}

func newTestRouter(provider *fakeProvider, entries []domain.CoinEntry, apiKey string) (*gin.Engine, *presence.State) {
	gin.SetMode(gin.TestMode)

	cat := catalog.New()
	cat.Replace(entries)
	market := service.NewMarketService(testTracer, provider, nil, "usd")
	status := presence.NewState()

	r := gin.New()
	h := New(testTracer, cat, market, status)
	h.RegisterRoutes(r, apiKey)
	return r, status
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(&fakeProvider{}, nil, "")
	w := get(r, "/health")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestGetCoin(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		marketData: &domain.MarketData{ID: "bitcoin", Name: "Bitcoin", CurrentPrice: 50000},
	}
	entries := []domain.CoinEntry{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"}}
	r, _ := newTestRouter(provider, entries, "")

	w := get(r, "/api/coins/BTC")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var snap domain.MarketSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.Name != "Bitcoin" || snap.Price != "$50,000" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestGetCoinNotFound(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(&fakeProvider{}, nil, "")
	w := get(r, "/api/coins/doesnotexist")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestGetCoinProviderFailure(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{marketErr: errors.New("api down")}
	entries := []domain.CoinEntry{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"}}
	r, _ := newTestRouter(provider, entries, "")

	w := get(r, "/api/coins/btc")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
}

func TestGetTrendingEmpty(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(&fakeProvider{}, nil, "")
	w := get(r, "/api/trending")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"trending":[]`) {
		t.Fatalf("expected empty trending array, got: %s", w.Body.String())
	}
}

func TestGetDominance(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		shares: []domain.MarketShare{{Symbol: "btc", Percent: 57.31}},
	}
	r, _ := newTestRouter(provider, nil, "")

	w := get(r, "/api/dominance")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"btc"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGetPresence(t *testing.T) {
	t.Parallel()

	r, status := newTestRouter(&fakeProvider{}, nil, "")
	status.PublishPresence("BTC @ $97000")

	w := get(r, "/api/presence")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "BTC @ $97000") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestAPIKeyAuth(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(&fakeProvider{}, nil, "sekrit")

	w := get(r, "/api/trending")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}

	req, _ := http.NewRequest("GET", "/api/trending", nil)
	req.Header.Set("X-API-Key", "wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with bad key, got %d", w.Code)
	}

	req, _ = http.NewRequest("GET", "/api/trending", nil)
	req.Header.Set("X-API-Key", "sekrit")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with good key, got %d", w.Code)
	}

	// Health stays open.
	if w := get(r, "/health"); w.Code != http.StatusOK {
		t.Fatalf("health must not require a key, got %d", w.Code)
	}
}
