package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"coinwatch/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const marketCacheTTL = 60 * time.Second

// MarketDataProvider is the upstream market-data client (CoinGecko in
// production, fakes in tests).
type MarketDataProvider interface {
	MarketData(ctx context.Context, id, vsCurrency string) (*domain.MarketData, error)
	GlobalMarketShare(ctx context.Context) ([]domain.MarketShare, error)
	TrendingCoins(ctx context.Context) ([]string, error)
	SimplePrice(ctx context.Context, id, vsCurrency string) (float64, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// MarketService answers the user-facing market queries: per-coin snapshots,
// trending coins, and global dominance. Raw market data is cached briefly in
// Redis so repeated requests for a hot coin don't burn API quota; the cache
// is optional (nil client disables it).
type MarketService struct {
	tracer     trace.Tracer
	provider   MarketDataProvider
	redis      RedisClient
	vsCurrency string
}

func NewMarketService(
	tracer trace.Tracer,
	provider MarketDataProvider,
	redisClient RedisClient,
	vsCurrency string,
) *MarketService {
	return &MarketService{
		tracer:     tracer,
		provider:   provider,
		redis:      redisClient,
		vsCurrency: vsCurrency,
	}
}

// Snapshot fetches current market data for a resolved coin id and formats
// it for display.
func (s *MarketService) Snapshot(ctx context.Context, id string) (*domain.MarketSnapshot, error) {
	_, span := s.tracer.Start(ctx, "market-service.snapshot")
	defer span.End()

	if s.redis != nil {
		cached, err := s.getMarketCache(ctx, id)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			return FormatSnapshot(cached), nil
		}
	}

	md, err := s.provider.MarketData(ctx, id, s.vsCurrency)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.setMarketCache(ctx, id, md); err != nil {
			log.Printf("redis cache write error for %s: %v", id, err)
		}
	}

	return FormatSnapshot(md), nil
}

// Trending returns the currently trending coin names in provider order.
func (s *MarketService) Trending(ctx context.Context) ([]string, error) {
	_, span := s.tracer.Start(ctx, "market-service.trending")
	defer span.End()

	return s.provider.TrendingCoins(ctx)
}

// Dominance returns each asset's share of global market cap in provider
// order, with percentages formatted to two decimals.
func (s *MarketService) Dominance(ctx context.Context) ([]domain.MarketShare, error) {
	_, span := s.tracer.Start(ctx, "market-service.dominance")
	defer span.End()

	return s.provider.GlobalMarketShare(ctx)
}

// FormatShare renders one dominance row as "SYM: 57.31%".
func FormatShare(share domain.MarketShare) string {
	return share.Symbol + ": " + formatPercent(share.Percent)
}

// LivePrice returns the current spot price for a coin id.
func (s *MarketService) LivePrice(ctx context.Context, id string) (float64, error) {
	_, span := s.tracer.Start(ctx, "market-service.live-price")
	defer span.End()

	return s.provider.SimplePrice(ctx, id, s.vsCurrency)
}

func (s *MarketService) setMarketCache(ctx context.Context, id string, md *domain.MarketData) error {
	data, err := json.Marshal(md)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, "market:"+id, data, marketCacheTTL).Err()
}

func (s *MarketService) getMarketCache(ctx context.Context, id string) (*domain.MarketData, error) {
	data, err := s.redis.Get(ctx, "market:"+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var md domain.MarketData
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, err
	}
	return &md, nil
}
