package job

import (
	"context"
	"log"
	"time"

	"coinwatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// CoinLister fetches the full coin list from the market-data provider.
type CoinLister interface {
	ListCoins(ctx context.Context) ([]domain.CoinEntry, error)
}

// CatalogStore receives wholesale catalog replacements.
type CatalogStore interface {
	Replace(entries []domain.CoinEntry)
	Len() int
}

// CatalogRefresher periodically rebuilds the coin catalog. A failed fetch
// leaves the previous catalog in place and the next tick proceeds normally.
type CatalogRefresher struct {
	tracer   trace.Tracer
	provider CoinLister
	catalog  CatalogStore
	interval time.Duration
}

func NewCatalogRefresher(tracer trace.Tracer, provider CoinLister, catalog CatalogStore, intervalMins int) *CatalogRefresher {
	return &CatalogRefresher{
		tracer:   tracer,
		provider: provider,
		catalog:  catalog,
		interval: time.Duration(intervalMins) * time.Minute,
	}
}

// Start refreshes once immediately, then on every tick. Blocks until ctx is
// cancelled.
func (r *CatalogRefresher) Start(ctx context.Context) {
	log.Println("Catalog refresher starting...")

	if err := r.Refresh(ctx); err != nil {
		log.Printf("catalog refresher initial run error: %v", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Catalog refresher stopped")
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				log.Printf("catalog refresher error: %v", err)
			}
		}
	}
}

// Refresh fetches the coin list and swaps it in wholesale.
func (r *CatalogRefresher) Refresh(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "catalog-refresher.refresh")
	defer span.End()

	entries, err := r.provider.ListCoins(ctx)
	if err != nil {
		return err
	}

	r.catalog.Replace(entries)
	log.Printf("Refreshed coin catalog (%d coins)", r.catalog.Len())
	return nil
}
