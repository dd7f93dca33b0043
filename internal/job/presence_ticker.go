package job

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// LivePriceFetcher returns the current spot price for a coin id.
type LivePriceFetcher interface {
	LivePrice(ctx context.Context, id string) (float64, error)
}

// PresencePublisher receives the status line to expose.
type PresencePublisher interface {
	PublishPresence(text string)
}

// PresenceTicker publishes a "BTC @ $97000"-style status line for the
// reference coin on a fixed period. A failed tick is logged and the next
// one proceeds normally.
type PresenceTicker struct {
	tracer    trace.Tracer
	prices    LivePriceFetcher
	publisher PresencePublisher
	coinID    string
	symbol    string
	interval  time.Duration
}

func NewPresenceTicker(
	tracer trace.Tracer,
	prices LivePriceFetcher,
	publisher PresencePublisher,
	coinID, symbol string,
	intervalSecs int,
) *PresenceTicker {
	return &PresenceTicker{
		tracer:    tracer,
		prices:    prices,
		publisher: publisher,
		coinID:    coinID,
		symbol:    symbol,
		interval:  time.Duration(intervalSecs) * time.Second,
	}
}

// Start ticks once immediately, then on every interval. Blocks until ctx is
// cancelled.
func (p *PresenceTicker) Start(ctx context.Context) {
	log.Println("Presence ticker starting...")

	if err := p.Tick(ctx); err != nil {
		log.Printf("presence ticker initial run error: %v", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Presence ticker stopped")
			return
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				log.Printf("presence ticker error: %v", err)
			}
		}
	}
}

// Tick fetches the reference price and publishes the status line.
func (p *PresenceTicker) Tick(ctx context.Context) error {
	_, span := p.tracer.Start(ctx, "presence-ticker.tick")
	defer span.End()

	price, err := p.prices.LivePrice(ctx, p.coinID)
	if err != nil {
		return err
	}

	p.publisher.PublishPresence(fmt.Sprintf("%s @ $%s", p.symbol, strconv.FormatFloat(price, 'f', -1, 64)))
	return nil
}
