package service

import (
	"math"
	"strings"

	"coinwatch/internal/domain"

	"github.com/dustin/go-humanize"
)

// FormatSnapshot turns raw market data into the display strings sent to
// users. Currency fields keep whatever precision the API returned; the 24h
// percent change is rounded to two decimals while the ATH percent change is
// deliberately left unrounded.
func FormatSnapshot(md *domain.MarketData) *domain.MarketSnapshot {
	return &domain.MarketSnapshot{
		Name:              md.Name,
		ImageURL:          md.Image,
		Price:             formatCurrency(md.CurrentPrice),
		CirculatingSupply: formatAmount(md.CirculatingSupply),
		MarketCap:         formatAmount(md.MarketCap),
		High24h:           formatCurrency(md.High24h),
		Low24h:            formatCurrency(md.Low24h),
		Change24hPct:      formatPercent(md.PriceChangePct24h),
		ATHPrice:          formatCurrency(md.ATH),
		ATHChangePct:      formatPercentExact(md.ATHChangePercentage),
		ATLPrice:          formatCurrency(md.ATL),
	}
}

func formatCurrency(v float64) string {
	return "$" + humanize.Commaf(v)
}

func formatAmount(v float64) string {
	return humanize.Commaf(v)
}

// formatPercent rounds to two decimals, half away from zero. The rounded
// value always shows at least one decimal digit ("2.0%", not "2%").
func formatPercent(v float64) string {
	rounded := math.Round(v*100) / 100
	s := humanize.Commaf(rounded)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "%"
}

// formatPercentExact passes the raw value through without rounding.
func formatPercentExact(v float64) string {
	return humanize.Commaf(v) + "%"
}
