package bot

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"coinwatch/internal/catalog"
	"coinwatch/internal/chart"
	"coinwatch/internal/domain"
	"coinwatch/internal/presence"
	"coinwatch/internal/service"

	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	StartTelegramBot(nil, nil, nil, nil)
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"$btc", "btc", true},
		{"$BTC", "btc", true},
		{"$ B T C ", "btc", true},
		{"$market_dominance", "market_dominance", true},
		{"$", "", false},
		{"hello", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := parseCommand(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("parseCommand(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCoinCaptionFieldOrder(t *testing.T) {
	t.Parallel()

	snap := &domain.MarketSnapshot{
		Name:              "Bitcoin",
		Price:             "$50,000",
		CirculatingSupply: "19,000,000",
		MarketCap:         "950,000,000,000",
		High24h:           "$51,000",
		Low24h:            "$49,000",
		Change24hPct:      "2.0%",
		ATHPrice:          "$69,000",
		ATHChangePct:      "-27.5%",
		ATLPrice:          "$65",
	}

	caption := coinCaption(snap)

	if !strings.HasPrefix(caption, "Bitcoin\n") {
		t.Fatalf("caption must lead with the coin name: %q", caption)
	}
	// The cap carries a $ prefix only at assembly time.
	if !strings.Contains(caption, "Market Cap 🤑: $950,000,000,000") {
		t.Fatalf("market cap missing assembly-time $: %q", caption)
	}
	// Fields appear in the fixed order.
	order := []string{
		"Current Price", "Circulating Supply", "Market Cap",
		"24h-High", "24h-Low", "Price Change 24h",
		"All Time High", "ATH Percent Change", "ATL",
	}
	idx := -1
	for _, field := range order {
		at := strings.Index(caption, field)
		if at < 0 {
			t.Fatalf("missing field %q in caption", field)
		}
		if at < idx {
			t.Fatalf("field %q out of order", field)
		}
		idx = at
	}
}

func TestTrendingReply(t *testing.T) {
	t.Parallel()

	reply := trendingReply([]string{"Pepe", "Solana"})
	if !strings.Contains(reply, "(1). Pepe \n") || !strings.Contains(reply, "(2). Solana \n") {
		t.Fatalf("unexpected trending reply: %q", reply)
	}
}

func TestTrendingReplyEmpty(t *testing.T) {
	t.Parallel()

	reply := trendingReply(nil)
	if !strings.Contains(reply, "Top 7 trending search coins") {
		t.Fatalf("missing header: %q", reply)
	}
	if strings.Contains(reply, "(1).") {
		t.Fatalf("empty list must have no numbered rows: %q", reply)
	}
}

func TestDominanceReply(t *testing.T) {
	t.Parallel()

	reply := dominanceReply([]domain.MarketShare{
		{Symbol: "btc", Percent: 57.316},
		{Symbol: "eth", Percent: 12.9},
	})
	if !strings.Contains(reply, "(1). btc: 57.32% \n") {
		t.Fatalf("unexpected first row: %q", reply)
	}
	if !strings.Contains(reply, "(2). eth: 12.9% \n") {
		t.Fatalf("unexpected second row: %q", reply)
	}
}

func TestHelpTextIncludesPresence(t *testing.T) {
	t.Parallel()

	status := presence.NewState()
	h := &botHandler{status: status}

	if strings.Contains(h.helpText(), "Live:") {
		t.Fatal("help must omit the live line before the first tick")
	}

	status.PublishPresence("BTC @ $97000")
	if !strings.Contains(h.helpText(), "Live: BTC @ $97000") {
		t.Fatalf("help missing live presence: %q", h.helpText())
	}
}

// fakeConversation records the chat traffic of one pipeline run. SendPhoto
// checks whether the chart file is on disk at send time, so tests can tell
// "removed after the send" apart from "never written".
type fakeConversation struct {
	photoErr error

	texts       []string
	edits       []string
	deleted     int
	photoPath   string
	caption     string
	photoOnDisk bool
	nextID      int
}

func (f *fakeConversation) SendText(text string) (*tele.Message, error) {
	f.texts = append(f.texts, text)
	f.nextID++
	return &tele.Message{ID: f.nextID}, nil
}

func (f *fakeConversation) EditText(msg *tele.Message, text string) error {
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeConversation) DeleteMessage(msg *tele.Message) error {
	f.deleted++
	return nil
}

func (f *fakeConversation) SendPhoto(path, caption string) error {
	f.photoPath = path
	f.caption = caption
	_, err := os.Stat(path)
	f.photoOnDisk = err == nil
	return f.photoErr
}

// fakeUpstream backs both the market service and the chart renderer.
type fakeUpstream struct {
	md         *domain.MarketData
	mdErr      error
	points     []domain.PricePoint
	historyErr error
}

func (f *fakeUpstream) MarketData(ctx context.Context, id, vsCurrency string) (*domain.MarketData, error) {
	return f.md, f.mdErr
}

func (f *fakeUpstream) GlobalMarketShare(ctx context.Context) ([]domain.MarketShare, error) {
	return nil, nil
}

func (f *fakeUpstream) TrendingCoins(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeUpstream) SimplePrice(ctx context.Context, id, vsCurrency string) (float64, error) {
	return 0, nil
}

func (f *fakeUpstream) PriceHistory(ctx context.Context, id, vsCurrency string, days int) ([]domain.PricePoint, error) {
	return f.points, f.historyErr
}

func bitcoinUpstream() *fakeUpstream {
	points := make([]domain.PricePoint, 24)
	for i := range points {
		points[i] = domain.PricePoint{
			TimestampMS: 1700000000000 + int64(i)*3600000,
			Price:       50000 + float64(i),
		}
	}
	return &fakeUpstream{
		md:     &domain.MarketData{ID: "bitcoin", Name: "Bitcoin", CurrentPrice: 50000},
		points: points,
	}
}

func newTestBotHandler(t *testing.T, upstream *fakeUpstream) *botHandler {
	t.Helper()

	cat := catalog.New()
	cat.Replace([]domain.CoinEntry{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"}})

	return &botHandler{
		catalog: cat,
		market:  service.NewMarketService(testTracer, upstream, nil, "usd"),
		charts:  chart.NewRenderer(testTracer, upstream, t.TempDir(), "usd"),
		status:  presence.NewState(),
	}
}

func TestSendCoinReplyRemovesChartAfterSend(t *testing.T) {
	t.Parallel()

	h := newTestBotHandler(t, bitcoinUpstream())
	conv := &fakeConversation{}

	if err := h.sendCoinReply(conv, "btc"); err != nil {
		t.Fatalf("sendCoinReply: %v", err)
	}
	if conv.photoPath == "" {
		t.Fatal("no photo sent")
	}
	if !conv.photoOnDisk {
		t.Fatal("chart file must exist while the photo is being sent")
	}
	if _, err := os.Stat(conv.photoPath); !os.IsNotExist(err) {
		t.Fatalf("chart file %s must be removed after the reply", conv.photoPath)
	}
	if !strings.Contains(conv.caption, "Bitcoin") {
		t.Fatalf("caption missing coin name: %q", conv.caption)
	}
	if len(conv.texts) != 1 || !strings.Contains(conv.texts[0], "Checking btc...") {
		t.Fatalf("unexpected notice traffic: %v", conv.texts)
	}
	if conv.deleted != 1 {
		t.Fatalf("checking notice must be deleted once, got %d", conv.deleted)
	}
}

func TestSendCoinReplyRemovesChartWhenSendFails(t *testing.T) {
	t.Parallel()

	h := newTestBotHandler(t, bitcoinUpstream())
	conv := &fakeConversation{photoErr: errors.New("telegram down")}

	if err := h.sendCoinReply(conv, "btc"); err == nil {
		t.Fatal("want error from failed photo send")
	}
	if !conv.photoOnDisk {
		t.Fatal("chart file must exist while the photo is being sent")
	}
	if _, err := os.Stat(conv.photoPath); !os.IsNotExist(err) {
		t.Fatalf("chart file %s must be removed even when the send fails", conv.photoPath)
	}
	if conv.deleted != 1 {
		t.Fatalf("checking notice must still be deleted, got %d deletes", conv.deleted)
	}
}

func TestSendCoinReplyUnknownTokenEditsNotice(t *testing.T) {
	t.Parallel()

	h := newTestBotHandler(t, bitcoinUpstream())
	conv := &fakeConversation{}

	if err := h.sendCoinReply(conv, "nosuchcoin"); err != nil {
		t.Fatalf("sendCoinReply: %v", err)
	}
	if len(conv.edits) != 1 || !strings.Contains(conv.edits[0], `I don't know "nosuchcoin"`) {
		t.Fatalf("notice must be edited to the not-found message: %v", conv.edits)
	}
	if conv.photoPath != "" {
		t.Fatal("no photo may be sent for an unknown token")
	}
	if conv.deleted != 0 {
		t.Fatalf("not-found keeps the edited notice, got %d deletes", conv.deleted)
	}
}

func TestSendCoinReplyMarketErrorEditsNotice(t *testing.T) {
	t.Parallel()

	upstream := bitcoinUpstream()
	upstream.mdErr = errors.New("upstream offline")
	h := newTestBotHandler(t, upstream)
	conv := &fakeConversation{}

	if err := h.sendCoinReply(conv, "btc"); err != nil {
		t.Fatalf("sendCoinReply: %v", err)
	}
	if len(conv.edits) != 1 || !strings.Contains(conv.edits[0], "Could not fetch market data") {
		t.Fatalf("notice must be edited to the failure message: %v", conv.edits)
	}
	if conv.photoPath != "" {
		t.Fatal("no photo may be sent when market data fails")
	}
}
