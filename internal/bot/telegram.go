package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"coinwatch/internal/catalog"
	"coinwatch/internal/chart"
	"coinwatch/internal/domain"
	"coinwatch/internal/presence"
	"coinwatch/internal/service"

	tele "gopkg.in/telebot.v3"
)

// requestTimeout bounds one coin pipeline so a hung upstream call stalls
// only that request.
const requestTimeout = 60 * time.Second

const listSeparator = "-------------------------------------"

func StartTelegramBot(
	cat *catalog.Catalog,
	market *service.MarketService,
	charts *chart.Renderer,
	status *presence.State,
) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	h := &botHandler{catalog: cat, market: market, charts: charts, status: status}
	b.Handle(tele.OnText, h.onText)

	log.Println("Telegram bot started")
	go b.Start()
}

type botHandler struct {
	catalog *catalog.Catalog
	market  *service.MarketService
	charts  *chart.Renderer
	status  *presence.State
}

// conversation is the slice of the chat surface the coin pipeline talks to:
// the transient notice and the final photo reply.
type conversation interface {
	SendText(text string) (*tele.Message, error)
	EditText(msg *tele.Message, text string) error
	DeleteMessage(msg *tele.Message) error
	SendPhoto(path, caption string) error
}

// teleConversation adapts a live tele.Context to the conversation interface.
type teleConversation struct {
	c tele.Context
}

func (t teleConversation) SendText(text string) (*tele.Message, error) {
	return t.c.Bot().Send(t.c.Chat(), text)
}

func (t teleConversation) EditText(msg *tele.Message, text string) error {
	_, err := t.c.Bot().Edit(msg, text)
	return err
}

func (t teleConversation) DeleteMessage(msg *tele.Message) error {
	return t.c.Bot().Delete(msg)
}

func (t teleConversation) SendPhoto(path, caption string) error {
	return t.c.Send(&tele.Photo{
		File:    tele.FromDisk(path),
		Caption: caption,
	})
}

// onText dispatches $-prefixed messages: reserved commands first, anything
// else is treated as a coin token.
func (h *botHandler) onText(c tele.Context) error {
	cmd, ok := parseCommand(c.Text())
	if !ok {
		return nil
	}

	switch cmd {
	case "help":
		return c.Send(h.helpText())
	case "trending":
		return h.sendTrending(c)
	case "market_dominance":
		return h.sendDominance(c)
	default:
		return h.sendCoinReply(teleConversation{c: c}, cmd)
	}
}

// parseCommand lowercases the message, strips spaces, and peels off the $
// prefix. Returns false for anything that isn't a command.
func parseCommand(text string) (string, bool) {
	text = strings.ToLower(strings.ReplaceAll(text, " ", ""))
	if !strings.HasPrefix(text, "$") {
		return "", false
	}
	cmd := strings.TrimPrefix(text, "$")
	if cmd == "" {
		return "", false
	}
	return cmd, true
}

// sendCoinReply runs the full pipeline for one token: transient notice,
// resolve, snapshot, chart, reply, cleanup. The chart file is removed on
// every path once rendered, send failures included.
func (h *botHandler) sendCoinReply(conv conversation, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	notice, err := conv.SendText(fmt.Sprintf("Checking %s...", token))
	if err != nil {
		log.Printf("failed to send checking notice: %v", err)
		notice = nil
	}

	id, err := h.catalog.Resolve(token)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return h.replaceNotice(conv, notice,
				fmt.Sprintf("I don't know %q. Try the ticker symbol or the full coin id, or $help.", token))
		}
		return err
	}

	snapshot, err := h.market.Snapshot(ctx, id)
	if err != nil {
		log.Printf("snapshot error for %s: %v", id, err)
		return h.replaceNotice(conv, notice,
			fmt.Sprintf("Could not fetch market data for %s right now, try again later.", token))
	}

	artifact, err := h.charts.Render(ctx, id)
	if err != nil {
		log.Printf("chart render error for %s: %v", id, err)
		return h.replaceNotice(conv, notice,
			fmt.Sprintf("Could not chart %s right now, try again later.", token))
	}
	defer func() {
		if err := artifact.Remove(); err != nil {
			log.Printf("error deleting chart file %s: %v", artifact.Path, err)
		}
	}()

	if err := conv.SendPhoto(artifact.Path, coinCaption(snapshot)); err != nil {
		h.deleteNotice(conv, notice)
		return err
	}

	h.deleteNotice(conv, notice)
	return nil
}

func (h *botHandler) sendTrending(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	names, err := h.market.Trending(ctx)
	if err != nil {
		log.Printf("trending fetch error: %v", err)
		return c.Send("Could not fetch trending coins right now, try again later.")
	}
	return c.Send(trendingReply(names))
}

func (h *botHandler) sendDominance(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	shares, err := h.market.Dominance(ctx)
	if err != nil {
		log.Printf("dominance fetch error: %v", err)
		return c.Send("Could not fetch market dominance right now, try again later.")
	}
	return c.Send(dominanceReply(shares))
}

func (h *botHandler) helpText() string {
	text := `Place '$' before a coin's ticker symbol or id to get its market stats and a 7-day chart. For example $eth or $ethereum.
List of available commands:
$trending
$market_dominance`
	if live := h.status.Text(); live != "" {
		text += "\n\nLive: " + live
	}
	return text
}

// replaceNotice edits the transient notice into the final text, falling
// back to a plain send if the notice never went out.
func (h *botHandler) replaceNotice(conv conversation, notice *tele.Message, text string) error {
	if notice == nil {
		_, err := conv.SendText(text)
		return err
	}
	return conv.EditText(notice, text)
}

func (h *botHandler) deleteNotice(conv conversation, notice *tele.Message) {
	if notice == nil {
		return
	}
	if err := conv.DeleteMessage(notice); err != nil {
		log.Printf("failed to delete checking notice: %v", err)
	}
}

// coinCaption renders the snapshot fields in their fixed display order.
// The market cap gets its $ prefix here, not in the snapshot.
func coinCaption(s *domain.MarketSnapshot) string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Current Price 💵: %s\n", s.Price)
	fmt.Fprintf(&b, "Circulating Supply 🪙: %s\n", s.CirculatingSupply)
	fmt.Fprintf(&b, "Market Cap 🤑: $%s\n", s.MarketCap)
	fmt.Fprintf(&b, "24h-High ⬆️: %s\n", s.High24h)
	fmt.Fprintf(&b, "24h-Low ⬇️: %s\n", s.Low24h)
	fmt.Fprintf(&b, "Price Change 24h ⏰: %s\n", s.Change24hPct)
	fmt.Fprintf(&b, "All Time High 👑: %s\n", s.ATHPrice)
	fmt.Fprintf(&b, "ATH Percent Change 📊: %s\n", s.ATHChangePct)
	fmt.Fprintf(&b, "ATL 😢: %s", s.ATLPrice)
	return b.String()
}

func trendingReply(names []string) string {
	var b strings.Builder
	b.WriteString("Top 7 trending search coins\n")
	b.WriteString(listSeparator)
	b.WriteString("\n")
	for i, name := range names {
		fmt.Fprintf(&b, "(%d). %s \n", i+1, name)
	}
	return b.String()
}

func dominanceReply(shares []domain.MarketShare) string {
	var b strings.Builder
	b.WriteString("Market Cap Percentage\n")
	b.WriteString(listSeparator)
	b.WriteString("\n")
	for i, share := range shares {
		fmt.Fprintf(&b, "(%d). %s \n", i+1, service.FormatShare(share))
	}
	return b.String()
}
