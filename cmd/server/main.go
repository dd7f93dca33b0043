package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinwatch/internal/bot"
	"coinwatch/internal/cache"
	"coinwatch/internal/catalog"
	"coinwatch/internal/chart"
	"coinwatch/internal/config"
	"coinwatch/internal/handler"
	"coinwatch/internal/job"
	"coinwatch/internal/presence"
	"coinwatch/internal/provider"
	"coinwatch/internal/service"
	"coinwatch/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "coinwatch/docs"
)

var (
	loadEnvFunc        = godotenv.Load
	loadConfigFunc     = config.Load
	initRedisFunc      = cache.InitRedis
	initTracerFunc     = tracing.InitTracer
	newProviderFunc    = provider.NewCoinGeckoProvider
	startRefresherFunc = func(r *job.CatalogRefresher, ctx context.Context) { go r.Start(ctx) }
	startTickerFunc    = func(p *job.PresenceTicker, ctx context.Context) { go p.Start(ctx) }
	startTelegramBot   = bot.StartTelegramBot
	newHandlerFunc     = handler.New
	newRouterFunc      = gin.Default
	setupSignalNotify  = signal.Notify
	waitForSignalFunc  = func(quit <-chan os.Signal) { <-quit }
	startHTTPServer    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServer = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Coinwatch API
// @version         1.0
// @description     Crypto market snapshots, trending coins, and market dominance.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	cgProvider := newProviderFunc(tracer)
	coinCatalog := catalog.New()
	marketService := service.NewMarketService(tracer, cgProvider, cache.Client, cfg.VSCurrency)
	chartRenderer := chart.NewRenderer(tracer, cgProvider, cfg.ImagesDir, cfg.VSCurrency)
	status := presence.NewState()

	// Background jobs, stopped by ctx cancel.
	refresher := job.NewCatalogRefresher(tracer, cgProvider, coinCatalog, cfg.CatalogRefreshMins)
	startRefresherFunc(refresher, ctx)

	ticker := job.NewPresenceTicker(tracer, marketService, status,
		cfg.PresenceCoinID, cfg.PresenceCoinSymbol, cfg.PresenceTickSecs)
	startTickerFunc(ticker, ctx)

	// Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBot(coinCatalog, marketService, chartRenderer, status)

	// HTTP API
	h := newHandlerFunc(tracer, coinCatalog, marketService, status)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("coinwatch"))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	go func() {
		if err := startHTTPServer(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServer(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
