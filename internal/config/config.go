package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	TelegramBotToken string
	RedisURL         string
	APIKey           string

	HTTPPort           string
	VSCurrency         string
	CatalogRefreshMins int
	PresenceTickSecs   int
	PresenceCoinID     string
	PresenceCoinSymbol string
	ImagesDir          string
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		RedisURL:         os.Getenv("REDIS_URL"),
		APIKey:           os.Getenv("API_KEY"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.HTTPPort = strings.TrimSpace(os.Getenv("HTTP_PORT"))
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}

	cfg.VSCurrency = strings.ToLower(strings.TrimSpace(os.Getenv("VS_CURRENCY")))
	if cfg.VSCurrency == "" {
		cfg.VSCurrency = "usd"
	}

	// The catalog is huge and changes rarely; daily is the deployment
	// default, the 1-minute legacy cadence is just a smaller value here.
	cfg.CatalogRefreshMins = 1440
	if v := os.Getenv("CATALOG_REFRESH_MINS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CatalogRefreshMins = n
		}
	}

	cfg.PresenceTickSecs = 60
	if v := os.Getenv("PRESENCE_TICK_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PresenceTickSecs = n
		}
	}

	cfg.PresenceCoinID = strings.TrimSpace(os.Getenv("PRESENCE_COIN_ID"))
	if cfg.PresenceCoinID == "" {
		cfg.PresenceCoinID = "bitcoin"
	}

	cfg.PresenceCoinSymbol = strings.ToUpper(strings.TrimSpace(os.Getenv("PRESENCE_COIN_SYMBOL")))
	if cfg.PresenceCoinSymbol == "" {
		cfg.PresenceCoinSymbol = "BTC"
	}

	cfg.ImagesDir = strings.TrimSpace(os.Getenv("IMAGES_DIR"))
	if cfg.ImagesDir == "" {
		cfg.ImagesDir = "images"
	}

	return cfg
}
