// Package config содержит логику чтения конфигурации шлюза данных магазина.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации шлюза.
type Config struct {
	RunAddress   string `env:"RUN_ADDRESS"`
	SheetBaseURL string `env:"SHEET_BASE_URL"`
	SheetID      string `env:"SHEET_ID"`
	WebhookURL   string `env:"WEBHOOK_URL"`

	PixKey       string `env:"PIX_KEY"`
	MerchantName string `env:"MERCHANT_NAME"`
	MerchantCity string `env:"MERCHANT_CITY"`
	PixTxID      string `env:"PIX_TXID"`

	CatalogTabs []string `env:"CATALOG_TABS" envSeparator:","`
	Admins      []string `env:"IMMUTABLE_ADMINS" envSeparator:","`

	SettleDelay     time.Duration `env:"SETTLE_DELAY"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL"`

	SessionSecret string `env:"SESSION_SECRET"`
}

// Значения по умолчанию для локального запуска.
var (
	defaultCatalogTabs = []string{
		"ÉTICOS",
		"GENERICO",
		"DERMOCOSMETICO",
		"PERFUMARIA",
		"COSMETICOS",
		"MED ISENTOS",
		"FORMULAS",
		"OTC",
		"TERMOLABEIS",
	}
	defaultAdmins = []string{"11989854661", "11990123519"}
)

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envSheetID := cfg.SheetID
	envWebhookURL := cfg.WebhookURL

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.SheetID, "s", "", "spreadsheet identifier")
	flag.StringVar(&cfg.WebhookURL, "w", "", "write webhook URL")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envSheetID != "" {
		cfg.SheetID = envSheetID
	}
	if envWebhookURL != "" {
		cfg.WebhookURL = envWebhookURL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.SheetBaseURL == "" {
		cfg.SheetBaseURL = "https://docs.google.com/spreadsheets/d"
	}
	if cfg.PixKey == "" {
		cfg.PixKey = "+5511991818307"
	}
	if cfg.MerchantName == "" {
		cfg.MerchantName = "DROGA VEGA"
	}
	if cfg.MerchantCity == "" {
		cfg.MerchantCity = "SAO PAULO"
	}
	if cfg.PixTxID == "" {
		cfg.PixTxID = "DROGAVEGA01"
	}
	if len(cfg.CatalogTabs) == 0 {
		cfg.CatalogTabs = defaultCatalogTabs
	}
	if len(cfg.Admins) == 0 {
		cfg.Admins = defaultAdmins
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 7 * time.Second
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 5 * time.Minute
	}

	return cfg, nil
}
