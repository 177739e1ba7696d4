package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ImageRule struct {
	Keywords []string `yaml:"keywords"`
	URL      string   `yaml:"url"`
}

type Config struct {
	Env    string `yaml:"env"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	BaseURL string `yaml:"base_url"`
	Shopify struct {
		StoreDomain    string `yaml:"store_domain"`
		AdminToken     string `yaml:"admin_token"`
		APIKey         string `yaml:"api_key"`
		WebhookSecret  string `yaml:"webhook_secret"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"shopify"`
	Wayl struct {
		APIKey         string `yaml:"api_key"`
		APIBase        string `yaml:"api_base"`
		PayBase        string `yaml:"pay_base"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"wayl"`
	Payment struct {
		SettlementCurrency string             `yaml:"settlement_currency"`
		BaseRate           int64              `yaml:"base_rate"`
		MinAmount          int64              `yaml:"min_amount"`
		Multipliers        map[string]float64 `yaml:"multipliers"`
	} `yaml:"payment"`
	FreeRules struct {
		Keywords []string `yaml:"keywords"`
		Discount struct {
			Enabled    bool    `yaml:"enabled"`
			MinPercent int     `yaml:"min_percent"`
			MaxPrice   float64 `yaml:"max_price"`
		} `yaml:"discount"`
	} `yaml:"free_rules"`
	Images struct {
		Rules    []ImageRule `yaml:"rules"`
		Fallback string      `yaml:"fallback"`
		Shipping string      `yaml:"shipping"`
		Tax      string      `yaml:"tax"`
		Order    string      `yaml:"order"`
	} `yaml:"images"`
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.Server.Addr == "" {
		return nil, errors.New("server.addr is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("base_url is required")
	}
	if cfg.Shopify.StoreDomain == "" || cfg.Shopify.AdminToken == "" {
		return nil, errors.New("shopify config is incomplete")
	}
	if cfg.Wayl.APIKey == "" {
		return nil, errors.New("wayl.api_key is required")
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NODE_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("SHOPIFY_STORE_DOMAIN"); v != "" {
		cfg.Shopify.StoreDomain = v
	}
	if v := os.Getenv("SHOPIFY_ADMIN_TOKEN"); v != "" {
		cfg.Shopify.AdminToken = v
	}
	if v := os.Getenv("SHOPIFY_API_KEY"); v != "" {
		cfg.Shopify.APIKey = v
	}
	if v := os.Getenv("SHOPIFY_WEBHOOK_SECRET"); v != "" {
		cfg.Shopify.WebhookSecret = v
	}
	if v := os.Getenv("WAYL_API_KEY"); v != "" {
		cfg.Wayl.APIKey = v
	}
	if v := os.Getenv("WAYL_API_BASE"); v != "" {
		cfg.Wayl.APIBase = v
	}
	if v := os.Getenv("SETTLEMENT_CURRENCY"); v != "" {
		cfg.Payment.SettlementCurrency = v
	}
	if v := os.Getenv("BASE_RATE"); v != "" {
		cfg.Payment.BaseRate = atoi64Or(cfg.Payment.BaseRate, v)
	}
	if v := os.Getenv("MIN_AMOUNT"); v != "" {
		cfg.Payment.MinAmount = atoi64Or(cfg.Payment.MinAmount, v)
	}
	if v := os.Getenv("FREE_KEYWORDS"); v != "" {
		cfg.FreeRules.Keywords = splitCommaList(v)
	}
	if v := os.Getenv("FREE_DISCOUNT_ENABLED"); v != "" {
		cfg.FreeRules.Discount.Enabled = v == "true" || v == "1"
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Wayl.APIBase == "" {
		cfg.Wayl.APIBase = "https://api.thewayl.com"
	}
	if cfg.Wayl.PayBase == "" {
		cfg.Wayl.PayBase = "https://link.thewayl.com/pay"
	}
	if cfg.Shopify.TimeoutSeconds <= 0 {
		cfg.Shopify.TimeoutSeconds = 15
	}
	if cfg.Wayl.TimeoutSeconds <= 0 {
		cfg.Wayl.TimeoutSeconds = 20
	}
	if cfg.Payment.SettlementCurrency == "" {
		cfg.Payment.SettlementCurrency = "IQD"
	}
	if cfg.Payment.BaseRate <= 0 {
		cfg.Payment.BaseRate = 1320
	}
	if cfg.Payment.MinAmount <= 0 {
		cfg.Payment.MinAmount = 1000
	}
	if cfg.Payment.Multipliers == nil {
		cfg.Payment.Multipliers = map[string]float64{
			"EUR": 1.1,
			"GBP": 1.25,
		}
	}
	if len(cfg.FreeRules.Keywords) == 0 {
		cfg.FreeRules.Keywords = []string{"free"}
	}
	if cfg.FreeRules.Discount.MinPercent <= 0 {
		cfg.FreeRules.Discount.MinPercent = 70
	}
	if cfg.FreeRules.Discount.MaxPrice <= 0 {
		cfg.FreeRules.Discount.MaxPrice = 5
	}
	if cfg.Images.Fallback == "" {
		cfg.Images.Fallback = "https://via.placeholder.com/150/4CAF50/ffffff?text=Product"
	}
	if cfg.Images.Shipping == "" {
		cfg.Images.Shipping = "https://via.placeholder.com/150/2196F3/ffffff?text=Shipping"
	}
	if cfg.Images.Tax == "" {
		cfg.Images.Tax = "https://via.placeholder.com/150/FF9800/ffffff?text=Tax"
	}
	if cfg.Images.Order == "" {
		cfg.Images.Order = "https://via.placeholder.com/150/4CAF50/ffffff?text=Order"
	}
}

func splitCommaList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func atoi64Or(fallback int64, v string) int64 {
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}
