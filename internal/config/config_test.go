package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAYMENT_PROVIDER", "")
	t.Setenv("PRODUCT_PRICES", "")
	t.Setenv("ADMIN_TELEGRAM_ID", "7961083543")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Payment.Provider != ProviderAtlantic {
		t.Errorf("provider = %q; want %q", cfg.Payment.Provider, ProviderAtlantic)
	}
	if cfg.Telegram.AdminID != 7961083543 {
		t.Errorf("admin id = %d", cfg.Telegram.AdminID)
	}
	if cfg.Prices["1gb"] != 1000 {
		t.Errorf("1gb price = %d; want 1000", cfg.Prices["1gb"])
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown provider", key: "PAYMENT_PROVIDER", val: "paypal"},
		{name: "non numeric admin id", key: "ADMIN_TELEGRAM_ID", val: "abc"},
		{name: "broken prices json", key: "PRODUCT_PRICES", val: "{1gb:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PAYMENT_PROVIDER", "")
			t.Setenv("ADMIN_TELEGRAM_ID", "")
			t.Setenv("PRODUCT_PRICES", "")
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q succeeded; want error", tt.key, tt.val)
			}
		})
	}
}

func TestParsePricesOverride(t *testing.T) {
	prices, err := parsePrices(`{"1gb": 1500, "ceo": 0}`)
	if err != nil {
		t.Fatalf("parsePrices() error = %v", err)
	}
	if prices["1gb"] != 1500 || len(prices) != 2 {
		t.Errorf("parsePrices() = %v", prices)
	}
}
