package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"autobuy_panel_echo/internal/models"
)

// Config aggregates application configuration values.
type Config struct {
	Port     string
	DataDir  string
	Prices   map[string]int64
	Payment  PaymentConfig
	Panel    PanelConfig
	Telegram TelegramConfig
	Schedule ScheduleConfig
	SMTP     SMTPConfig

	DatabaseURL             string
	RedisURL                string
	FirebaseCredentialsPath string
	AdminEmail              string
}

// PaymentConfig selects and configures the QRIS payment gateway.
type PaymentConfig struct {
	Provider          string // atlantic|midtrans
	AtlanticBaseURL   string
	AtlanticAPIKey    string
	MidtransServerKey string
	MidtransClientKey string
	MidtransAcquirer  string
	MidtransIsProd    bool
}

// PanelConfig describes the Pterodactyl application API.
type PanelConfig struct {
	Domain   string
	AppKey   string
	Location int
	Nest     int
	Egg      int
}

// TelegramConfig holds the admin bot credentials.
type TelegramConfig struct {
	BotToken string
	AdminID  int64
}

// SMTPConfig is the optional mail relay for admin notifications.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// ScheduleConfig holds recurrence rules for the background jobs.
type ScheduleConfig struct {
	SweepTransactions string
	CleanupDiscounts  string
}

const (
	ProviderAtlantic = "atlantic"
	ProviderMidtrans = "midtrans"

	defaultPort            = "2001"
	defaultDataDir         = "./database"
	defaultAtlanticBaseURL = "https://atlantich2h.com"
	defaultSweepRule       = "FREQ=MINUTELY;INTERVAL=1"
	defaultCleanupRule     = "FREQ=DAILY;INTERVAL=1"
)

// Load reads configuration from the environment, loading .env first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := Config{
		Port:    valueOrDefault("PORT", defaultPort),
		DataDir: valueOrDefault("DATA_DIR", defaultDataDir),
		Payment: PaymentConfig{
			Provider:          strings.ToLower(valueOrDefault("PAYMENT_PROVIDER", ProviderAtlantic)),
			AtlanticBaseURL:   strings.TrimRight(valueOrDefault("ATLANTIC_BASE_URL", defaultAtlanticBaseURL), "/"),
			AtlanticAPIKey:    os.Getenv("ATLANTIC_API_KEY"),
			MidtransServerKey: os.Getenv("MIDTRANS_SERVER_KEY"),
			MidtransClientKey: os.Getenv("MIDTRANS_CLIENT_KEY"),
			MidtransAcquirer:  valueOrDefault("MIDTRANS_QRIS_ACQUIRER", "gopay"),
			MidtransIsProd:    parseBoolWithDefault("MIDTRANS_IS_PRODUCTION", false),
		},
		Panel: PanelConfig{
			Domain:   strings.TrimRight(os.Getenv("PTERODACTYL_DOMAIN"), "/"),
			AppKey:   os.Getenv("PTERODACTYL_APP_KEY"),
			Location: parseIntWithDefault("PTERODACTYL_LOCATION", 1),
			Nest:     parseIntWithDefault("PTERODACTYL_NEST", 1),
			Egg:      parseIntWithDefault("PTERODACTYL_EGG", 15),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		},
		Schedule: ScheduleConfig{
			SweepTransactions: valueOrDefault("SWEEP_SCHEDULE", defaultSweepRule),
			CleanupDiscounts:  valueOrDefault("DISCOUNT_CLEANUP_SCHEDULE", defaultCleanupRule),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     valueOrDefault("SMTP_PORT", "587"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("EMAIL_FROM"),
		},
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisURL:                os.Getenv("REDIS_URL"),
		FirebaseCredentialsPath: os.Getenv("FIREBASE_CREDENTIALS_PATH"),
		AdminEmail:              os.Getenv("ADMIN_EMAIL"),
	}

	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ADMIN_TELEGRAM_ID %q: %w", v, err)
		}
		cfg.Telegram.AdminID = id
	}

	prices, err := parsePrices(os.Getenv("PRODUCT_PRICES"))
	if err != nil {
		return Config{}, err
	}
	cfg.Prices = prices

	switch cfg.Payment.Provider {
	case ProviderAtlantic, ProviderMidtrans:
	default:
		return Config{}, fmt.Errorf("unsupported PAYMENT_PROVIDER %q", cfg.Payment.Provider)
	}

	return cfg, nil
}

// parsePrices reads a JSON object of product type to rupiah price.
// An empty value yields the default catalogue.
func parsePrices(raw string) (map[string]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return models.DefaultPrices, nil
	}
	var prices map[string]int64
	if err := json.Unmarshal([]byte(raw), &prices); err != nil {
		return nil, fmt.Errorf("invalid PRODUCT_PRICES: %w", err)
	}
	return prices, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}
