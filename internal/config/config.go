package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Bot      BotConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Billing  BillingConfig
	Batch    BatchConfig
	Storage  StorageConfig
	Offer    OfferConfig
	Logging  LoggingConfig
}

type BotConfig struct {
	Token         string
	AdminID       int64
	ProviderToken string
	Currency      string
	PollTimeout   time.Duration
}

type PostgresConfig struct {
	DSN      string
	Host     string
	Port     string
	DB       string
	User     string
	Password string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Prefix   string
	StateTTL time.Duration
}

type BillingConfig struct {
	FilePrice         int64
	MinExternalCharge int64
	ReferralReward    int64
}

type BatchConfig struct {
	Debounce     time.Duration
	AbandonAfter time.Duration
}

type StorageConfig struct {
	Dir           string
	SweepSchedule string
	SweepMaxAge   time.Duration
	DownloadRate  int
}

// OfferConfig holds the public offer links seeded into settings on first start.
type OfferConfig struct {
	UZ string
	RU string
	EN string
}

type LoggingConfig struct {
	Level string
}

var ErrMissingToken = errors.New("BOT_TOKEN is not set")

// Load reads .env.development when it exists, otherwise .env, then the process environment.
func Load() *Config {
	if path, err := LoadEnvFile(".env.development", ".env"); err != nil {
		log.Printf("Failed to load env file: %v", err)
	} else if path == "" {
		log.Println("No .env file found, using environment")
	}

	return &Config{
		Bot: BotConfig{
			Token:         strings.TrimSpace(os.Getenv("BOT_TOKEN")),
			AdminID:       getInt64Env("ADMIN_ID", 0),
			ProviderToken: strings.TrimSpace(os.Getenv("PROVIDER_TOKEN")),
			Currency:      getEnv("PAYMENT_CURRENCY", "UZS"),
			PollTimeout:   getDurationEnv("POLL_TIMEOUT", 50*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:      strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			DB:       getEnv("POSTGRES_DB", "converter_bot"),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntEnv("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "docx_bot"),
			StateTTL: getDurationEnv("USER_STATE_TTL", 24*time.Hour),
		},
		Billing: BillingConfig{
			FilePrice:         getInt64Env("FILE_PRICE", 5000),
			MinExternalCharge: getInt64Env("MIN_EXTERNAL_CHARGE", 1000),
			ReferralReward:    getInt64Env("REFERRAL_REWARD", 1000),
		},
		Batch: BatchConfig{
			Debounce:     getDurationEnv("BATCH_DEBOUNCE", 3*time.Second),
			AbandonAfter: getDurationEnv("BATCH_ABANDON_AFTER", 30*time.Minute),
		},
		Storage: StorageConfig{
			Dir:           getEnv("FILES_DIR", "files"),
			SweepSchedule: getEnv("SWEEP_SCHEDULE", "@every 1h"),
			SweepMaxAge:   getDurationEnv("SWEEP_MAX_AGE", 2*time.Hour),
			DownloadRate:  getIntEnv("DOWNLOAD_RATE", 20),
		},
		Offer: OfferConfig{
			UZ: strings.TrimSpace(os.Getenv("OFFER_URL_UZ")),
			RU: strings.TrimSpace(os.Getenv("OFFER_URL_RU")),
			EN: strings.TrimSpace(os.Getenv("OFFER_URL_EN")),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return ErrMissingToken
	}
	if c.Batch.Debounce <= 0 || c.Batch.AbandonAfter <= 0 {
		return fmt.Errorf("batch timers must be positive: debounce=%s abandon=%s", c.Batch.Debounce, c.Batch.AbandonAfter)
	}
	if c.Billing.FilePrice <= 0 {
		return fmt.Errorf("FILE_PRICE must be positive, got %d", c.Billing.FilePrice)
	}
	return nil
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getInt64Env(key string, defaultValue int64) int64 {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}
