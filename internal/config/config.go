package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPAddr string
	LogLevel logrus.Level

	DatabaseURL string
	RedisAddr   string
	RabbitMQURL string

	JWTSecret string
	QRSecret  string

	PlatformFeePercent float64
	Currency           string

	GatewayURL       string
	GatewayKeyID     string
	GatewayKeySecret string
	GatewayTimeout   time.Duration

	JaegerEndpoint string

	Reaper ReaperConfig

	PrivateAccessTTL time.Duration
}

type ReaperConfig struct {
	Interval           time.Duration
	BookingResponseTTL time.Duration
	BookingPaymentTTL  time.Duration
	TicketHoldTTL      time.Duration
	PaymentTTL         time.Duration
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	fee, err := strconv.ParseFloat(getEnv("PLATFORM_FEE_PERCENT", "10"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid PLATFORM_FEE_PERCENT: %w", err)
	}
	if fee < 0 || fee > 100 {
		return Config{}, fmt.Errorf("PLATFORM_FEE_PERCENT must be within [0, 100], got %v", fee)
	}

	cfg := Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: level,

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		QRSecret:  os.Getenv("QR_SECRET"),

		PlatformFeePercent: fee,
		Currency:           getEnv("CURRENCY", "INR"),

		GatewayURL:       os.Getenv("GATEWAY_URL"),
		GatewayKeyID:     os.Getenv("GATEWAY_KEY_ID"),
		GatewayKeySecret: getEnv("GATEWAY_KEY_SECRET", "sandbox-secret"),
		GatewayTimeout:   getDurationEnv("GATEWAY_TIMEOUT", 10*time.Second),

		JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),

		Reaper: ReaperConfig{
			Interval:           getDurationEnv("REAPER_INTERVAL", time.Minute),
			BookingResponseTTL: getDurationEnv("BOOKING_RESPONSE_TTL", 72*time.Hour),
			BookingPaymentTTL:  getDurationEnv("BOOKING_PAYMENT_TTL", 24*time.Hour),
			TicketHoldTTL:      getDurationEnv("TICKET_HOLD_TTL", 15*time.Minute),
			PaymentTTL:         getDurationEnv("PAYMENT_TTL", 30*time.Minute),
		},

		PrivateAccessTTL: getDurationEnv("PRIVATE_ACCESS_TTL", time.Hour),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.QRSecret == "" {
		cfg.QRSecret = cfg.JWTSecret
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
