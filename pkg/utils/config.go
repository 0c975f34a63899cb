package utils

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Payment   PaymentConfig
	Reconcile ReconcileConfig
}

type AppConfig struct {
	Name           string
	Port           string
	Debug          bool
	LogPath        string
	AllowedOrigins []string
	// Location is the salons' wall-clock zone; working hours and calendar
	// dates are interpreted in it.
	Location *time.Location
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

// RedisConfig is optional; an empty Addr disables the delivery guard.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	SignalTTL time.Duration
}

// RabbitMQConfig is optional; an empty URL disables event publishing.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type PaymentConfig struct {
	Currency        string
	MinAmount       decimal.Decimal
	SuccessURL      string
	CancelURL       string
	OmisePublicKey  string
	OmiseSecretKey  string
	StripeSecretKey string
}

type ReconcileConfig struct {
	ConfirmTimeout time.Duration
	// BookingServiceURL points the confirmer at a remote booking service.
	// Empty means the in-process ledger is called directly.
	BookingServiceURL string
	RepairInterval    time.Duration
	RepairBatch       int
	// records that failed this many repairs are left for an operator
	RepairMaxAttempts int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	viper.SetDefault("APP_NAME", "salon-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("APP_TIMEZONE", "UTC")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_SIGNAL_TTL", "24h")
	viper.SetDefault("RABBITMQ_EXCHANGE", "salon.events")
	viper.SetDefault("PAYMENT_CURRENCY", "usd")
	viper.SetDefault("PAYMENT_MIN_AMOUNT", "25")
	viper.SetDefault("PAYMENT_SUCCESS_URL", "http://localhost:5173/payment-success")
	viper.SetDefault("PAYMENT_CANCEL_URL", "http://localhost:5173/payment/cancel")
	viper.SetDefault("CONFIRM_TIMEOUT", "5s")
	viper.SetDefault("REPAIR_INTERVAL", "1m")
	viper.SetDefault("REPAIR_BATCH", 50)
	viper.SetDefault("REPAIR_MAX_ATTEMPTS", 10)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	minAmount, err := decimal.NewFromString(viper.GetString("PAYMENT_MIN_AMOUNT"))
	if err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(viper.GetString("APP_TIMEZONE"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Name:           viper.GetString("APP_NAME"),
			Port:           viper.GetString("PORT"),
			Debug:          viper.GetBool("DEBUG"),
			LogPath:        viper.GetString("LOG_PATH"),
			AllowedOrigins: splitList(viper.GetString("ALLOWED_ORIGINS")),
			Location:       location,
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:      viper.GetString("REDIS_ADDR"),
			Password:  viper.GetString("REDIS_PASSWORD"),
			DB:        viper.GetInt("REDIS_DB"),
			SignalTTL: viper.GetDuration("REDIS_SIGNAL_TTL"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      viper.GetString("RABBITMQ_URL"),
			Exchange: viper.GetString("RABBITMQ_EXCHANGE"),
		},
		Payment: PaymentConfig{
			Currency:        viper.GetString("PAYMENT_CURRENCY"),
			MinAmount:       minAmount,
			SuccessURL:      viper.GetString("PAYMENT_SUCCESS_URL"),
			CancelURL:       viper.GetString("PAYMENT_CANCEL_URL"),
			OmisePublicKey:  viper.GetString("OMISE_PUBLIC_KEY"),
			OmiseSecretKey:  viper.GetString("OMISE_SECRET_KEY"),
			StripeSecretKey: viper.GetString("STRIPE_SECRET_KEY"),
		},
		Reconcile: ReconcileConfig{
			ConfirmTimeout:    viper.GetDuration("CONFIRM_TIMEOUT"),
			BookingServiceURL: viper.GetString("BOOKING_SERVICE_URL"),
			RepairInterval:    viper.GetDuration("REPAIR_INTERVAL"),
			RepairBatch:       viper.GetInt("REPAIR_BATCH"),
			RepairMaxAttempts: viper.GetInt("REPAIR_MAX_ATTEMPTS"),
		},
	}

	return config, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
