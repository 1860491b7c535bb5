package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/academyhub/paycore/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	S3         S3Config         `mapstructure:"s3"`
	Email      EmailConfig      `mapstructure:"email"`
	Payments   PaymentsConfig   `mapstructure:"payments" validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" default:"60"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" default:"1.0"`
}

type SecretsConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
}

type S3Config struct {
	Enabled                bool   `mapstructure:"enabled"`
	Region                 string `mapstructure:"region"`
	InvoiceBucket          string `mapstructure:"invoice_bucket"`
	PresignExpiryDurationM int    `mapstructure:"presign_expiry_duration_minutes" default:"60"`
}

type EmailConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	ReplyTo     string `mapstructure:"reply_to"`
}

// PaymentsConfig holds the platform wide gateway defaults
type PaymentsConfig struct {
	DefaultGateway string `mapstructure:"default_gateway" validate:"required"`
	Currency       string `mapstructure:"currency" default:"EGP"`
	// WebhookBaseURL is the public base used to build gateway callback URLs
	WebhookBaseURL string `mapstructure:"webhook_base_url"`
	// Gateways maps a gateway name to its static configuration (api keys, base urls, ...)
	Gateways map[string]map[string]string `mapstructure:"gateways"`
	Fees     FeesConfig                   `mapstructure:"fees"`
	// TapFallbackTimeout bounds the live charge lookup used when a Tap callback has no hash
	TapFallbackTimeout time.Duration `mapstructure:"tap_fallback_timeout" default:"10s"`
	// RateLimitPerSecond limits outbound calls per gateway, zero disables limiting
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second"`
	// StalePaymentAfter is the age after which pending payments are expired
	StalePaymentAfter time.Duration `mapstructure:"stale_payment_after" default:"24h"`
}

// FeesConfig holds processing fee rates as percentages per payment method
type FeesConfig struct {
	CardPercent         float64 `mapstructure:"card_percent" default:"2.5"`
	WalletPercent       float64 `mapstructure:"wallet_percent" default:"2.0"`
	BankTransferPercent float64 `mapstructure:"bank_transfer_percent" default:"1.0"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only used for local development
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paycore")

	v.SetEnvPrefix("PAYCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("payments.currency", "EGP")
	v.SetDefault("payments.tap_fallback_timeout", "10s")
	v.SetDefault("payments.stale_payment_after", "24h")
	v.SetDefault("payments.fees.card_percent", 2.5)
	v.SetDefault("payments.fees.wallet_percent", 2.0)
	v.SetDefault("payments.fees.bank_transfer_percent", 1.0)
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 60)
	v.SetDefault("s3.presign_expiry_duration_minutes", 60)
	v.SetDefault("sentry.sample_rate", 1.0)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Payments: PaymentsConfig{
			DefaultGateway:     string(types.PaymentGatewayTypePaymob),
			Currency:           "EGP",
			TapFallbackTimeout: 10 * time.Second,
			StalePaymentAfter:  24 * time.Hour,
			Fees: FeesConfig{
				CardPercent:         2.5,
				WalletPercent:       2.0,
				BankTransferPercent: 1.0,
			},
		},
	}
}

// GatewayConfig returns a copy of the static configuration for a gateway
func (c PaymentsConfig) GatewayConfig(name string) map[string]string {
	out := make(map[string]string)
	for k, v := range c.Gateways[name] {
		out[k] = v
	}
	return out
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
