package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// AllowedOrigins lists the storefront origins permitted by CORS.
	// Empty means allow any origin (local development).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// PaymentConfig holds payment subsystem configuration.
// Provider availability is an explicit, injectable property of these
// structs; adapters never sniff the environment themselves.
type PaymentConfig struct {
	DefaultProvider string        `mapstructure:"default_provider"`
	Currency        string        `mapstructure:"currency"`
	Bank            BankConfig    `mapstructure:"bank"`
	Paypal          PaypalConfig  `mapstructure:"paypal"`
	Stripe          StripeConfig  `mapstructure:"stripe"`
	GatewayTimeout  time.Duration `mapstructure:"gateway_timeout"`
}

// BankConfig holds the legacy bank gateway (NVP) configuration.
type BankConfig struct {
	APIURL       string `mapstructure:"api_url"`
	APIUsername  string `mapstructure:"api_username"`
	APIPassword  string `mapstructure:"api_password"`
	MerchantID   string `mapstructure:"merchant_id"`
	MerchantName string `mapstructure:"merchant_name"`
	ReturnURL    string `mapstructure:"return_url"`
}

// PaypalConfig holds PayPal REST API configuration.
type PaypalConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	ClientID  string `mapstructure:"client_id"`
	Secret    string `mapstructure:"secret"`
	ReturnURL string `mapstructure:"return_url"`
	CancelURL string `mapstructure:"cancel_url"`
	BrandName string `mapstructure:"brand_name"`
}

// StripeConfig holds the hosted checkout (Stripe) configuration.
// An empty SecretKey is valid: the provider registers in a degraded,
// "not configured" state instead of failing startup.
type StripeConfig struct {
	SecretKey  string `mapstructure:"secret_key"`
	SuccessURL string `mapstructure:"success_url"`
	CancelURL  string `mapstructure:"cancel_url"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/ceylonmart")

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults and env
	}

	// Read from environment variables. The replacer maps nested keys
	// onto env names, e.g. payment.bank.api_url becomes
	// CEYLONMART_PAYMENT_BANK_API_URL.
	v.SetEnvPrefix("CEYLONMART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Override with environment variables for sensitive values
	if secret := os.Getenv("CEYLONMART_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if password := os.Getenv("CEYLONMART_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("CEYLONMART_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if password := os.Getenv("CEYLONMART_BANK_API_PASSWORD"); password != "" {
		cfg.Payment.Bank.APIPassword = password
	}
	if secret := os.Getenv("CEYLONMART_PAYPAL_SECRET"); secret != "" {
		cfg.Payment.Paypal.Secret = secret
	}
	if key := os.Getenv("CEYLONMART_STRIPE_SECRET_KEY"); key != "" {
		cfg.Payment.Stripe.SecretKey = key
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Viper only consults the environment for keys it already knows
	// about, so every key gets a default here, secrets included, to
	// keep them overridable via CEYLONMART_* variables.

	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.allowed_origins", []string{})

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "ceylonmart")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)

	// Redis defaults
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")

	// Payment defaults
	v.SetDefault("payment.default_provider", "bank")
	v.SetDefault("payment.currency", "LKR")
	v.SetDefault("payment.gateway_timeout", 30*time.Second)
	v.SetDefault("payment.bank.api_url", "")
	v.SetDefault("payment.bank.api_username", "")
	v.SetDefault("payment.bank.api_password", "")
	v.SetDefault("payment.bank.merchant_id", "")
	v.SetDefault("payment.bank.merchant_name", "CeylonMart")
	v.SetDefault("payment.bank.return_url", "")
	v.SetDefault("payment.paypal.base_url", "https://api-m.sandbox.paypal.com")
	v.SetDefault("payment.paypal.client_id", "")
	v.SetDefault("payment.paypal.secret", "")
	v.SetDefault("payment.paypal.return_url", "")
	v.SetDefault("payment.paypal.cancel_url", "")
	v.SetDefault("payment.paypal.brand_name", "CeylonMart")
	v.SetDefault("payment.stripe.secret_key", "")
	v.SetDefault("payment.stripe.success_url", "")
	v.SetDefault("payment.stripe.cancel_url", "")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
