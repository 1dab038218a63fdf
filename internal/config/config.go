package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"toolsnest/internal/repositories"

	"github.com/spf13/viper"
)

// Config is the process configuration, read from the environment and an
// optional config file.
type Config struct {
	Port string

	StoreDriver  string
	DBUser       string
	DBPass       string
	DBHost       string
	DBName       string
	MongoURI     string
	DatabaseDSN  string
	StoreTimeout time.Duration

	AccessTokenSecret string
	TokenTTL          time.Duration

	StripeSecretKey string
	PaymentCurrency string

	RedisAddr string
	CacheTTL  time.Duration

	RabbitMQURL string
}

// ErrMissingSecret is returned when no token signing secret is configured.
var ErrMissingSecret = errors.New("ACCESS_TOKEN_SECRET is required")

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("STORE_DRIVER", repositories.DriverMongo)
	v.SetDefault("DB_HOST", "cluster0.mongodb.net")
	v.SetDefault("DB_NAME", "toolsNestBD")
	v.SetDefault("STORE_TIMEOUT", "10s")
	v.SetDefault("TOKEN_TTL", "1h")
	v.SetDefault("PAYMENT_CURRENCY", "usd")
	v.SetDefault("CACHE_TTL", "60s")
}

// Load reads configuration using v. When CONFIG_FILE is set, that file is
// read first and environment variables override it.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Port:              v.GetString("PORT"),
		StoreDriver:       v.GetString("STORE_DRIVER"),
		DBUser:            v.GetString("DB_USER"),
		DBPass:            v.GetString("DB_PASS"),
		DBHost:            v.GetString("DB_HOST"),
		DBName:            v.GetString("DB_NAME"),
		MongoURI:          v.GetString("MONGO_URI"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		StoreTimeout:      v.GetDuration("STORE_TIMEOUT"),
		AccessTokenSecret: v.GetString("ACCESS_TOKEN_SECRET"),
		TokenTTL:          v.GetDuration("TOKEN_TTL"),
		StripeSecretKey:   v.GetString("STRIPE_SECRET_KEY"),
		PaymentCurrency:   v.GetString("PAYMENT_CURRENCY"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		CacheTTL:          v.GetDuration("CACHE_TTL"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
	}

	if cfg.AccessTokenSecret == "" {
		return nil, ErrMissingSecret
	}
	return cfg, nil
}

// ListenAddr is the address passed to the HTTP listener.
func (c *Config) ListenAddr() string {
	return ":" + c.Port
}

// MongoConnectionURI returns MONGO_URI verbatim, or assembles the Atlas SRV
// URI from the credential and host settings.
func (c *Config) MongoConnectionURI() string {
	if c.MongoURI != "" {
		return c.MongoURI
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(c.DBUser, c.DBPass),
		Host:     c.DBHost,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

// StoreConfig returns the document store settings.
func (c *Config) StoreConfig() repositories.StoreConfig {
	return repositories.StoreConfig{
		Driver:   c.StoreDriver,
		MongoURI: c.MongoConnectionURI(),
		Database: c.DBName,
		DSN:      c.DatabaseDSN,
		Timeout:  c.StoreTimeout,
	}
}
