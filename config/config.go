package config

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/msk-earth/payment/driver"
)

const (
	ServerStartPort = ":8080"

	EnvProduction = "production"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	Stripe      StripeConfig   `mapstructure:"stripe"`
	PayU        PayUConfig     `mapstructure:"payu"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Nats        NatsConfig     `mapstructure:"nats"`
	Site        SiteConfig     `mapstructure:"site"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	// ProductID is the recurring donation product. Created on demand when empty.
	ProductID string `mapstructure:"product_id"`
}

type PayUConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	PosID        string `mapstructure:"pos_id"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

type NatsConfig struct {
	URL string `mapstructure:"url"`
}

type SiteConfig struct {
	// URL is the public site origin used for default success/cancel redirects.
	URL string `mapstructure:"url"`
	// PublicURL is where PayU sends continue/notify callbacks.
	PublicURL      string   `mapstructure:"public_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func ProvideApplicationConfig() (*Config, error) {

	viper.SetConfigFile("./config.yaml")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func ProvidePostgresConn(appConfig *Config) (driver.PostgresPool, error) {

	conn, err := driver.ConnectSQL(appConfig.Postgres.URL)
	if err != nil {
		return nil, err
	}

	return conn.Pool, nil
}

func ProvideRedis(appConfig *Config) (*redis.Client, error) {
	return driver.ConnectRedis(appConfig.Redis.Addr, appConfig.Redis.Password, 0)
}

// ProvideNatsConn connects to the notification bus. The service keeps running
// without it; publishers treat a nil connection as log-only.
func ProvideNatsConn(appConfig *Config, logger *zap.Logger) *nats.Conn {
	url := appConfig.Nats.URL
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url)
	if err != nil {
		logger.Error("error connecting to nats", zap.Error(err))
		return nil
	}

	return nc
}

func NewLogger() *zap.Logger {

	logger, _ := zap.NewProduction()
	return logger
}
