package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Service         ServiceConfig        `mapstructure:"service"`
	Databases       DatabasesConfig      `mapstructure:"databases"`
	ExternalClients ExternalClientConfig `mapstructure:"externalClients"`
	AWS             AWSConfig            `mapstructure:"aws"`
	Logging         LoggingConfig        `mapstructure:"logging"`
}

type SessionBackend string

const (
	RedisSessions  SessionBackend = "redis"
	MemorySessions SessionBackend = "memory"
)

type ServiceConfig struct {
	Port           string         `mapstructure:"port"`
	StartingCash   float64        `mapstructure:"startingCash"`
	SessionTTL     time.Duration  `mapstructure:"sessionTTL"`
	SessionBackend SessionBackend `mapstructure:"sessionBackend"`
	AutoMigrate    bool           `mapstructure:"autoMigrate"`
	SecureCookies  bool           `mapstructure:"secureCookies"`
	SessionSweep   string         `mapstructure:"sessionSweep"`
}

type DatabasesConfig struct {
	SQL   SQLConfig   `mapstructure:"sql"`
	Redis RedisConfig `mapstructure:"redis"`
}

type SQLConfig struct {
	Host             string `mapstructure:"host"`
	Port             string `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	Database         string `mapstructure:"database"`
	ConnectionString string `mapstructure:"connection_string"`
	MaxConns         int32  `mapstructure:"maxConns"`
}

// DSN returns the connection string, building one from the discrete fields when none is set.
func (c SQLConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.Username, c.Password, c.Database, c.Port)
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
	TLS      bool   `mapstructure:"tls"`
}

type ExternalClientConfig struct {
	Quotes QuotesConfig `mapstructure:"quotes"`
}

type QuotesConfig struct {
	BaseURL        string        `mapstructure:"baseUrl"`
	APIKey         string        `mapstructure:"apiKey"`
	APIKeySecretID string        `mapstructure:"apiKeySecretId"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// ErrMissingAPIKey is returned when no quote provider credential could be found.
var ErrMissingAPIKey = errors.New("quote provider API key not set")

// SecretGetter fetches a secret string by id.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, secretID string) (string, error)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.port", "8000")
	v.SetDefault("service.startingCash", 10000)
	v.SetDefault("service.sessionTTL", "24h")
	v.SetDefault("service.sessionBackend", string(MemorySessions))
	v.SetDefault("service.autoMigrate", false)
	v.SetDefault("service.sessionSweep", "@every 10m")
	v.SetDefault("databases.sql.maxConns", 10)
	v.SetDefault("externalClients.quotes.baseUrl", "https://cloud.iexapis.com/stable")
	v.SetDefault("externalClients.quotes.timeout", "5s")
	v.SetDefault("logging.level", "info")
}

// LoadConfig reads appsettings.yaml from path and, when env is not empty, merges
// appsettings.<env>.yaml on top of it. Environment variables win over both files.
func LoadConfig(path string, env string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load(filepath.Join(path, "..", ".env"))

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(path)
	v.SetConfigName("appsettings")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if env != "" {
		v.SetConfigName("appsettings." + env)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("externalClients.quotes.apiKey", "API_KEY")
	_ = v.BindEnv("databases.sql.connection_string", "DATABASE_URL")
	_ = v.BindEnv("databases.redis.url", "REDIS_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveSecrets fills the quote API key from the secret store when it was not
// provided directly.
func (c *Config) ResolveSecrets(ctx context.Context, secrets SecretGetter) error {
	quotes := &c.ExternalClients.Quotes
	if quotes.APIKey != "" || quotes.APIKeySecretID == "" {
		return nil
	}
	if secrets == nil {
		return fmt.Errorf("secret %q configured but no secret store available", quotes.APIKeySecretID)
	}
	key, err := secrets.GetSecretValue(ctx, quotes.APIKeySecretID)
	if err != nil {
		return fmt.Errorf("failed to read secret %q: %w", quotes.APIKeySecretID, err)
	}
	quotes.APIKey = strings.TrimSpace(key)
	return nil
}

// Validate reports configuration the service cannot start without.
func (c *Config) Validate() error {
	if c.ExternalClients.Quotes.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.ExternalClients.Quotes.BaseURL == "" {
		return errors.New("quote provider base url not set")
	}
	if c.Service.StartingCash < 0 {
		return errors.New("starting cash must not be negative")
	}
	switch c.Service.SessionBackend {
	case RedisSessions, MemorySessions:
	default:
		return fmt.Errorf("unknown session backend %q", c.Service.SessionBackend)
	}
	return nil
}
