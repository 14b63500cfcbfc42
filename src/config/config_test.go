package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"finance/src/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseSettings = `
service:
  port: "9000"
  startingCash: 5000
databases:
  sql:
    host: db
    port: "5432"
    username: u
    password: p
    database: finance
externalClients:
  quotes:
    apiKey: base-key
`

const testingSettings = `
service:
  sessionBackend: redis
externalClients:
  quotes:
    timeout: 2s
`

func writeSettings(t *testing.T, files map[string]string) string {
	dir := filepath.Join(t.TempDir(), "settings")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadConfig(t *testing.T) {
	t.Run("base file with defaults", func(t *testing.T) {
		dir := writeSettings(t, map[string]string{"appsettings.yaml": baseSettings})

		cfg, err := config.LoadConfig(dir, "")
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.Service.Port)
		assert.Equal(t, 5000.0, cfg.Service.StartingCash)
		assert.Equal(t, config.MemorySessions, cfg.Service.SessionBackend)
		assert.Equal(t, 24*time.Hour, cfg.Service.SessionTTL)
		assert.Equal(t, "@every 10m", cfg.Service.SessionSweep)
		assert.Equal(t, 5*time.Second, cfg.ExternalClients.Quotes.Timeout)
		assert.Equal(t, "base-key", cfg.ExternalClients.Quotes.APIKey)
		assert.Equal(t, "host=db user=u password=p dbname=finance port=5432 sslmode=disable", cfg.Databases.SQL.DSN())
	})

	t.Run("environment overlay", func(t *testing.T) {
		dir := writeSettings(t, map[string]string{
			"appsettings.yaml":         baseSettings,
			"appsettings.TESTING.yaml": testingSettings,
		})

		cfg, err := config.LoadConfig(dir, "TESTING")
		require.NoError(t, err)

		assert.Equal(t, config.RedisSessions, cfg.Service.SessionBackend)
		assert.Equal(t, 2*time.Second, cfg.ExternalClients.Quotes.Timeout)
		assert.Equal(t, "9000", cfg.Service.Port)
	})

	t.Run("missing overlay is ignored", func(t *testing.T) {
		dir := writeSettings(t, map[string]string{"appsettings.yaml": baseSettings})

		_, err := config.LoadConfig(dir, "STAGING")
		require.NoError(t, err)
	})

	t.Run("API_KEY env wins", func(t *testing.T) {
		dir := writeSettings(t, map[string]string{"appsettings.yaml": baseSettings})
		t.Setenv("API_KEY", "env-key")

		cfg, err := config.LoadConfig(dir, "")
		require.NoError(t, err)
		assert.Equal(t, "env-key", cfg.ExternalClients.Quotes.APIKey)
	})

	t.Run("missing base file", func(t *testing.T) {
		_, err := config.LoadConfig(t.TempDir(), "")
		assert.Error(t, err)
	})
}

func validConfig() *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{SessionBackend: config.MemorySessions, StartingCash: 10000},
		ExternalClients: config.ExternalClientConfig{Quotes: config.QuotesConfig{
			BaseURL: "http://quotes",
			APIKey:  "key",
		}},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.ExternalClients.Quotes.APIKey = ""
	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingAPIKey)

	cfg = validConfig()
	cfg.Service.SessionBackend = "files"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Service.StartingCash = -1
	assert.Error(t, cfg.Validate())
}

type fakeSecrets struct {
	values map[string]string
}

func (f fakeSecrets) GetSecretValue(_ context.Context, id string) (string, error) {
	v, ok := f.values[id]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func TestResolveSecrets(t *testing.T) {
	ctx := context.Background()

	cfg := validConfig()
	cfg.ExternalClients.Quotes.APIKey = ""
	cfg.ExternalClients.Quotes.APIKeySecretID = "finance/iex"
	require.NoError(t, cfg.ResolveSecrets(ctx, fakeSecrets{values: map[string]string{"finance/iex": " secret-key\n"}}))
	assert.Equal(t, "secret-key", cfg.ExternalClients.Quotes.APIKey)

	cfg = validConfig()
	cfg.ExternalClients.Quotes.APIKeySecretID = "finance/iex"
	require.NoError(t, cfg.ResolveSecrets(ctx, nil))
	assert.Equal(t, "key", cfg.ExternalClients.Quotes.APIKey)

	cfg = validConfig()
	cfg.ExternalClients.Quotes.APIKey = ""
	cfg.ExternalClients.Quotes.APIKeySecretID = "missing"
	assert.Error(t, cfg.ResolveSecrets(ctx, fakeSecrets{}))
	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingAPIKey)
}
