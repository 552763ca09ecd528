package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CHANGE_FEED", "")
	t.Setenv("JWT_EXPIRY", "")
	t.Setenv("ENVIRONMENT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gochannel", cfg.ChangeFeed.Driver)
	assert.Equal(t, 12*time.Hour, cfg.Auth.JWTExpiry)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_PROVIDER", "local")
	t.Setenv("JWT_SECRET", "a-long-production-secret")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("JWT_EXPIRY", "30m")
	t.Setenv("EVENTS_ENABLED", "true")
	t.Setenv("EVENTS_TOPIC", "")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.ChangeFeed.KafkaBrokers)
	assert.Equal(t, 30*time.Minute, cfg.Auth.JWTExpiry)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, "school-events", cfg.Events.Topic)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadConfig_ProductionNeedsJWTSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_PROVIDER", "local")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "")

	for _, secret := range []string{"", "supersecretkey"} {
		t.Setenv("JWT_SECRET", secret)
		_, err := LoadConfig()
		assert.Error(t, err, "secret %q", secret)
	}

	t.Setenv("AUTH_PROVIDER", "casdoor")
	_, err := LoadConfig()
	assert.NoError(t, err, "casdoor does not sign tokens with JWT_SECRET")

	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("AUTH_PROVIDER", "local")
	_, err = LoadConfig()
	assert.NoError(t, err)
}

func TestLoadConfig_Bootstrap(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Bootstrap.Enabled())

	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "rectoria@colegio.edu.co")
	t.Setenv("BOOTSTRAP_ADMIN_PASSWORD", "")
	_, err = LoadConfig()
	assert.Error(t, err)

	t.Setenv("BOOTSTRAP_ADMIN_PASSWORD", "cambiar-123")
	t.Setenv("BOOTSTRAP_ADMIN_FIRST_NAME", "")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Bootstrap.Enabled())
	assert.Equal(t, "Administrador", cfg.Bootstrap.FirstName)
}
