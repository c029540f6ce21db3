package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	cfg := fromViper(newTestViper())

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, DirectoryDriverHTTP, cfg.Directory.Driver)
	assert.Equal(t, 10*time.Second, cfg.Directory.Timeout)
	assert.False(t, cfg.Aggregation.PartialResults)
	assert.Equal(t, FeedStoreMemory, cfg.Notifications.Store)
	assert.Equal(t, 30*time.Minute, cfg.Notifications.SessionTTL)
	assert.Equal(t, 2, cfg.Notifications.LatestLimit)
	assert.Equal(t, time.Minute, cfg.Notifications.SweepInterval)
	assert.Empty(t, cfg.Labels.Units)
}

func TestOverrides(t *testing.T) {
	v := newTestViper()
	v.Set("DIRECTORY_BASE_URL", "http://directory.local/")
	v.Set("DIRECTORY_TIMEOUT", "nonsense")
	v.Set("AGGREGATION_PARTIAL_RESULTS", true)
	v.Set("FEED_STORE", "REDIS")
	v.Set("LATEST_NOTIFICATIONS_LIMIT", -1)
	v.Set("LABELS_UNITS", "unit5=Unidade 5, broken ,=x")
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := fromViper(v)

	assert.Equal(t, "http://directory.local", cfg.Directory.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Directory.Timeout)
	assert.True(t, cfg.Aggregation.PartialResults)
	assert.Equal(t, FeedStoreRedis, cfg.Notifications.Store)
	assert.Equal(t, 2, cfg.Notifications.LatestLimit)
	assert.Equal(t, map[string]string{"UNIT5": "Unidade 5"}, cfg.Labels.Units)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestValidateRequiresSecretForPostgresDirectory(t *testing.T) {
	v := newTestViper()
	v.Set("DIRECTORY_DRIVER", "postgres")
	cfg := fromViper(v)
	assert.Error(t, cfg.Validate())

	v.Set("JWT_SECRET", "shared")
	cfg = fromViper(v)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "shared", cfg.JWT.Secret)

	assert.NoError(t, fromViper(newTestViper()).Validate())
}
