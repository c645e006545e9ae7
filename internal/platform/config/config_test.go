package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 389, cfg.Directory.Port)
	assert.Equal(t, 30*time.Second, cfg.Directory.ConnectTimeout)
	assert.Equal(t, 30*time.Second, cfg.Directory.ReadTimeout)
	assert.Equal(t, 3, cfg.Directory.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Directory.RetryDelay)
	assert.False(t, cfg.Directory.UseTLS)
	assert.Equal(t, 7, cfg.Sync.TimezoneOffsetHours)
}

func TestApplyEnv(t *testing.T) {
	t.Run("overrides directory settings", func(t *testing.T) {
		cfg := Default()
		err := cfg.ApplyEnv(envMap(map[string]string{
			"AD_SERVER":             "192.168.2.10",
			"AD_PORT":               "636",
			"AD_USE_SSL":            "true",
			"AD_DOMAIN":             "corp.example",
			"AD_USER":               "svc-sync",
			"AD_PASSWORD":           "secret",
			"AD_BASE_DN":            "DC=corp,DC=example",
			"AD_CONNECTION_TIMEOUT": "10",
			"AD_RETRY_DELAY":        "1500ms",
			"KAFKA_BROKERS":         "k1:9092, k2:9092,",
			"SYNC_INTERVAL":         "1h",
		}))
		require.NoError(t, err)
		assert.Equal(t, "192.168.2.10", cfg.Directory.Host)
		assert.Equal(t, 636, cfg.Directory.Port)
		assert.True(t, cfg.Directory.UseTLS)
		assert.Equal(t, 10*time.Second, cfg.Directory.ConnectTimeout)
		assert.Equal(t, 1500*time.Millisecond, cfg.Directory.RetryDelay)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, time.Hour, cfg.Sync.Interval)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("blank values keep defaults", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{"AD_PORT": "  "})))
		assert.Equal(t, 389, cfg.Directory.Port)
	})

	t.Run("collects parse errors", func(t *testing.T) {
		cfg := Default()
		err := cfg.ApplyEnv(envMap(map[string]string{
			"AD_PORT":        "ldap",
			"AD_USE_SSL":     "maybe",
			"AD_RETRY_DELAY": "soon",
		}))
		assert.ErrorContains(t, err, "AD_PORT")
		assert.ErrorContains(t, err, "AD_USE_SSL")
		assert.ErrorContains(t, err, "AD_RETRY_DELAY")
	})
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hrsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
directory:
  host: dc1.corp.example
  base_dn: DC=corp,DC=example
  retry_delay: 2s
sync:
  interval: 15m
  match_by_employee_id: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dc1.corp.example", cfg.Directory.Host)
	assert.Equal(t, 2*time.Second, cfg.Directory.RetryDelay)
	assert.Equal(t, 389, cfg.Directory.Port, "unset keys keep defaults")
	assert.Equal(t, 15*time.Minute, cfg.Sync.Interval)
	assert.True(t, cfg.Sync.MatchByEmployeeID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	assert.ErrorContains(t, err, "directory host is required")
	assert.ErrorContains(t, err, "base DN is required")

	cfg.Directory.Host = "dc1"
	cfg.Directory.BaseDN = "DC=corp"
	cfg.Kafka.Brokers = []string{"k1:9092"}
	cfg.Kafka.Topic = ""
	assert.ErrorContains(t, cfg.Validate(), "kafka topic is required")
}
