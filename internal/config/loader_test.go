package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "zurgmon.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999", cfg.Zurg.URL)
	assert.Equal(t, 30*time.Second, cfg.Zurg.Timeout)
	assert.True(t, cfg.Zurg.VerifyTLS)
	assert.Equal(t, 30*time.Minute, cfg.Monitor.Interval)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, 500*time.Millisecond, cfg.RateLimit.Delay)
	assert.Equal(t, 5*time.Second, cfg.RateLimit.Backoff)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, ":8082", cfg.Server.MetricsAddr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	p := writeConfig(t, `
zurg:
  url: https://zurg.example.com:9999
  username: admin
  password: hunter2
  verify_tls: false
monitor:
  interval: 10m
  dry_run: true
rate_limit:
  requests: 5
  delay: 1s
  backoff: 30s
kafka:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  topic: repairs
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "https://zurg.example.com:9999", cfg.Zurg.URL)
	assert.Equal(t, "admin", cfg.Zurg.Username)
	assert.False(t, cfg.Zurg.VerifyTLS)
	assert.Equal(t, 10*time.Minute, cfg.Monitor.Interval)
	assert.True(t, cfg.Monitor.DryRun)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
	assert.Equal(t, time.Second, cfg.RateLimit.Delay)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "repairs", cfg.Kafka.Topic)

	// Untouched sections keep their defaults.
	assert.Equal(t, ":8082", cfg.Server.MetricsAddr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"interval too short", "monitor:\n  interval: 5s\n"},
		{"zero requests", "rate_limit:\n  requests: 0\n"},
		{"negative backoff", "rate_limit:\n  backoff: -1s\n"},
		{"kafka without brokers", "kafka:\n  enabled: true\n  brokers: []\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.body))
			require.Error(t, err)
		})
	}
}

func TestValidateEmptyURL(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Zurg.URL = ""
	require.Error(t, cfg.Validate())
}
