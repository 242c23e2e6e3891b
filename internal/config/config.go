// Package config defines the daemon configuration and its loader. The
// loader validates ranges, so the core packages may assume the values
// they receive are sane.
package config

import (
	"errors"
	"time"

	"github.com/dkotenko/zurgmon/internal/obs"
	"github.com/dkotenko/zurgmon/internal/ratelimit"
)

type Zurg struct {
	URL       string        `mapstructure:"url"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	Timeout   time.Duration `mapstructure:"timeout"`
	VerifyTLS bool          `mapstructure:"verify_tls"`
	UserAgent string        `mapstructure:"user_agent"`
}

type Monitor struct {
	Interval time.Duration `mapstructure:"interval"`
	DryRun   bool          `mapstructure:"dry_run"`
}

type RateLimit struct {
	Requests int           `mapstructure:"requests"`
	Delay    time.Duration `mapstructure:"delay"`
	Backoff  time.Duration `mapstructure:"backoff"`
}

func (r RateLimit) AsLimiterConfig() ratelimit.Config {
	return ratelimit.Config{Requests: r.Requests, Delay: r.Delay, Backoff: r.Backoff}
}

type Kafka struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (l Log) AsLoggerConfig(version string) obs.LogConfig {
	return obs.LogConfig{Level: l.Level, Pretty: l.Pretty, Version: version}
}

type OTEL struct {
	Enable      bool    `mapstructure:"enable"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

func (o OTEL) AsTraceConfig() obs.TraceConfig {
	return obs.TraceConfig{
		Enable:      o.Enable,
		Endpoint:    o.Endpoint,
		ServiceName: o.ServiceName,
		SampleRatio: o.SampleRatio,
	}
}

type Config struct {
	Zurg      Zurg      `mapstructure:"zurg"`
	Monitor   Monitor   `mapstructure:"monitor"`
	RateLimit RateLimit `mapstructure:"rate_limit"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Server    Server    `mapstructure:"server"`
	Log       Log       `mapstructure:"log"`
	OTEL      OTEL      `mapstructure:"otel"`
}

// Validate enforces the ranges the core assumes.
func (c *Config) Validate() error {
	switch {
	case c.Zurg.URL == "":
		return errors.New("zurg.url must be set")
	case c.Monitor.Interval < time.Minute:
		return errors.New("monitor.interval must be at least one minute")
	case c.RateLimit.Requests <= 0:
		return errors.New("rate_limit.requests must be positive")
	case c.RateLimit.Delay < 0 || c.RateLimit.Backoff < 0:
		return errors.New("rate_limit delays must not be negative")
	case c.Kafka.Enabled && len(c.Kafka.Brokers) == 0:
		return errors.New("kafka.brokers must be set when kafka is enabled")
	}
	return nil
}
