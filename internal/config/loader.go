package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Load reads the YAML file at path when given, then layers environment
// variables (ZURG_URL, MONITOR_INTERVAL, ...) over the defaults below.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.SetDefault("zurg.url", "http://localhost:9999")
	v.SetDefault("zurg.timeout", "30s")
	v.SetDefault("zurg.verify_tls", true)
	v.SetDefault("zurg.user_agent", "zurgmon/1.0")

	v.SetDefault("monitor.interval", "30m")
	v.SetDefault("monitor.dry_run", false)

	v.SetDefault("rate_limit.requests", 10)
	v.SetDefault("rate_limit.delay", "500ms")
	v.SetDefault("rate_limit.backoff", "5s")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", "zurgmon.events")

	v.SetDefault("server.metrics_addr", ":8082")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", "zurgmon")
	v.SetDefault("otel.sample_ratio", 1.0)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
