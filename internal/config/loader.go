package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional YAML file plus TEAMFLOW_*
// environment variables, with env taking precedence. A missing config file is
// fine; everything has a default except the secrets Validate checks.
func Load() (*Config, error) {
	// Best effort: a .env file is a development convenience.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TEAMFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.metrics_addr", ":9100")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "teamflow")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "teamflow.auth.security")

	// An empty default keeps the key visible to AutomaticEnv; Validate
	// rejects the empty value.
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "teamflow-auth")
	v.SetDefault("jwt.audience", "")
	v.SetDefault("jwt.access_token_ttl", "15m")

	v.SetDefault("token.refresh_token_ttl", "168h")
	v.SetDefault("token.candidate_window", 10)
	v.SetDefault("token.allow_private_ips", false)
	v.SetDefault("token.bcrypt_cost", 12)

	v.SetDefault("anomaly.max_distance_km", 1000)
	v.SetDefault("anomaly.max_speed_kmh", 800)

	v.SetDefault("geoip.endpoint", "http://ip-api.com/json")
	v.SetDefault("geoip.timeout", "5s")
	v.SetDefault("geoip.cache_capacity", 1000)
	v.SetDefault("geoip.cache_ttl", "24h")

	v.SetDefault("auth.default_org_id", 0)
	v.SetDefault("auth.default_role", "member")

	v.SetDefault("cleanup.enabled", true)
	v.SetDefault("cleanup.interval", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
