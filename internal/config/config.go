package config

import (
	"fmt"
	"time"

	domainErrors "github.com/SalahEddine-Ra/TeamFLow/internal/domain/errors"
)

// Config is the root configuration of the token service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Token    TokenConfig    `mapstructure:"token"`
	Anomaly  AnomalyConfig  `mapstructure:"anomaly"`
	GeoIP    GeoIPConfig    `mapstructure:"geoip"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig covers the operational HTTP surface (metrics, health).
type ServerConfig struct {
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	MaxConns    int32  `mapstructure:"max_conns"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// DSN renders the connection string consumed by pgx and the migrator.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	Issuer         string        `mapstructure:"issuer"`
	Audience       string        `mapstructure:"audience"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type TokenConfig struct {
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	CandidateWindow int           `mapstructure:"candidate_window"`
	AllowPrivateIPs bool          `mapstructure:"allow_private_ips"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
}

type AnomalyConfig struct {
	MaxDistanceKm float64 `mapstructure:"max_distance_km"`
	MaxSpeedKmh   float64 `mapstructure:"max_speed_kmh"`
}

type GeoIPConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CacheCapacity int           `mapstructure:"cache_capacity"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

type AuthConfig struct {
	DefaultOrgID int64  `mapstructure:"default_org_id"`
	DefaultRole  string `mapstructure:"default_role"`
}

type CleanupConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate rejects configurations the service cannot safely start with.
// Secrets are checked here so a misconfiguration fails at boot, not on the
// first request.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("%w: jwt.secret is required", domainErrors.ErrConfiguration)
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("%w: database host and name are required", domainErrors.ErrConfiguration)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers is required when kafka is enabled", domainErrors.ErrConfiguration)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required when redis is enabled", domainErrors.ErrConfiguration)
	}
	return nil
}
