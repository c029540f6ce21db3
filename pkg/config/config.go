package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Directory drivers.
const (
	DirectoryDriverHTTP     = "http"
	DirectoryDriverPostgres = "postgres"
)

// Feed store drivers.
const (
	FeedStoreMemory = "memory"
	FeedStoreRedis  = "redis"
)

type Config struct {
	Env         string
	Port        int
	APIPrefix   string
	ServiceName string

	Directory     DirectoryConfig
	JWT           JWTConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Aggregation   AggregationConfig
	Notifications NotificationsConfig
	Labels        LabelsConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Log           LogConfig
	Tracing       TracingConfig
}

// DirectoryConfig points the gateway at the remote academic directory.
type DirectoryConfig struct {
	Driver  string
	BaseURL string
	Timeout time.Duration
}

// JWTConfig holds the secret shared with the directory for verifying access tokens.
type JWTConfig struct {
	Secret string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AggregationConfig tunes the course aggregation join.
type AggregationConfig struct {
	PartialResults bool
}

// NotificationsConfig governs the per-session notification feed.
type NotificationsConfig struct {
	Store         string
	SessionTTL    time.Duration
	LatestLimit   int
	SweepInterval time.Duration
}

// LabelsConfig extends the concept label table. Values map backend codes to display labels.
type LabelsConfig struct {
	Units   map[string]string
	Results map[string]string
}

// RateLimitConfig bounds requests per client on the API group.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

// TracingConfig enables OTLP trace export when Endpoint is set.
type TracingConfig struct {
	Endpoint string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the gateway cannot run safely.
// The postgres directory driver trusts the gateway to authenticate callers, so it needs JWT_SECRET.
func (c *Config) Validate() error {
	if c.Directory.Driver == DirectoryDriverPostgres && c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required when DIRECTORY_DRIVER=postgres")
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.ServiceName = v.GetString("SERVICE_NAME")

	cfg.Directory = DirectoryConfig{
		Driver:  strings.ToLower(v.GetString("DIRECTORY_DRIVER")),
		BaseURL: strings.TrimRight(v.GetString("DIRECTORY_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("DIRECTORY_TIMEOUT"), 10*time.Second),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Aggregation = AggregationConfig{
		PartialResults: v.GetBool("AGGREGATION_PARTIAL_RESULTS"),
	}

	latest := v.GetInt("LATEST_NOTIFICATIONS_LIMIT")
	if latest <= 0 {
		latest = 2
	}
	cfg.Notifications = NotificationsConfig{
		Store:         strings.ToLower(v.GetString("FEED_STORE")),
		SessionTTL:    parseDuration(v.GetString("FEED_SESSION_TTL"), 30*time.Minute),
		LatestLimit:   latest,
		SweepInterval: parseDuration(v.GetString("MAINTENANCE_INTERVAL"), time.Minute),
	}

	cfg.Labels = LabelsConfig{
		Units:   parseLabels(v.GetString("LABELS_UNITS")),
		Results: parseLabels(v.GetString("LABELS_RESULTS")),
	}

	cfg.RateLimit = RateLimitConfig{
		Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
		Window:   parseDuration(v.GetString("RATE_LIMIT_WINDOW"), time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
		File:   v.GetString("LOG_FILE"),
	}

	cfg.Tracing = TracingConfig{Endpoint: v.GetString("OTEL_ENDPOINT")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SERVICE_NAME", "student-portal-api")

	v.SetDefault("DIRECTORY_DRIVER", DirectoryDriverHTTP)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("DIRECTORY_BASE_URL", "https://api-mediotec-v2-teste.onrender.com")
	v.SetDefault("DIRECTORY_TIMEOUT", "10s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "mediotec")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AGGREGATION_PARTIAL_RESULTS", false)

	v.SetDefault("FEED_STORE", FeedStoreMemory)
	v.SetDefault("FEED_SESSION_TTL", "30m")
	v.SetDefault("MAINTENANCE_INTERVAL", "1m")
	v.SetDefault("LATEST_NOTIFICATIONS_LIMIT", 2)

	v.SetDefault("LABELS_UNITS", "")
	v.SetDefault("LABELS_RESULTS", "")

	v.SetDefault("RATE_LIMIT_REQUESTS", 120)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("OTEL_ENDPOINT", "")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// parseLabels reads "CODE=Label,CODE2=Label 2" pairs. Malformed pairs are skipped.
func parseLabels(raw string) map[string]string {
	labels := make(map[string]string)
	for _, pair := range splitAndTrim(raw) {
		code, label, ok := strings.Cut(pair, "=")
		code = strings.ToUpper(strings.TrimSpace(code))
		label = strings.TrimSpace(label)
		if !ok || code == "" || label == "" {
			continue
		}
		labels[code] = label
	}
	return labels
}
