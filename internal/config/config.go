package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// EnvConfigFile names an optional YAML/JSON/TOML file read before env overrides.
const EnvConfigFile = "IMAGETOOLS_CONFIG"

type Config struct {
	API       APIConfig
	Log       LogConfig
	Session   SessionConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Trace     TraceConfig
}

type APIConfig struct {
	Addr string
}

type LogConfig struct {
	Level  string
	Format string
}

type SessionConfig struct {
	MaxUploadBytes      int64
	TTL                 time.Duration
	SweepInterval       time.Duration
	MaxActiveTransforms int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Options() *redis.Options {
	return &redis.Options{
		Addr:     r.Addr,
		Password: r.Password,
		DB:       r.DB,
	}
}

type RateLimitConfig struct {
	Enabled    bool
	Capacity   int
	Window     time.Duration
	UserHeader string
}

type TraceConfig struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

// envKeys maps config keys onto their environment variables.
var envKeys = map[string]string{
	"api.addr":                      "IMAGETOOLS_API_ADDR",
	"log.level":                     "IMAGETOOLS_LOG_LEVEL",
	"log.format":                    "IMAGETOOLS_LOG_FORMAT",
	"session.max_upload_bytes":      "IMAGETOOLS_MAX_UPLOAD_BYTES",
	"session.ttl":                   "IMAGETOOLS_SESSION_TTL",
	"session.sweep_interval":        "IMAGETOOLS_SWEEP_INTERVAL",
	"session.max_active_transforms": "IMAGETOOLS_MAX_ACTIVE_TRANSFORMS",
	"redis.addr":                    "REDIS_ADDR",
	"redis.password":                "REDIS_PASSWORD",
	"redis.db":                      "REDIS_DB",
	"rate_limit.enabled":            "RATE_LIMIT_ENABLED",
	"rate_limit.capacity":           "RATE_LIMIT_CAPACITY",
	"rate_limit.window":             "RATE_LIMIT_WINDOW",
	"rate_limit.user_header":        "RATE_LIMIT_USER_HEADER",
	"trace.exporter":                "TRACE_EXPORTER",
	"trace.otlp_endpoint":           "OTEL_EXPORTER_OTLP_ENDPOINT",
	"trace.otlp_insecure":           "OTEL_EXPORTER_OTLP_INSECURE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("session.max_upload_bytes", 10<<20)
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)
	v.SetDefault("session.max_active_transforms", max(1, runtime.NumCPU()/2))

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.capacity", 30)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("rate_limit.user_header", "X-User-ID")

	v.SetDefault("trace.exporter", "none")
	v.SetDefault("trace.otlp_endpoint", "")
	v.SetDefault("trace.otlp_insecure", false)
}

// New returns a viper instance with defaults and env bindings in place.
// Callers may bind command-line flags onto it before calling FromViper.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for key, env := range envKeys {
		_ = v.BindEnv(key, env)
	}
	return v
}

// Load reads defaults, the optional config file and the environment.
func Load(path string) (Config, error) {
	return FromViper(New(), path)
}

// FromViper reads the optional config file into v and builds a validated
// Config. An empty path falls back to $IMAGETOOLS_CONFIG.
func FromViper(v *viper.Viper, path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		API: APIConfig{
			Addr: v.GetString("api.addr"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		Session: SessionConfig{
			MaxUploadBytes:      v.GetInt64("session.max_upload_bytes"),
			TTL:                 v.GetDuration("session.ttl"),
			SweepInterval:       v.GetDuration("session.sweep_interval"),
			MaxActiveTransforms: v.GetInt("session.max_active_transforms"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			Enabled:    v.GetBool("rate_limit.enabled"),
			Capacity:   v.GetInt("rate_limit.capacity"),
			Window:     v.GetDuration("rate_limit.window"),
			UserHeader: v.GetString("rate_limit.user_header"),
		},
		Trace: TraceConfig{
			Exporter:     strings.ToLower(v.GetString("trace.exporter")),
			OTLPEndpoint: v.GetString("trace.otlp_endpoint"),
			OTLPInsecure: v.GetBool("trace.otlp_insecure"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.API.Addr) == "" {
		errs = append(errs, errors.New("api.addr is required"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Session.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("session.max_upload_bytes must be positive"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("session.sweep_interval must be positive"))
	}
	if c.Session.MaxActiveTransforms <= 0 {
		errs = append(errs, errors.New("session.max_active_transforms must be positive"))
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Capacity <= 0 {
			errs = append(errs, errors.New("rate_limit.capacity must be positive"))
		}
		if c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("rate_limit.window must be positive"))
		}
		if strings.TrimSpace(c.Redis.Addr) == "" {
			errs = append(errs, errors.New("redis.addr is required when rate limiting is enabled"))
		}
	}
	switch c.Trace.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("trace.exporter must be none, stdout or otlp, got %q", c.Trace.Exporter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
