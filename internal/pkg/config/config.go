package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devSessionSecret = "helixdash-development-session-secret-change-me"

type ServerConfig struct {
	Port               string
	Mode               string
	CORSAllowedOrigins []string
	MaxUploadBytes     int64
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type JWTConfig struct {
	// Secret is optional. Without it tokens are decoded but not verified.
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type CookieConfig struct {
	Secure        bool
	Domain        string
	SessionSecret string
}

type ToolsConfig struct {
	CatalogPath        string
	ResultCacheTTL     time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
	WorkbenchParallel  int
}

type ObservabilityConfig struct {
	LogLevel            string
	MetricsAddr         string
	PprofAddr           string
	OtelEndpoint        string
	HealthCheckSchedule string
	HealthCheckTimeout  time.Duration
	ServiceName         string
}

type Config struct {
	Server        ServerConfig
	Backend       BackendConfig
	JWT           JWTConfig
	Cookies       CookieConfig
	Tools         ToolsConfig
	Observability ObservabilityConfig
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:               v.GetString("SERVER_PORT"),
			Mode:               v.GetString("GIN_MODE"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			MaxUploadBytes:     v.GetInt64("MAX_UPLOAD_BYTES"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
			Timeout: v.GetDuration("BACKEND_TIMEOUT"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			AccessTokenTTL:  v.GetDuration("ACCESS_TOKEN_TTL"),
			RefreshTokenTTL: v.GetDuration("REFRESH_TOKEN_TTL"),
		},
		Cookies: CookieConfig{
			Secure:        v.GetBool("COOKIE_SECURE"),
			Domain:        v.GetString("COOKIE_DOMAIN"),
			SessionSecret: v.GetString("SESSION_SECRET"),
		},
		Tools: ToolsConfig{
			CatalogPath:        v.GetString("TOOLS_CATALOG_PATH"),
			ResultCacheTTL:     v.GetDuration("RESULT_CACHE_TTL"),
			RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
			RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),
			WorkbenchParallel:  v.GetInt("WORKBENCH_PARALLEL"),
		},
		Observability: ObservabilityConfig{
			LogLevel:            v.GetString("LOG_LEVEL"),
			MetricsAddr:         v.GetString("METRICS_ADDR"),
			PprofAddr:           v.GetString("PPROF_ADDR"),
			OtelEndpoint:        v.GetString("OTEL_ENDPOINT"),
			HealthCheckSchedule: v.GetString("HEALTH_CHECK_SCHEDULE"),
			HealthCheckTimeout:  v.GetDuration("HEALTH_CHECK_TIMEOUT"),
			ServiceName:         v.GetString("SERVICE_NAME"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8091")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("MAX_UPLOAD_BYTES", 32<<20)

	v.SetDefault("BACKEND_URL", "http://localhost:8000")
	v.SetDefault("BACKEND_TIMEOUT", "60s")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")

	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("SESSION_SECRET", "")

	v.SetDefault("TOOLS_CATALOG_PATH", "")
	v.SetDefault("RESULT_CACHE_TTL", "30m")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("WORKBENCH_PARALLEL", 4)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_ADDR", ":9092")
	v.SetDefault("PPROF_ADDR", ":6060")
	v.SetDefault("OTEL_ENDPOINT", "")
	v.SetDefault("HEALTH_CHECK_SCHEDULE", "@every 30s")
	v.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")
	v.SetDefault("SERVICE_NAME", "helixdash")
}

// Validate checks values that cannot be defaulted safely.
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.Server.Mode)
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("BACKEND_URL must be an absolute http(s) URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	if c.Tools.RateLimitPerMinute <= 0 || c.Tools.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}
	if c.Tools.WorkbenchParallel <= 0 {
		c.Tools.WorkbenchParallel = 1
	}

	if c.Cookies.SessionSecret == "" {
		if c.IsRelease() {
			return fmt.Errorf("SESSION_SECRET environment variable is required in release mode")
		}
		c.Cookies.SessionSecret = devSessionSecret
	}
	if len(c.Cookies.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}
	return nil
}

func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}

// UsingDevSessionSecret reports whether the built-in development secret is active.
func (c *Config) UsingDevSessionSecret() bool {
	return c.Cookies.SessionSecret == devSessionSecret
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
