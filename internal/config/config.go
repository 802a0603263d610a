// Package config loads the server configuration from the environment.
//
// Values come from environment variables, optionally seeded from a .env file
// (godotenv never overrides a variable that is already set). viper supplies
// the defaults and the type conversion.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MinSecretLength mirrors auth.MinSecretLength so configuration errors are
// reported before any service is built.
const MinSecretLength = 16

// Config holds every setting of the server.
type Config struct {
	Port    int
	DataDir string

	JWTSecret   string
	TokenTTL    time.Duration // 0 issues tokens without an expiry
	BcryptCost  int
	RequireAuth bool // guard event and product writes with a Bearer token

	AuthRateLimitRPS   float64
	AuthRateLimitBurst int

	LogLevel          string
	LogFormat         string // "text" or "json"
	CORSAllowedOrigin string
}

// Load reads the configuration. envFile is loaded first when non-empty; a
// missing file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("TOKEN_TTL", "0")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("REQUIRE_AUTH", false)
	v.SetDefault("AUTH_RATE_LIMIT_RPS", 5.0)
	v.SetDefault("AUTH_RATE_LIMIT_BURST", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("CORS_ALLOWED_ORIGIN", "*")

	ttl, err := parseTTL(v.GetString("TOKEN_TTL"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:               v.GetInt("PORT"),
		DataDir:            v.GetString("DATA_DIR"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		TokenTTL:           ttl,
		BcryptCost:         v.GetInt("BCRYPT_COST"),
		RequireAuth:        v.GetBool("REQUIRE_AUTH"),
		AuthRateLimitRPS:   v.GetFloat64("AUTH_RATE_LIMIT_RPS"),
		AuthRateLimitBurst: v.GetInt("AUTH_RATE_LIMIT_BURST"),
		LogLevel:           strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:          strings.ToLower(v.GetString("LOG_FORMAT")),
		CORSAllowedOrigin:  v.GetString("CORS_ALLOWED_ORIGIN"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting except the token secret at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("DATA_DIR must not be empty"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	if c.AuthRateLimitBurst < 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT_BURST must not be negative"))
	}
	return errors.Join(errs...)
}

// ValidateSecret checks JWT_SECRET. Only commands that issue or verify
// tokens need it, so Load does not.
func (c *Config) ValidateSecret() error {
	if len(c.JWTSecret) < MinSecretLength {
		return fmt.Errorf("JWT_SECRET is required and must be at least %d characters", MinSecretLength)
	}
	return nil
}

// SlogLevel converts LogLevel to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return level, nil
}

// parseTTL accepts a Go duration ("24h") or a bare number of seconds.
func parseTTL(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		secs, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil {
			return 0, fmt.Errorf("TOKEN_TTL: invalid duration %q", raw)
		}
		d = time.Duration(secs) * time.Second
	}
	if d < 0 {
		return 0, fmt.Errorf("TOKEN_TTL must not be negative, got %s", raw)
	}
	return d, nil
}
