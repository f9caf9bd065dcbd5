package portal

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
)

// Config holds the runtime settings of the portal server
type Config struct {
	Addr                string        `json:"addr"`
	DatabaseURL         string        `json:"database_url"`
	SessionTTL          time.Duration `json:"session_ttl"`
	SessionSecret       string        `json:"-"`
	SessionCookieSecure bool          `json:"session_cookie_secure"`
	SessionGCInterval   time.Duration `json:"session_gc_interval"`
	AdminUsername       string        `json:"admin_username"`
	ActivityLog         string        `json:"activity_log"`
	Debug               bool          `json:"debug"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Addr:              ":3000",
		DatabaseURL:       "file:portal.db?cache=shared&mode=rwc",
		SessionTTL:        DefaultSessionTTL,
		SessionGCInterval: 10 * time.Minute,
		AdminUsername:     DefaultAdminUsername,
	}
}

// LoadConfig reads the environment on top of DefaultConfig
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	cfg.Addr = getEnv("PORTAL_ADDR", cfg.Addr)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.AdminUsername = getEnv("ADMIN_USERNAME", cfg.AdminUsername)
	cfg.ActivityLog = getEnv("ACTIVITY_LOG", cfg.ActivityLog)

	var err error
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", cfg.SessionTTL); err != nil {
		return cfg, err
	}

	if cfg.SessionGCInterval, err = getEnvDuration("SESSION_GC_INTERVAL", cfg.SessionGCInterval); err != nil {
		return cfg, err
	}

	if cfg.SessionCookieSecure, err = getEnvBool("SESSION_COOKIE_SECURE", cfg.SessionCookieSecure); err != nil {
		return cfg, err
	}

	if cfg.Debug, err = getEnvBool("DEBUG", cfg.Debug); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate rejects settings the server can not run with
func (c Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("database url is required"))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL))
	}

	if c.SessionGCInterval < 0 {
		errs = append(errs, fmt.Errorf("session gc interval can not be negative, got %s", c.SessionGCInterval))
	}

	if c.AdminUsername == "" {
		errs = append(errs, errors.New("admin username is required"))
	}

	if c.SessionSecret != "" {
		key, err := base64.StdEncoding.DecodeString(c.SessionSecret)
		if err != nil {
			errs = append(errs, fmt.Errorf("session secret must be base64: %w", err))
		} else if n := len(key); n != 16 && n != 24 && n != 32 {
			errs = append(errs, fmt.Errorf("session secret must decode to 16, 24 or 32 bytes, got %d", n))
		}
	}

	return errors.Join(errs...)
}

// CookieKey returns the cookie encryption key, generating one for this
// process when no secret is configured.
func (c Config) CookieKey() string {
	if c.SessionSecret != "" {
		return c.SessionSecret
	}
	return encryptcookie.GenerateKey()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
