package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 10000,
		},
		FAQ: FAQConfig{
			DBPath:  "db/faq.db",
			Matcher: "exact",
		},
		Auth: AuthConfig{
			FetchTimeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Path: "log/webhook.log",
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error; env-only deployments are supported.
func Load(path string) (*Config, error) {
	// Best-effort .env for local development; real deployments set env directly.
	godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envStr("FAQBOT_HOST", &c.Server.Host)
	if v := os.Getenv("FAQBOT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}
	// Original deployment used PORT; keep honoring it.
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}

	envStr("FAQBOT_WORKVIVO_API_URL", &c.Workvivo.APIURL)
	envStr("FAQBOT_WORKVIVO_TOKEN", &c.Workvivo.Token)
	envStr("FAQBOT_WORKVIVO_ID", &c.Workvivo.ID)
	envStr("WORKVIVO_API_URL", &c.Workvivo.APIURL)
	envStr("WORKVIVO_TOKEN", &c.Workvivo.Token)
	envStr("WORKVIVO_ID", &c.Workvivo.ID)

	envStr("FAQBOT_DB_PATH", &c.FAQ.DBPath)
	envStr("FAQBOT_MATCHER", &c.FAQ.Matcher)

	envStr("FAQBOT_KEYSET_URL", &c.Auth.KeySetURL)
	envStr("FAQBOT_BYPASS_TOKEN", &c.Auth.BypassSentinel)
	// Auto-enable bypass when a sentinel is provided via env.
	if c.Auth.BypassSentinel != "" {
		c.Auth.BypassEnabled = true
	}

	envStr("FAQBOT_AUDIT_LOG", &c.Audit.Path)

	envStr("FAQBOT_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("FAQBOT_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("FAQBOT_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	if v := os.Getenv("FAQBOT_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("FAQBOT_TELEMETRY_INSECURE"); v != "" {
		c.Telemetry.Insecure = v == "true" || v == "1"
	}

	if v := os.Getenv("FAQBOT_RATE_LIMIT_RPM"); v != "" {
		if rpm, err := strconv.Atoi(v); err == nil {
			c.Server.RateLimitRPM = rpm
		}
	}

	if c.Auth.FetchTimeout <= 0 {
		c.Auth.FetchTimeout = 10 * time.Second
	}
}

// Validate reports configuration problems that prevent the server from
// serving real traffic. Bypass-only local runs may leave Workvivo unset.
func (c *Config) Validate() error {
	if c.FAQ.DBPath == "" {
		return fmt.Errorf("faq.db_path is required")
	}
	switch c.FAQ.Matcher {
	case "", "exact", "contains":
	default:
		return fmt.Errorf("faq.matcher must be %q or %q, got %q", "exact", "contains", c.FAQ.Matcher)
	}
	if !c.Auth.BypassEnabled {
		if c.Workvivo.APIURL == "" {
			return fmt.Errorf("workvivo.api_url is required")
		}
		if c.Workvivo.Token == "" {
			return fmt.Errorf("workvivo token is required (set FAQBOT_WORKVIVO_TOKEN)")
		}
	}
	return nil
}
