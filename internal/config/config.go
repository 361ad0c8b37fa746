package config

import "time"

// Config is the root configuration for the FAQ bot server.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Workvivo  WorkvivoConfig  `json:"workvivo"`
	FAQ       FAQConfig       `json:"faq"`
	Auth      AuthConfig      `json:"auth"`
	Audit     AuditConfig     `json:"audit,omitempty"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`

	// RateLimitRPM > 0  → webhook rate limiting enabled at that RPM
	// RateLimitRPM <= 0 → disabled (default)
	RateLimitRPM int `json:"rate_limit_rpm,omitempty"`
}

// WorkvivoConfig configures the outbound Workvivo messaging API.
// Token is NEVER read from the config file, only from env
// FAQBOT_WORKVIVO_TOKEN.
type WorkvivoConfig struct {
	APIURL string `json:"api_url"`
	Token  string `json:"-"`
	ID     string `json:"id"` // tenant identifier, sent as the Workvivo-Id header
}

// FAQConfig configures the question/answer lookup store.
type FAQConfig struct {
	DBPath string `json:"db_path"`

	// Matcher selects the answer match policy: "exact" (default) compares
	// the normalized utterance against stored questions case-insensitively;
	// "contains" matches when a stored question occurs inside the utterance.
	Matcher string `json:"matcher,omitempty"`
}

// AuthConfig configures inbound signature verification.
type AuthConfig struct {
	// KeySetURL pins the JWKS location for this deployment. When set, the
	// key-set location claimed inside the token is ignored. When empty, the
	// claim-supplied location is used and logged as a warning.
	KeySetURL string `json:"keyset_url,omitempty"`

	// BypassEnabled accepts BypassSentinel in place of a real token.
	// Integration-testing escape hatch; keep disabled in production.
	BypassEnabled  bool   `json:"bypass_enabled,omitempty"`
	BypassSentinel string `json:"-"` // from env FAQBOT_BYPASS_TOKEN only

	// FetchTimeout bounds a single key-set fetch. Default 10s.
	FetchTimeout time.Duration `json:"-"`
}

// AuditConfig configures the append-only raw request log.
type AuditConfig struct {
	Path string `json:"path,omitempty"` // empty disables the audit log
}

// TelemetryConfig configures OpenTelemetry export for traces.
// When enabled, spans are exported to an OTLP-compatible backend
// (Jaeger, Tempo, Datadog, etc.).
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`     // e.g. "localhost:4317"
	Protocol    string            `json:"protocol,omitempty"`     // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`     // skip TLS, for local dev
	ServiceName string            `json:"service_name,omitempty"` // default "faqbot"
	Headers     map[string]string `json:"headers,omitempty"`      // extra headers (auth tokens etc.)
}

const secretMask = "***"

// MaskedCopy returns a copy of the config with secret fields masked.
// Used when echoing the effective config to logs or diagnostics.
func (c *Config) MaskedCopy() Config {
	cp := *c
	maskNonEmpty(&cp.Workvivo.Token)
	maskNonEmpty(&cp.Auth.BypassSentinel)
	return cp
}

func maskNonEmpty(s *string) {
	if *s != "" {
		*s = secretMask
	}
}
