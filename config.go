package portal

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/shifahealth/portal-go/instrumentation"
	"github.com/shifahealth/portal-go/security"
	"github.com/shifahealth/portal-go/storage"
)

const (
	// DefaultRequestTimeout bounds every API request. A request that runs
	// past it is aborted and reported as a TimeoutError.
	DefaultRequestTimeout = 15 * time.Second

	// defaultKeySalt is the PBKDF2 salt used when a deployment configures
	// an encryption passphrase without its own salt.
	defaultKeySalt = "shifahealth-portal-v1"

	// devPassphrase seeds the insecure development fallback key. It only
	// ever applies behind Security.AllowInsecureDevKey.
	devPassphrase = "portal-dev-only-key"
)

// Config holds the client configuration.
// Structured using composition, one sub-config per concern.
type Config struct {
	// API holds connection settings for the dashboard REST API.
	API APIConfig

	// Security holds encryption and audit settings.
	Security SecurityConfig

	// RateLimit holds the client-side attempt limiting policies.
	RateLimit RateLimitConfig

	// Storage holds persistent-scope settings.
	Storage StorageConfig

	// Logger for structured logging (optional, uses slog.Default if not
	// provided).
	Logger *slog.Logger

	// HTTPClient is a custom HTTP client for API requests. If not
	// provided, a default client is used. Per-request timeouts are
	// enforced via context regardless.
	HTTPClient *http.Client

	// Instrumentation provides OpenTelemetry meters and tracers.
	// Defaults to a no-op instance.
	Instrumentation *instrumentation.Instrumentation

	// SessionStore overrides the session storage scope. Defaults to an
	// in-memory store, which gives the scope its process-bound lifetime.
	SessionStore storage.Store

	// PersistentStore overrides the persistent storage scope. Defaults to
	// the SQLite store at Storage.Path, or an in-memory store when no
	// path is configured.
	PersistentStore storage.Store

	// OnSessionExpired is called after a 401 response has torn down the
	// local session, so the UI can force re-authentication. More
	// listeners can be added with Client.OnSessionExpired.
	OnSessionExpired func()
}

// APIConfig holds connection settings for the dashboard REST API.
type APIConfig struct {
	// BaseURL is the API root, e.g. "https://api.shifahealth.example".
	// Required.
	BaseURL string

	// Timeout bounds each request. Default: DefaultRequestTimeout.
	Timeout time.Duration

	// RequestsPerSecond enables global request pacing when positive.
	// Blocked requests wait rather than fail.
	RequestsPerSecond float64

	// Burst is the pacing burst size. Default: 1 when pacing is enabled.
	Burst int
}

// SecurityConfig holds encryption and audit settings.
type SecurityConfig struct {
	// EncryptionKey is the base64-encoded 32-byte AES-256 key protecting
	// the token at rest. Takes precedence over EncryptionPassphrase.
	EncryptionKey string

	// EncryptionPassphrase derives the key via PBKDF2-SHA256 when no raw
	// key is configured.
	EncryptionPassphrase string

	// KeySalt is the PBKDF2 salt for passphrase derivation. Defaults to a
	// fixed SDK salt.
	KeySalt string

	// AllowInsecureDevKey permits running without a configured key by
	// deriving one from a fixed development passphrase.
	// WARNING: Tokens encrypted this way are readable by anyone with the
	// SDK source. Never enable outside development; startup logs a
	// warning when the fallback is taken.
	AllowInsecureDevKey bool

	// EnableAuditLogging enables security audit logging (login outcomes,
	// rate limit rejections, session expiry; identifiers hashed).
	EnableAuditLogging bool
}

// RateLimitConfig holds the client-side attempt limiting policies for the
// sensitive auth operations. Zero values fall back to the defaults in the
// security package (login 5/min, registration and password reset 3/5min).
type RateLimitConfig struct {
	LoginMaxAttempts int
	LoginWindow      time.Duration

	RegistrationMaxAttempts int
	RegistrationWindow      time.Duration

	PasswordResetMaxAttempts int
	PasswordResetWindow      time.Duration
}

// StorageConfig holds persistent-scope settings.
type StorageConfig struct {
	// Path is the SQLite database file backing the persistent scope.
	// Empty means the persistent scope is in-memory too, which
	// effectively disables "remember me" across restarts.
	Path string
}

// encryptionKey resolves the configured at-rest encryption key.
// Missing key material is a hard error unless AllowInsecureDevKey is set;
// the returned warning is non-empty when the development fallback was
// taken and must be logged by the caller.
func (c *SecurityConfig) encryptionKey() (key []byte, warning string, err error) {
	salt := c.KeySalt
	if salt == "" {
		salt = defaultKeySalt
	}

	switch {
	case c.EncryptionKey != "":
		key, err = security.KeyFromBase64(c.EncryptionKey)
		if err != nil {
			return nil, "", fmt.Errorf("invalid encryption key: %w", err)
		}
		return key, "", nil
	case c.EncryptionPassphrase != "":
		return security.DeriveKey(c.EncryptionPassphrase, salt), "", nil
	case c.AllowInsecureDevKey:
		return security.DeriveKey(devPassphrase, salt),
			"no encryption key configured, using insecure development fallback key", nil
	default:
		return nil, "", fmt.Errorf("no encryption key configured: set Security.EncryptionKey or Security.EncryptionPassphrase (or Security.AllowInsecureDevKey for development)")
	}
}

// fileConfig mirrors the subset of Config that can come from a TOML file.
type fileConfig struct {
	API struct {
		BaseURL           string   `toml:"base_url"`
		Timeout           duration `toml:"timeout"`
		RequestsPerSecond float64  `toml:"requests_per_second"`
		Burst             int      `toml:"burst"`
	} `toml:"api"`
	Security struct {
		EncryptionKey        string `toml:"encryption_key"`
		EncryptionPassphrase string `toml:"encryption_passphrase"`
		KeySalt              string `toml:"key_salt"`
		AllowInsecureDevKey  bool   `toml:"allow_insecure_dev_key"`
		EnableAuditLogging   bool   `toml:"enable_audit_logging"`
	} `toml:"security"`
	Storage struct {
		Path string `toml:"path"`
	} `toml:"storage"`
}

// duration lets TOML carry values like "15s".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// LoadConfig constructs a Config by overlaying sources: defaults, then the
// TOML file at path (if path is non-empty), then environment variables.
// Later sources take precedence.
//
// Environment variables: PORTAL_API_BASE_URL, PORTAL_API_TIMEOUT,
// PORTAL_ENCRYPTION_KEY, PORTAL_ENCRYPTION_PASSPHRASE, PORTAL_KEY_SALT,
// PORTAL_ALLOW_INSECURE_DEV_KEY, PORTAL_AUDIT_LOGGING, PORTAL_STORAGE_PATH.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		API: APIConfig{Timeout: DefaultRequestTimeout},
	}

	if path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		applyFileConfig(cfg, &fc)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyFileConfig(cfg *Config, fc *fileConfig) {
	if fc.API.BaseURL != "" {
		cfg.API.BaseURL = fc.API.BaseURL
	}
	if fc.API.Timeout != 0 {
		cfg.API.Timeout = time.Duration(fc.API.Timeout)
	}
	if fc.API.RequestsPerSecond != 0 {
		cfg.API.RequestsPerSecond = fc.API.RequestsPerSecond
	}
	if fc.API.Burst != 0 {
		cfg.API.Burst = fc.API.Burst
	}
	if fc.Security.EncryptionKey != "" {
		cfg.Security.EncryptionKey = fc.Security.EncryptionKey
	}
	if fc.Security.EncryptionPassphrase != "" {
		cfg.Security.EncryptionPassphrase = fc.Security.EncryptionPassphrase
	}
	if fc.Security.KeySalt != "" {
		cfg.Security.KeySalt = fc.Security.KeySalt
	}
	if fc.Security.AllowInsecureDevKey {
		cfg.Security.AllowInsecureDevKey = true
	}
	if fc.Security.EnableAuditLogging {
		cfg.Security.EnableAuditLogging = true
	}
	if fc.Storage.Path != "" {
		cfg.Storage.Path = fc.Storage.Path
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORTAL_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("PORTAL_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = d
		}
	}
	if v := os.Getenv("PORTAL_ENCRYPTION_KEY"); v != "" {
		cfg.Security.EncryptionKey = v
	}
	if v := os.Getenv("PORTAL_ENCRYPTION_PASSPHRASE"); v != "" {
		cfg.Security.EncryptionPassphrase = v
	}
	if v := os.Getenv("PORTAL_KEY_SALT"); v != "" {
		cfg.Security.KeySalt = v
	}
	if v := os.Getenv("PORTAL_ALLOW_INSECURE_DEV_KEY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Security.AllowInsecureDevKey = b
		}
	}
	if v := os.Getenv("PORTAL_AUDIT_LOGGING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Security.EnableAuditLogging = b
		}
	}
	if v := os.Getenv("PORTAL_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
}
