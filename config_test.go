package portal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shifahealth/portal-go/security"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultRequestTimeout, cfg.API.Timeout)
	assert.Empty(t, cfg.API.BaseURL)
	assert.False(t, cfg.Security.EnableAuditLogging)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "https://api.shifahealth.example"
timeout = "30s"
requests_per_second = 10.0
burst = 5

[security]
encryption_passphrase = "correct horse battery staple"
key_salt = "deployment-salt"
enable_audit_logging = true

[storage]
path = "/var/lib/portal/portal.db"
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.shifahealth.example", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 10.0, cfg.API.RequestsPerSecond)
	assert.Equal(t, 5, cfg.API.Burst)
	assert.Equal(t, "correct horse battery staple", cfg.Security.EncryptionPassphrase)
	assert.Equal(t, "deployment-salt", cfg.Security.KeySalt)
	assert.True(t, cfg.Security.EnableAuditLogging)
	assert.Equal(t, "/var/lib/portal/portal.db", cfg.Storage.Path)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "https://file.example"
timeout = "30s"
`), 0o600))

	t.Setenv("PORTAL_API_BASE_URL", "https://env.example")
	t.Setenv("PORTAL_API_TIMEOUT", "5s")
	t.Setenv("PORTAL_ENCRYPTION_PASSPHRASE", "from-env")
	t.Setenv("PORTAL_AUDIT_LOGGING", "true")
	t.Setenv("PORTAL_STORAGE_PATH", "/tmp/env.db")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "from-env", cfg.Security.EncryptionPassphrase)
	assert.True(t, cfg.Security.EnableAuditLogging)
	assert.Equal(t, "/tmp/env.db", cfg.Storage.Path)
}

func TestSecurityConfig_EncryptionKey(t *testing.T) {
	rawKey, err := security.GenerateKey()
	require.NoError(t, err)

	t.Run("explicit key", func(t *testing.T) {
		sc := SecurityConfig{EncryptionKey: security.KeyToBase64(rawKey)}
		key, warning, err := sc.encryptionKey()
		require.NoError(t, err)
		assert.Equal(t, rawKey, key)
		assert.Empty(t, warning)
	})

	t.Run("invalid key", func(t *testing.T) {
		sc := SecurityConfig{EncryptionKey: "not-base64!!!"}
		_, _, err := sc.encryptionKey()
		assert.Error(t, err)
	})

	t.Run("explicit key wins over passphrase", func(t *testing.T) {
		sc := SecurityConfig{
			EncryptionKey:        security.KeyToBase64(rawKey),
			EncryptionPassphrase: "ignored",
		}
		key, _, err := sc.encryptionKey()
		require.NoError(t, err)
		assert.Equal(t, rawKey, key)
	})

	t.Run("passphrase derivation is deterministic", func(t *testing.T) {
		sc := SecurityConfig{EncryptionPassphrase: "correct horse battery staple"}
		key1, warning, err := sc.encryptionKey()
		require.NoError(t, err)
		assert.Empty(t, warning)
		assert.Len(t, key1, 32)

		key2, _, err := sc.encryptionKey()
		require.NoError(t, err)
		assert.Equal(t, key1, key2)

		salted := SecurityConfig{
			EncryptionPassphrase: "correct horse battery staple",
			KeySalt:              "other-salt",
		}
		key3, _, err := salted.encryptionKey()
		require.NoError(t, err)
		assert.NotEqual(t, key1, key3)
	})

	t.Run("dev fallback warns", func(t *testing.T) {
		sc := SecurityConfig{AllowInsecureDevKey: true}
		key, warning, err := sc.encryptionKey()
		require.NoError(t, err)
		assert.Len(t, key, 32)
		assert.NotEmpty(t, warning)
	})

	t.Run("nothing configured is an error", func(t *testing.T) {
		sc := SecurityConfig{}
		_, _, err := sc.encryptionKey()
		assert.Error(t, err)
	})
}
