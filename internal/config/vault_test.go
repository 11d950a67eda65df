package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumescore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "json number", input: json.Number("7"), expected: 7},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "invalid json number", input: json.Number("1.5"), expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "test/path")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token\n"), 0o600))

	token, err := resolveVaultToken(VaultConfig{Token: "direct"})
	require.NoError(t, err)
	assert.Equal(t, "direct", token)

	token, err = resolveVaultToken(VaultConfig{TokenFile: tokenFile})
	require.NoError(t, err)
	assert.Equal(t, "file-token", token)

	_, err = resolveVaultToken(VaultConfig{TokenFile: filepath.Join(dir, "missing")})
	assert.Error(t, err)

	_, err = resolveVaultToken(VaultConfig{})
	assert.Error(t, err)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****6789", maskSecret("abcdef123456789"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Server: ServerConfig{APIKeys: []string{"keep"}}}
	require.NoError(t, ApplyVaultSecrets(cfg, nil))
	assert.Equal(t, []string{"keep"}, cfg.Server.APIKeys)
}

// fakeVault serves KVv2 reads for the given path -> data map.
func fakeVault(t *testing.T, secrets map[string]map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/sys/health" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"initialized":  true,
				"sealed":       false,
				"standby":      false,
				"version":      "1.15.0",
				"cluster_name": "test",
			})
			return
		}
		data, ok := secrets[strings.TrimPrefix(r.URL.Path, "/v1/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 3},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestApplyVaultSecrets(t *testing.T) {
	srv := fakeVault(t, map[string]map[string]any{
		"secret/data/api":    {"keys": "k1, k2"},
		"secret/data/gemini": {"api_key": "gemini-key-123456"},
		"secret/data/jwt":    {"secret": "signing-secret"},
		"secret/data/store":  {"dsn": "postgres://vault/db"},
		"secret/data/s3":     {"access_key": "AK", "secret_key": "SK"},
		"secret/data/tls":    {"cert": "CERT", "key": "KEY"},
	})

	cfg := &Config{Vault: VaultConfig{
		Enabled: true,
		Address: srv.URL,
		Token:   "root",
		Secrets: VaultSecrets{
			APIKeys:       "secret/data/api",
			GeminiKey:     "secret/data/gemini",
			JWTSecret:     "secret/data/jwt",
			StoreDSN:      "secret/data/store",
			S3Credentials: "secret/data/s3",
			TLSCerts:      "secret/data/tls",
		},
	}}

	require.NoError(t, ApplyVaultSecrets(cfg, errors.Discard()))
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.Equal(t, "gemini-key-123456", cfg.AI.APIKey)
	assert.Equal(t, "signing-secret", cfg.Server.JWT.Secret)
	assert.Equal(t, "postgres://vault/db", cfg.Store.DSN)
	assert.Equal(t, "AK", cfg.Blob.AccessKey)
	assert.Equal(t, "SK", cfg.Blob.SecretKey)
	assert.Equal(t, "CERT", cfg.Server.TLS.CertContent)
	assert.Equal(t, "KEY", cfg.Server.TLS.KeyContent)
	assert.Empty(t, cfg.Server.TLS.CAContent)
}

func TestApplyVaultSecretsErrors(t *testing.T) {
	srv := fakeVault(t, map[string]map[string]any{
		"secret/data/s3":  {"access_key": "AK"},
		"secret/data/tls": {"cert_file": "/etc/cert.pem"},
	})

	tests := []struct {
		name    string
		secrets VaultSecrets
	}{
		{"missing path", VaultSecrets{GeminiKey: "secret/data/nothing"}},
		{"partial s3 credentials", VaultSecrets{S3Credentials: "secret/data/s3"}},
		{"deprecated tls fields", VaultSecrets{TLSCerts: "secret/data/tls"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Vault: VaultConfig{Enabled: true, Address: srv.URL, Token: "root", Secrets: tt.secrets}}
			err := ApplyVaultSecrets(cfg, nil)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
		})
	}
}

func TestApplyVaultSecretsRequiresToken(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Enabled: true, Address: "http://127.0.0.1:1"}}
	err := ApplyVaultSecrets(cfg, nil)
	assert.Error(t, err)
}
