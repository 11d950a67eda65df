package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"resumescore/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault. Every path points at a
// KVv2 data path such as "secret/data/resumescore/gemini".
type VaultSecrets struct {
	APIKeys       string `mapstructure:"apiKeys"`       // key "keys", comma separated
	GeminiKey     string `mapstructure:"geminiKey"`     // key "api_key"
	JWTSecret     string `mapstructure:"jwtSecret"`     // key "secret"
	StoreDSN      string `mapstructure:"storeDsn"`      // key "dsn"
	S3Credentials string `mapstructure:"s3Credentials"` // keys "access_key", "secret_key"
	TLSCerts      string `mapstructure:"tlsCerts"`      // keys "cert", "key", "ca"
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration. It returns
// nil, nil when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	if !config.Enabled {
		logger.Debug("Vault integration disabled")
		return nil, nil
	}

	logger.Debug("Initializing Vault client",
		"address", config.Address,
		"namespace", config.Namespace,
		"token_file", config.TokenFile,
		"has_token", config.Token != "")

	client, err := createVaultAPIClient(config)
	if err != nil {
		return nil, err
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	if err := testVaultConnection(client, config.Address, logger); err != nil {
		return nil, err
	}

	return &VaultClient{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// createVaultAPIClient creates and configures the Vault API client
func createVaultAPIClient(config VaultConfig) (*api.Client, error) {
	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	return client, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}

	return token, nil
}

// testVaultConnection tests the connection to Vault
func testVaultConnection(client *api.Client, address string, logger *errors.Logger) error {
	health, err := client.Sys().Health()
	if err != nil {
		return fmt.Errorf("failed to connect to vault: %w", err)
	}
	if health.Sealed {
		return fmt.Errorf("vault at %s is sealed", address)
	}

	logger.Info("Connected to Vault",
		"address", address,
		"version", health.Version,
		"cluster_name", health.ClusterName)
	return nil
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	vc.logger.Debug("Reading secret from Vault", "path", path)

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, err := extractSecretData(secret, path)
	if err != nil {
		return nil, err
	}

	version, err := extractSecretVersion(secret, path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{
		Data:    data,
		Version: version,
	}, nil
}

// extractSecretData extracts the data field from a KVv2 secret
func extractSecretData(secret *api.Secret, path string) (map[string]any, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	return data, nil
}

// extractSecretVersion extracts and parses the version from a KVv2 secret
func extractSecretVersion(secret *api.Secret, path string) (int64, error) {
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}

	versionRaw, ok := metadata["version"]
	if !ok {
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}

	return parseVersionValue(versionRaw, path)
}

// parseVersionValue parses version value from various types
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		version, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// String returns a string field of the secret.
func (s *VaultSecret) String(key string) (string, bool) {
	value, ok := s.Data[key].(string)
	return value, ok && value != ""
}

// GetStringSecret retrieves a string value from a Vault secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}

	vc.logger.Debug("String secret retrieved from Vault",
		"path", path,
		"key", key,
		"masked_value", maskSecret(strValue))

	return strValue, nil
}

// GetStringSliceSecret retrieves a comma-separated string as a slice from Vault
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitList(value), nil
}

func maskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case value != "":
		return "****"
	default:
		return ""
	}
}

// secretLoader reads one configured Vault path into the config.
type secretLoader struct {
	name  string
	path  func(VaultSecrets) string
	apply func(*Config, *VaultSecret) (int, error)
}

var secretLoaders = []secretLoader{
	{
		name: "API keys",
		path: func(s VaultSecrets) string { return s.APIKeys },
		apply: func(c *Config, s *VaultSecret) (int, error) {
			raw, ok := s.String("keys")
			if !ok {
				return 0, fmt.Errorf("key 'keys' not found")
			}
			keys := splitList(raw)
			if len(keys) > 0 {
				c.Server.APIKeys = keys
			}
			return len(keys), nil
		},
	},
	{
		name: "Gemini API key",
		path: func(s VaultSecrets) string { return s.GeminiKey },
		apply: func(c *Config, s *VaultSecret) (int, error) {
			return applyString(s, "api_key", &c.AI.APIKey)
		},
	},
	{
		name: "JWT secret",
		path: func(s VaultSecrets) string { return s.JWTSecret },
		apply: func(c *Config, s *VaultSecret) (int, error) {
			return applyString(s, "secret", &c.Server.JWT.Secret)
		},
	},
	{
		name: "store DSN",
		path: func(s VaultSecrets) string { return s.StoreDSN },
		apply: func(c *Config, s *VaultSecret) (int, error) {
			return applyString(s, "dsn", &c.Store.DSN)
		},
	},
	{
		name: "S3 credentials",
		path: func(s VaultSecrets) string { return s.S3Credentials },
		apply: func(c *Config, s *VaultSecret) (int, error) {
			access, hasAccess := s.String("access_key")
			secret, hasSecret := s.String("secret_key")
			if !hasAccess || !hasSecret {
				return 0, fmt.Errorf("both 'access_key' and 'secret_key' are required")
			}
			c.Blob.AccessKey, c.Blob.SecretKey = access, secret
			return 2, nil
		},
	},
	{
		name: "TLS certificates",
		path: func(s VaultSecrets) string { return s.TLSCerts },
		apply: func(c *Config, s *VaultSecret) (int, error) {
			for _, field := range []string{"cert_file", "key_file", "ca_file"} {
				if _, ok := s.Data[field]; ok {
					return 0, fmt.Errorf("'%s' field is no longer supported, store certificate content in '%s' instead",
						field, strings.TrimSuffix(field, "_file"))
				}
			}
			count := 0
			for key, target := range map[string]*string{
				"cert": &c.Server.TLS.CertContent,
				"key":  &c.Server.TLS.KeyContent,
				"ca":   &c.Server.TLS.CAContent,
			} {
				if content, ok := s.String(key); ok {
					*target = content
					count++
				}
			}
			return count, nil
		},
	},
}

func applyString(s *VaultSecret, key string, target *string) (int, error) {
	value, ok := s.String(key)
	if !ok {
		return 0, fmt.Errorf("key '%s' not found or empty", key)
	}
	*target = value
	return 1, nil
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if logger == nil {
		logger = errors.Discard()
	}
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to initialize vault client", err)
	}

	return client.apply(config)
}

func (vc *VaultClient) apply(config *Config) error {
	for _, loader := range secretLoaders {
		path := loader.path(vc.config.Secrets)
		if path == "" {
			continue
		}

		secret, err := vc.GetSecretV2(path)
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("failed to load %s from vault", loader.name), err).WithContext("path", path)
		}

		count, err := loader.apply(config, secret)
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("invalid %s secret in vault", loader.name), err).WithContext("path", path)
		}

		vc.logger.Info("Secret loaded from Vault",
			"secret", loader.name,
			"path", path,
			"version", secret.Version,
			"values", count)
	}
	return nil
}
