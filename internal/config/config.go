package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/spf13/viper"
)

// SMSSecretEnv holds the terminal's secret key. It is never read from a file.
const SMSSecretEnv = "SODAMACHINE_SMS_SECRET"

var (
	// ErrMissingBaseURL indicates order_api.base_url is not configured.
	ErrMissingBaseURL = errors.New("order_api.base_url is required")
	// ErrMissingSecret indicates the SMS channel is enabled without a key.
	ErrMissingSecret = errors.New(SMSSecretEnv + " is required when sms.enabled is set")
	// ErrInvalidSecret indicates the configured key is neither hex nor nsec.
	ErrInvalidSecret = errors.New("invalid sms secret key")
)

// Config holds all application configuration.
type Config struct {
	Verbose  bool
	OrderAPI OrderAPIConfig
	Database DatabaseConfig
	Metrics  MetricsConfig
	SMS      SMSConfig
}

// OrderAPIConfig locates the Order Service.
type OrderAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	Path string
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Listen string // empty disables the endpoint
}

// SMSConfig holds the Nostr-backed SMS order channel settings.
type SMSConfig struct {
	Enabled bool
	Relays  []string

	// Populated by LoadWithSecrets.
	SecretHex string
	PubkeyHex string
	Npub      string
}

// Load reads configuration from Viper and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{
		Verbose: viper.GetBool("verbose"),
		OrderAPI: OrderAPIConfig{
			BaseURL: strings.TrimSpace(viper.GetString("order_api.base_url")),
			Timeout: viper.GetDuration("order_api.timeout"),
		},
		Database: DatabaseConfig{
			Path: viper.GetString("database.path"),
		},
		Metrics: MetricsConfig{
			Listen: viper.GetString("metrics.listen"),
		},
		SMS: SMSConfig{
			Enabled: viper.GetBool("sms.enabled"),
			Relays:  viper.GetStringSlice("sms.relays"),
		},
	}

	// Apply defaults
	if cfg.OrderAPI.Timeout <= 0 {
		cfg.OrderAPI.Timeout = 10 * time.Second
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "sodamachine.db"
	}
	if len(cfg.SMS.Relays) == 0 {
		cfg.SMS.Relays = []string{"wss://relay.damus.io"}
	}

	return cfg, nil
}

// LoadWithSecrets loads the config and, when the SMS channel is enabled,
// the terminal key from the environment.
func LoadWithSecrets() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if !cfg.SMS.Enabled {
		return cfg, nil
	}

	secret := strings.TrimSpace(os.Getenv(SMSSecretEnv))
	if secret == "" {
		return nil, ErrMissingSecret
	}

	secretHex, err := decodeSecret(secret)
	if err != nil {
		return nil, err
	}

	pubkeyHex, err := nostr.GetPublicKey(secretHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	npub, err := nip19.EncodePublicKey(pubkeyHex)
	if err != nil {
		return nil, fmt.Errorf("encoding npub: %w", err)
	}

	cfg.SMS.SecretHex = secretHex
	cfg.SMS.PubkeyHex = pubkeyHex
	cfg.SMS.Npub = npub
	return cfg, nil
}

// RequireOrderAPI checks that the Order Service is configured.
func (c *Config) RequireOrderAPI() error {
	if c.OrderAPI.BaseURL == "" {
		return ErrMissingBaseURL
	}
	return nil
}

// decodeSecret accepts a hex secret key or an nsec.
func decodeSecret(secret string) (string, error) {
	if strings.HasPrefix(secret, "nsec1") {
		prefix, value, err := nip19.Decode(secret)
		if err != nil || prefix != "nsec" {
			return "", fmt.Errorf("%w: bad nsec", ErrInvalidSecret)
		}
		hex, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("%w: bad nsec", ErrInvalidSecret)
		}
		return hex, nil
	}

	secret = strings.ToLower(secret)
	if !nostr.IsValid32ByteHex(secret) {
		return "", fmt.Errorf("%w: want 64 hex characters or nsec", ErrInvalidSecret)
	}
	return secret, nil
}
