// Package config loads runtime configuration from environment variables
// with sane defaults. Every key maps to FINSYNC_<SECTION>_<KEY>.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix = "FINSYNC"

	defaultStorageBackend = "bolt"
	defaultStoragePath    = "finsync.db"
	defaultLogLevel       = "info"

	defaultTombstoneTTL    = 720 * time.Hour // 30 days
	defaultBackoffBase     = 2 * time.Second
	defaultBackoffCap      = 2 * time.Minute
	defaultBackoffAttempts = 5
	defaultProbePeriod     = 30 * time.Second
)

// Storage backends.
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
)

// AppConfig captures runtime configuration for the sync engine.
type AppConfig struct {
	ServerURL   string
	ServerToken string

	StorageBackend string
	StoragePath    string
	LogLevel       string

	SyncEnabled  bool
	TombstoneTTL time.Duration

	BackoffBase     time.Duration
	BackoffCap      time.Duration
	BackoffAttempts uint64

	ProbePeriod time.Duration

	QuietHoursStart      int
	QuietHoursEnd        int
	SuccessNotifications string

	// SealKeyHex is the hex-encoded 32-byte payload key. Empty disables
	// payload sealing.
	SealKeyHex string
}

// SealKey decodes the payload key, or returns nil when sealing is off.
func (c AppConfig) SealKey() ([]byte, error) {
	if strings.TrimSpace(c.SealKeyHex) == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.SealKeyHex)
	if err != nil {
		return nil, fmt.Errorf("seal.key is not valid hex: %w", err)
	}
	return key, nil
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("storage.backend", defaultStorageBackend)
	configViper.SetDefault("storage.path", defaultStoragePath)
	configViper.SetDefault("log.level", defaultLogLevel)

	configViper.SetDefault("sync.enabled", true)
	configViper.SetDefault("sync.tombstone_ttl", defaultTombstoneTTL)
	configViper.SetDefault("sync.backoff_base", defaultBackoffBase)
	configViper.SetDefault("sync.backoff_cap", defaultBackoffCap)
	configViper.SetDefault("sync.backoff_attempts", defaultBackoffAttempts)
	configViper.SetDefault("sync.quiet_hours_start", 0)
	configViper.SetDefault("sync.quiet_hours_end", 0)
	configViper.SetDefault("sync.success_notifications", "important_only")

	configViper.SetDefault("netmon.probe_period", defaultProbePeriod)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		ServerURL:            configViper.GetString("server.url"),
		ServerToken:          configViper.GetString("server.token"),
		StorageBackend:       configViper.GetString("storage.backend"),
		StoragePath:          configViper.GetString("storage.path"),
		LogLevel:             configViper.GetString("log.level"),
		SyncEnabled:          configViper.GetBool("sync.enabled"),
		TombstoneTTL:         configViper.GetDuration("sync.tombstone_ttl"),
		BackoffBase:          configViper.GetDuration("sync.backoff_base"),
		BackoffCap:           configViper.GetDuration("sync.backoff_cap"),
		BackoffAttempts:      configViper.GetUint64("sync.backoff_attempts"),
		ProbePeriod:          configViper.GetDuration("netmon.probe_period"),
		QuietHoursStart:      configViper.GetInt("sync.quiet_hours_start"),
		QuietHoursEnd:        configViper.GetInt("sync.quiet_hours_end"),
		SuccessNotifications: configViper.GetString("sync.success_notifications"),
		SealKeyHex:           configViper.GetString("seal.key"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if c.StorageBackend != BackendBolt && c.StorageBackend != BackendSQLite {
		return fmt.Errorf("storage.backend must be %q or %q", BackendBolt, BackendSQLite)
	}
	if strings.TrimSpace(c.StoragePath) == "" {
		return fmt.Errorf("storage.path is required")
	}
	switch c.SuccessNotifications {
	case "always", "important_only", "never":
	default:
		return fmt.Errorf("sync.success_notifications must be always, important_only or never")
	}
	if c.QuietHoursStart < 0 || c.QuietHoursStart > 23 || c.QuietHoursEnd < 0 || c.QuietHoursEnd > 23 {
		return fmt.Errorf("quiet hours must be within 0..23")
	}
	return nil
}
