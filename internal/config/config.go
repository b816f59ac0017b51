package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "MUSEBOOK"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultDatabasePath  = "musebook.db"
	defaultLogLevel      = "info"
	defaultSyncSeconds   = 5
	defaultCharmModel    = "gemini-2.5-flash"
	defaultCharmEndpoint = "https://generativelanguage.googleapis.com"
)

// AppConfig captures runtime configuration for the archive API server.
type AppConfig struct {
	HTTPAddress   string
	DatabasePath  string
	LogLevel      string
	AccessKey     string
	SigningSecret string
	SyncInterval  time.Duration
	CharmAPIKey   string
	CharmModel    string
	CharmBaseURL  string
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

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("sync.interval_seconds", defaultSyncSeconds)
	configViper.SetDefault("charm.model", defaultCharmModel)
	configViper.SetDefault("charm.base_url", defaultCharmEndpoint)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		DatabasePath:  configViper.GetString("database.path"),
		LogLevel:      configViper.GetString("log.level"),
		AccessKey:     configViper.GetString("auth.access_key"),
		SigningSecret: configViper.GetString("auth.signing_secret"),
		SyncInterval:  time.Duration(configViper.GetInt("sync.interval_seconds")) * time.Second,
		CharmAPIKey:   configViper.GetString("charm.api_key"),
		CharmModel:    configViper.GetString("charm.model"),
		CharmBaseURL:  configViper.GetString("charm.base_url"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.AccessKey) == "" {
		return fmt.Errorf("auth.access_key is required")
	}
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync.interval_seconds must be positive")
	}
	return nil
}
