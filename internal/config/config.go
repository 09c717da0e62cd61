package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Client side.
	BaseURL      string
	AppCode      string
	Timeout      time.Duration
	StateFile    string
	OTLPEndpoint string

	// Fake server side.
	Port           int
	MasterSecret   string
	GinMode        string
	TLSCertFile    string
	TLSKeyFile     string
	TokenExpiry    time.Duration
	AdminUsername  string
	AdminPassword  string
	UsersStateFile string
}

// fileConfig mirrors Config for the optional YAML file. Pointers distinguish
// unset keys from zero values.
type fileConfig struct {
	URL                *string `yaml:"url"`
	AppCode            *string `yaml:"appcode"`
	TimeoutSeconds     *int    `yaml:"timeoutSeconds"`
	StateFile          *string `yaml:"stateFile"`
	OTLPEndpoint       *string `yaml:"otlpEndpoint"`
	Port               *int    `yaml:"port"`
	MasterSecret       *string `yaml:"masterSecret"`
	GinMode            *string `yaml:"ginMode"`
	TLSCertFile        *string `yaml:"tlsCertFile"`
	TLSKeyFile         *string `yaml:"tlsKeyFile"`
	TokenExpirySeconds *int    `yaml:"tokenExpirySeconds"`
	AdminUsername      *string `yaml:"adminUsername"`
	AdminPassword      *string `yaml:"adminPassword"`
	UsersStateFile     *string `yaml:"usersStateFile"`
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(osEnv{})
}

func defaults(env Env) Config {
	cfg := Config{
		BaseURL:       "http://localhost:9000",
		AppCode:       "1234567890",
		Timeout:       30 * time.Second,
		Port:          9000,
		GinMode:       "release",
		TokenExpiry:   7 * 24 * time.Hour,
		AdminUsername: "admin",
		AdminPassword: "admin",
	}
	home := env.Getenv("HOME")
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	}
	if home != "" {
		cfg.StateFile = filepath.Join(home, ".baasbox", "session.yaml")
	}
	return cfg
}

func LoadConfigFromEnv(env Env) (Config, error) {
	cfg := defaults(env)

	if path := env.Getenv("BAASBOX_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read BAASBOX_CONFIG: %w", err)
		}
		if err := applyYAML(&cfg, data); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if raw := env.Getenv("BAASBOX_URL"); raw != "" {
		cfg.BaseURL = raw
	}
	if raw := env.Getenv("BAASBOX_APPCODE"); raw != "" {
		cfg.AppCode = raw
	}
	if raw := env.Getenv("BAASBOX_TIMEOUT_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid BAASBOX_TIMEOUT_SECONDS")
		}
		cfg.Timeout = time.Duration(seconds) * time.Second
	}
	if raw := env.Getenv("BAASBOX_STATE_FILE"); raw != "" {
		cfg.StateFile = raw
	}
	if raw := env.Getenv("BAASBOX_OTLP_ENDPOINT"); raw != "" {
		cfg.OTLPEndpoint = raw
	}

	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT")
		}
		cfg.Port = port
	}
	if raw := env.Getenv("MASTER_SECRET"); raw != "" {
		cfg.MasterSecret = raw
	}
	if raw := env.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}
	if raw := env.Getenv("TLS_CERT_FILE"); raw != "" {
		cfg.TLSCertFile = raw
	}
	if raw := env.Getenv("TLS_KEY_FILE"); raw != "" {
		cfg.TLSKeyFile = raw
	}
	if raw := env.Getenv("TOKEN_EXPIRY_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_EXPIRY_SECONDS")
		}
		cfg.TokenExpiry = time.Duration(seconds) * time.Second
	}
	if raw := env.Getenv("ADMIN_USERNAME"); raw != "" {
		cfg.AdminUsername = raw
	}
	if raw := env.Getenv("ADMIN_PASSWORD"); raw != "" {
		cfg.AdminPassword = raw
	}
	if raw := env.Getenv("USERS_STATE_FILE"); raw != "" {
		cfg.UsersStateFile = raw
	}

	return cfg, nil
}

func applyYAML(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	setString(&cfg.BaseURL, fc.URL)
	setString(&cfg.AppCode, fc.AppCode)
	setString(&cfg.StateFile, fc.StateFile)
	setString(&cfg.OTLPEndpoint, fc.OTLPEndpoint)
	setString(&cfg.MasterSecret, fc.MasterSecret)
	setString(&cfg.GinMode, fc.GinMode)
	setString(&cfg.TLSCertFile, fc.TLSCertFile)
	setString(&cfg.TLSKeyFile, fc.TLSKeyFile)
	setString(&cfg.AdminUsername, fc.AdminUsername)
	setString(&cfg.AdminPassword, fc.AdminPassword)
	setString(&cfg.UsersStateFile, fc.UsersStateFile)

	if fc.TimeoutSeconds != nil {
		if *fc.TimeoutSeconds <= 0 {
			return errors.New("invalid timeoutSeconds")
		}
		cfg.Timeout = time.Duration(*fc.TimeoutSeconds) * time.Second
	}
	if fc.TokenExpirySeconds != nil {
		if *fc.TokenExpirySeconds <= 0 {
			return errors.New("invalid tokenExpirySeconds")
		}
		cfg.TokenExpiry = time.Duration(*fc.TokenExpirySeconds) * time.Second
	}
	if fc.Port != nil {
		if *fc.Port <= 0 || *fc.Port > 65535 {
			return errors.New("invalid port")
		}
		cfg.Port = *fc.Port
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// ValidateServer checks the settings only the fake server needs.
func (c Config) ValidateServer() error {
	if c.MasterSecret == "" {
		return fmt.Errorf("MASTER_SECRET is required")
	}
	if c.AdminUsername == "" || c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must not be empty")
	}
	return nil
}
