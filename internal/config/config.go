package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/SamuelLess/carakube/internal/rules"
)

// Config is the scanner's runtime configuration. Values are resolved
// from, in increasing precedence: built-in defaults, a config file, and
// CARAKUBE_* environment variables.
type Config struct {
	// ListenAddr is the HTTP API listen address.
	ListenAddr string `mapstructure:"listen_addr"`

	// ScanInterval is the period between scan passes.
	ScanInterval time.Duration `mapstructure:"scan_interval"`

	// CallTimeout bounds every individual resource listing call.
	CallTimeout time.Duration `mapstructure:"call_timeout"`

	// Kubeconfig is the path to a kubeconfig file. Empty selects
	// in-cluster configuration with a kubeconfig fallback.
	Kubeconfig string `mapstructure:"kubeconfig"`

	// SystemNamespaces are excluded from security scans.
	SystemNamespaces []string `mapstructure:"system_namespaces"`

	// TrustedRegistries extend the image registry allow-list.
	TrustedRegistries []string `mapstructure:"trusted_registries"`

	// ExcludedRoles are ClusterRole names the RBAC scan skips.
	ExcludedRoles []string `mapstructure:"excluded_roles"`
}

// RuleConfig converts the scan-related settings into the rule engine's
// config shape.
func (c *Config) RuleConfig() rules.Config {
	return rules.Config{
		SystemNamespaces:  c.SystemNamespaces,
		TrustedRegistries: c.TrustedRegistries,
		ExcludedRoles:     c.ExcludedRoles,
	}
}

// Load resolves the configuration. path may be empty, in which case only
// well-known locations are searched and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := rules.DefaultConfig()
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("scan_interval", 120*time.Second)
	v.SetDefault("call_timeout", 30*time.Second)
	v.SetDefault("kubeconfig", "")
	v.SetDefault("system_namespaces", defaults.SystemNamespaces)
	v.SetDefault("trusted_registries", defaults.TrustedRegistries)
	v.SetDefault("excluded_roles", defaults.ExcludedRoles)

	v.SetEnvPrefix("CARAKUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("carakube")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/carakube")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.ScanInterval <= 0 {
		return nil, fmt.Errorf("scan_interval must be positive, got %s", cfg.ScanInterval)
	}
	if cfg.CallTimeout <= 0 {
		return nil, fmt.Errorf("call_timeout must be positive, got %s", cfg.CallTimeout)
	}
	return &cfg, nil
}
