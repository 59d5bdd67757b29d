// Package config provides Viper-based configuration for placectl.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete placectl configuration.
type Config struct {
	Portal  PortalConfig  `mapstructure:"portal"`
	Session SessionConfig `mapstructure:"session"`
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`
}

// PortalConfig locates the portal backend.
type PortalConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// SessionConfig controls where the access token is persisted.
type SessionConfig struct {
	TokenFile string `mapstructure:"token_file"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Colors bool `mapstructure:"colors"`
}

// Load reads configuration from file and PLACECTL_* environment
// variables. A missing config file is fine; defaults apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".placectl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/placectl")
	}

	v.SetEnvPrefix("PLACECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("portal.base_url", "http://localhost:8888")
	v.SetDefault("session.token_file", defaultTokenFile())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("output.colors", true)
}

// defaultTokenFile places the token under the user config directory,
// falling back to a dotfile in the working directory when the home
// cannot be resolved.
func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".placectl-token"
	}
	return filepath.Join(dir, "placectl", "token")
}

func validate(cfg *Config) error {
	if cfg.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url cannot be empty")
	}
	parsed, err := url.Parse(cfg.Portal.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("portal.base_url %q is not a valid URL", cfg.Portal.BaseURL)
	}
	if cfg.Session.TokenFile == "" {
		return fmt.Errorf("session.token_file cannot be empty")
	}
	return nil
}
