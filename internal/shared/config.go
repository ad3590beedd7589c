package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment names accepted in the config file.
const (
	EnvAuto        = "auto"
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Environment string        `toml:"environment"`
	API         APIConfig     `toml:"api"`
	Profile     ProfileConfig `toml:"profile"`
	OAuth       OAuthConfig   `toml:"oauth"`
	Public      PublicConfig  `toml:"public"`
	Export      ExportConfig  `toml:"export"`
	Log         LogConfig     `toml:"log"`
}

// APIConfig contains backend endpoints and request policy knobs.
type APIConfig struct {
	BaseURL           string  `toml:"base_url"`
	WSURL             string  `toml:"ws_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ProfileConfig points at the per-profile database holding the credential and anonymous identity.
type ProfileConfig struct {
	Path string `toml:"path"`
}

// OAuthConfig contains the loopback callback address used for Google sign-in.
type OAuthConfig struct {
	CallbackHost string `toml:"callback_host"`
	CallbackPort int    `toml:"callback_port"`
}

// PublicConfig contains settings for actions on public wishlists.
type PublicConfig struct {
	// ContributionPolicy is "strict" (reserved items take no contributions) or "lenient".
	ContributionPolicy string `toml:"contribution_policy"`
}

// ExportConfig contains settings for bulk wishlist exports.
type ExportConfig struct {
	Workers           int     `toml:"workers"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Environment {
	case "", EnvAuto, EnvProduction, EnvDevelopment:
	default:
		return fmt.Errorf("%w: unknown environment %q", ErrInvalidConfig, c.Environment)
	}

	if _, err := url.ParseRequestURI(c.API.BaseURL); err != nil {
		return fmt.Errorf("%w: api.base_url: %v", ErrInvalidConfig, err)
	}

	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: api.requests_per_second must not be negative", ErrInvalidConfig)
	}

	switch c.Public.ContributionPolicy {
	case "", "strict", "lenient":
	default:
		return fmt.Errorf("%w: unknown public.contribution_policy %q", ErrInvalidConfig, c.Public.ContributionPolicy)
	}

	if c.Export.Workers < 0 || c.Export.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: export settings must not be negative", ErrInvalidConfig)
	}

	return nil
}

// IsProduction reports whether the client should use production-like request policy.
//
// In "auto" mode any backend host other than a loopback one counts as production.
func (c *Config) IsProduction() bool {
	switch c.Environment {
	case EnvProduction:
		return true
	case EnvDevelopment:
		return false
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host != "" && !strings.Contains(host, "localhost") && host != "127.0.0.1" && host != "::1"
}

// WebSocketURL derives the push endpoint base, preferring ws_url and otherwise rewriting the API origin.
func (c *Config) WebSocketURL() string {
	base := c.API.WSURL
	if base == "" {
		if u, err := url.Parse(c.API.BaseURL); err == nil {
			base = u.Scheme + "://" + u.Host
		}
	}
	if strings.HasPrefix(base, "http") {
		base = "ws" + strings.TrimPrefix(base, "http")
	}
	return strings.TrimRight(base, "/")
}
