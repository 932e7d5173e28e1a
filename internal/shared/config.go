package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override the credentials and library sections.
const (
	EnvEmail    = "RATINGSYNC_EMAIL"
	EnvPassword = "RATINGSYNC_PASSWORD"
	EnvLibrary  = "RATINGSYNC_LIBRARY"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Service     ServiceConfig     `toml:"service"`
	Library     LibraryConfig     `toml:"library"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains the operator's music service login.
type CredentialsConfig struct {
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

// ServiceConfig contains remote music service endpoints and write pacing.
type ServiceConfig struct {
	BaseURL           string  `toml:"base_url"`
	TokenURL          string  `toml:"token_url"`
	ClientID          string  `toml:"client_id"`
	UpdateBatchSize   int     `toml:"update_batch_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LibraryConfig points at the exported media library.
type LibraryConfig struct {
	Path        string `toml:"path"`
	OnlyUnrated bool   `toml:"only_unrated"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads variables from the given .env files when they exist, then applies them on top of the config.
//
// Missing .env files are not an error; variables already present in the process environment win over file values.
func (c *Config) LoadEnv(paths ...string) error {
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}

	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return fmt.Errorf("%w: failed to load env file: %v", ErrInvalidConfig, err)
		}
	}

	if v := os.Getenv(EnvEmail); v != "" {
		c.Credentials.Email = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.Credentials.Password = v
	}
	if v := os.Getenv(EnvLibrary); v != "" {
		c.Library.Path = v
	}
	return nil
}

// Validate checks that every value a sync run needs is present.
func (c *Config) Validate() error {
	if c.Credentials.Email == "" || c.Credentials.Password == "" {
		return fmt.Errorf("%w: email and password are required", ErrMissingCredentials)
	}
	if c.Library.Path == "" {
		return fmt.Errorf("%w: library path is required", ErrInvalidConfig)
	}
	if c.Service.BaseURL == "" || c.Service.TokenURL == "" {
		return fmt.Errorf("%w: service base_url and token_url are required", ErrInvalidConfig)
	}
	return nil
}
