package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/telekom/graphctl/pkg/graphctl/auth"
	"github.com/telekom/graphctl/pkg/graphctl/client"
	"github.com/telekom/graphctl/pkg/graphctl/graph"
)

const (
	VersionV1 = "v1"

	EnvConfig        = "GRAPHCTL_CONFIG"
	EnvClientID      = "AAD_CLIENT_ID"
	EnvTenantID      = "AAD_TENANT_ID"
	EnvScopes        = "GRAPHCTL_SCOPES"
	EnvAuthority     = "GRAPHCTL_AUTHORITY"
	EnvGraphEndpoint = "GRAPHCTL_GRAPH_ENDPOINT"
)

// DefaultScopes lets the demo read the profile and the inbox and send mail.
var DefaultScopes = []string{"user.read", "mail.read", "mail.send"}

type Config struct {
	Version       string   `json:"version,omitempty" yaml:"version"`
	ClientID      string   `json:"client-id,omitempty" yaml:"client-id,omitempty"`
	TenantID      string   `json:"tenant-id,omitempty" yaml:"tenant-id,omitempty"`
	Authority     string   `json:"authority,omitempty" yaml:"authority,omitempty"`
	Scopes        []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	GraphEndpoint string   `json:"graph-endpoint,omitempty" yaml:"graph-endpoint,omitempty"`
	ArtifactsDir  string   `json:"artifacts-dir,omitempty" yaml:"artifacts-dir,omitempty"`
	Settings      Settings `json:"settings,omitempty" yaml:"settings,omitempty"`
}

type Settings struct {
	OutputFormat string `json:"output-format,omitempty" yaml:"output-format,omitempty"`
	// Timeout bounds a single HTTP request, as a Go duration string.
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// RateLimit is the maximum number of Graph requests per second; 0 disables limiting.
	RateLimit float64 `json:"rate-limit,omitempty" yaml:"rate-limit,omitempty"`
	Burst     int     `json:"burst,omitempty" yaml:"burst,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Version:       VersionV1,
		Scopes:        append([]string(nil), DefaultScopes...),
		GraphEndpoint: client.DefaultBaseURL,
		ArtifactsDir:  graph.DefaultArtifactsDir,
		Settings: Settings{
			OutputFormat: "table",
			Timeout:      "30s",
			Burst:        1,
		},
	}
}

// Load reads the config at path. A missing file yields the defaults. Values from the
// environment are applied on top.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	cfg := DefaultConfig()
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	if cfg.Version != VersionV1 {
		return nil, fmt.Errorf("%w: unsupported config version %q", auth.ErrConfig, cfg.Version)
	}
	cfg.ApplyEnv()
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

// Write renders cfg as it would be saved.
func Write(w io.Writer, cfg *Config) error {
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(content)
	return err
}

// ApplyEnv overrides file values with non-empty environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvClientID)); v != "" {
		c.ClientID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTenantID)); v != "" {
		c.TenantID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAuthority)); v != "" {
		c.Authority = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGraphEndpoint)); v != "" {
		c.GraphEndpoint = v
	}
	if v := os.Getenv(EnvScopes); strings.TrimSpace(v) != "" {
		c.Scopes = ParseScopes(v)
	}
}

// ParseScopes splits a comma or whitespace separated scope list.
func ParseScopes(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func (c *Config) AuthConfiguration() auth.Configuration {
	return auth.Configuration{
		ClientID:  strings.TrimSpace(c.ClientID),
		TenantID:  strings.TrimSpace(c.TenantID),
		Scopes:    append([]string(nil), c.Scopes...),
		Authority: strings.TrimSpace(c.Authority),
	}
}

func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Settings.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Settings.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid timeout %q: %w", auth.ErrConfig, c.Settings.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: timeout must not be negative", auth.ErrConfig)
	}
	return d, nil
}

// Validate reports the first setting that would stop graphctl from signing in. All
// failures match auth.ErrConfig.
func (c *Config) Validate() error {
	if err := c.AuthConfiguration().Validate(); err != nil {
		return err
	}
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	if c.Settings.RateLimit < 0 {
		return fmt.Errorf("%w: rate-limit must not be negative", auth.ErrConfig)
	}
	return nil
}
