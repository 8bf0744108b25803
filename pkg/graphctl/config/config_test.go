package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/graphctl/pkg/graphctl/auth"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvClientID, EnvTenantID, EnvScopes, EnvAuthority, EnvGraphEndpoint} {
		t.Setenv(key, "")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.ClientID = "client-id"
	cfg.TenantID = "tenant-id"
	cfg.Scopes = []string{"user.read"}
	cfg.Settings.RateLimit = 2.5

	require.NoError(t, Save(path, &cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
	assert.Equal(t, []string{"user.read", "mail.read", "mail.send"}, cfg.Scopes)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load("")
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("scopes: [unterminated"), 0o600))
	_, err = Load(bad)
	require.ErrorContains(t, err, "failed to parse config")

	future := filepath.Join(dir, "future.yaml")
	require.NoError(t, os.WriteFile(future, []byte("version: v9\n"), 0o600))
	_, err = Load(future)
	require.ErrorIs(t, err, auth.ErrConfig)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
client-id: file-client
tenant-id: file-tenant
scopes: [user.read, mail.read]
artifacts-dir: /tmp/photos
settings:
  output-format: json
  timeout: 5s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, VersionV1, cfg.Version)
	assert.Equal(t, "file-client", cfg.ClientID)
	assert.Equal(t, []string{"user.read", "mail.read"}, cfg.Scopes)
	assert.Equal(t, "/tmp/photos", cfg.ArtifactsDir)
	assert.Equal(t, "json", cfg.Settings.OutputFormat)

	timeout, err := cfg.RequestTimeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client-id: file-client\ntenant-id: file-tenant\n"), 0o600))

	t.Setenv(EnvClientID, "env-client")
	t.Setenv(EnvTenantID, " env-tenant ")
	t.Setenv(EnvScopes, "user.read, mail.send  offline_access")
	t.Setenv(EnvAuthority, "https://login.example.com/tenant/v2.0")
	t.Setenv(EnvGraphEndpoint, "https://graph.example.com/beta")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-client", cfg.ClientID)
	assert.Equal(t, "env-tenant", cfg.TenantID)
	assert.Equal(t, []string{"user.read", "mail.send", "offline_access"}, cfg.Scopes)
	assert.Equal(t, "https://login.example.com/tenant/v2.0", cfg.Authority)
	assert.Equal(t, "https://graph.example.com/beta", cfg.GraphEndpoint)

	authCfg := cfg.AuthConfiguration()
	assert.Equal(t, "env-client", authCfg.ClientID)
	assert.Equal(t, cfg.Authority, authCfg.Authority)
	authCfg.Scopes[0] = "mutated"
	assert.Equal(t, "user.read", cfg.Scopes[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing client id", mutate: func(c *Config) { c.ClientID = " " }, wantErr: true},
		{name: "missing tenant id", mutate: func(c *Config) { c.TenantID = "" }, wantErr: true},
		{name: "no scopes", mutate: func(c *Config) { c.Scopes = nil }, wantErr: true},
		{name: "bad timeout", mutate: func(c *Config) { c.Settings.Timeout = "soon" }, wantErr: true},
		{name: "negative rate limit", mutate: func(c *Config) { c.Settings.RateLimit = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ClientID = "client"
			cfg.TenantID = "tenant"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, auth.ErrConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseScopes(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseScopes("a,b c"))
	assert.Empty(t, ParseScopes(" , "))
}
