package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches to dir for the duration of the test. It stands in for
// t.Chdir, which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	// Keep the search path away from any real user config.
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8888", cfg.Portal.BaseURL)
	assert.NotEmpty(t, cfg.Session.TokenFile)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.True(t, cfg.Output.Colors)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)
	t.Setenv("PLACECTL_PORTAL_BASE_URL", "https://portal.example.edu")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.edu", cfg.Portal.BaseURL)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "placectl.yaml")
	content := `
portal:
  base_url: https://portal.example.edu/api
session:
  token_file: /tmp/test-token
logging:
  level: debug
  format: json
output:
  colors: false
`
	require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0o600))

	cfg, err := Load(cfgFile)
	require.NoError(t, err)

	assert.Equal(t, "https://portal.example.edu/api", cfg.Portal.BaseURL)
	assert.Equal(t, "/tmp/test-token", cfg.Session.TokenFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Output.Colors)
}

func TestLoad_InvalidBaseURL(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "placectl.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("portal:\n  base_url: not a url\n"), 0o600))

	_, err := Load(cfgFile)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg: Config{
				Portal:  PortalConfig{BaseURL: "http://localhost:8888"},
				Session: SessionConfig{TokenFile: "/tmp/token"},
			},
		},
		{
			name:    "empty base url",
			cfg:     Config{Session: SessionConfig{TokenFile: "/tmp/token"}},
			wantErr: true,
		},
		{
			name: "missing scheme",
			cfg: Config{
				Portal:  PortalConfig{BaseURL: "portal.example.edu"},
				Session: SessionConfig{TokenFile: "/tmp/token"},
			},
			wantErr: true,
		},
		{
			name:    "empty token file",
			cfg:     Config{Portal: PortalConfig{BaseURL: "http://localhost:8888"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
