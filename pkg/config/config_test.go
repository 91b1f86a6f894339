package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, time.Hour, cfg.SessionTTL())
	assert.Equal(t, time.Minute, cfg.CleanupInterval())
	assert.Equal(t, 15*time.Second, cfg.Timeout())
	assert.False(t, cfg.DocsEnabled)
}

func TestLoadOverlay(t *testing.T) {
	base := writeConfig(t, "config.yaml", `
address: ":9000"
session_duration: 7200
user_agent: "test-agent"
`)
	local := writeConfig(t, "local.config.yaml", `
session_duration: 1800
docs_enabled: true
`)

	cfg, err := Load(base, local, filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Address)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL())
	assert.Equal(t, "test-agent", cfg.UserAgent)
	assert.True(t, cfg.DocsEnabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero session duration", "session_duration: 0"},
		{"negative cleanup interval", "session_cleanup_interval: -5"},
		{"bad provider url", `provider_base_url: "not a url"`},
		{"bad username pattern", `username_pattern: "["`},
		{"not yaml", `{{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.yaml", tt.content))
			assert.Error(t, err)
		})
	}
}
