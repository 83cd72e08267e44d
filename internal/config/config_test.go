package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, "tande.db", cfg.DB.Path)
	require.True(t, cfg.Demo.StrictTransitions)
	require.Equal(t, 5*time.Second, cfg.Demo.ToastWindow)
	require.Equal(t, 25.0, cfg.Policy.ReceiptThreshold)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
demo:
  toast_window: 2s
  session_ttl: 5m
policy:
  approval_threshold: 250
auth:
  enabled: true
  api_keys:
    secret: acme
`)
	t.Setenv("TANDE_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 2*time.Second, cfg.Demo.ToastWindow)
	require.Equal(t, 5*time.Minute, cfg.Demo.SessionTTL)
	require.Equal(t, 250.0, cfg.Policy.ApprovalThreshold)
	// Untouched keys keep their defaults.
	require.Equal(t, 25.0, cfg.Policy.ReceiptThreshold)
	require.Equal(t, map[string]string{"secret": "acme"}, cfg.Auth.APIKeys)
}

func TestLoad_TOMLFile(t *testing.T) {
	path := writeFile(t, "config.toml", `
[transport]
mode = "stdio"

[db]
path = ":memory:"

[demo]
toast_limit = 8
strict_transitions = false
`)
	t.Setenv("TANDE_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.Equal(t, ":memory:", cfg.DB.Path)
	require.Equal(t, 8, cfg.Demo.ToastLimit)
	require.False(t, cfg.Demo.StrictTransitions)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  port: 9090\n")
	t.Setenv("TANDE_CONFIG_PATH", path)
	t.Setenv("TANDE_SERVER_PORT", "7070")
	t.Setenv("TANDE_AUTH_ENABLED", "true")
	t.Setenv("TANDE_API_KEYS", "k1:acme, k2:globex")
	t.Setenv("TANDE_TOAST_WINDOW", "-1s")
	t.Setenv("TANDE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, map[string]string{"k1": "acme", "k2": "globex"}, cfg.Auth.APIKeys)
	require.Equal(t, -time.Second, cfg.Demo.ToastWindow)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad port":        {"TANDE_SERVER_PORT": "http"},
		"port range":      {"TANDE_SERVER_PORT": "70000"},
		"bad mode":        {"TANDE_TRANSPORT": "carrier-pigeon"},
		"auth no keys":    {"TANDE_AUTH_ENABLED": "true"},
		"bad keys":        {"TANDE_API_KEYS": "nocolon"},
		"bad duration":    {"TANDE_SESSION_TTL": "soon"},
		"nonpositive ttl": {"TANDE_SESSION_TTL": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "TANDE_DB_PATH=from-dotenv.db\n")
	t.Setenv("TANDE_DB_PATH", "")
	require.NoError(t, os.Unsetenv("TANDE_DB_PATH"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-dotenv.db", cfg.DB.Path)
}
