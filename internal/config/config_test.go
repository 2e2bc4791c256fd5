package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, Initialize())
	require.NotNil(t, v, "viper instance is nil after Initialize()")
	assert.Empty(t, ConfigFileUsed())
}

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, Initialize())

	tests := []struct {
		key      string
		expected any
		getter   func(string) any
	}{
		{"json", false, func(k string) any { return GetBool(k) }},
		{"db", "", func(k string) any { return GetString(k) }},
		{"actor", "", func(k string) any { return GetString(k) }},
		{"backend", "sqlite", func(k string) any { return GetString(k) }},
		{"editor", "", func(k string) any { return GetString(k) }},
		{"lock-timeout", 30 * time.Second, func(k string) any { return GetDuration(k) }},
		{"server.host", "127.0.0.1", func(k string) any { return GetString(k) }},
		{"server.port", 3306, func(k string) any { return GetInt(k) }},
		{"server.user", "root", func(k string) any { return GetString(k) }},
		{"server.database", "pm", func(k string) any { return GetString(k) }},
		{"history.assign-field", "assigned_to", func(k string) any { return GetString(k) }},
		{"history.reopen-from-actual", false, func(k string) any { return GetBool(k) }},
		{"history.tags", false, func(k string) any { return GetBool(k) }},
		{"telemetry.enabled", false, func(k string) any { return GetBool(k) }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.getter(tt.key))
		})
	}
}

func TestEnvironmentBinding(t *testing.T) {
	tests := []struct {
		envVar   string
		key      string
		value    string
		expected any
		getter   func(string) any
	}{
		{"PM_ACTOR", "actor", "alice", "alice", func(k string) any { return GetString(k) }},
		{"PM_JSON", "json", "true", true, func(k string) any { return GetBool(k) }},
		{"PM_DB", "db", "/tmp/x.db", "/tmp/x.db", func(k string) any { return GetString(k) }},
		{"PM_LOCK_TIMEOUT", "lock-timeout", "5s", 5 * time.Second, func(k string) any { return GetDuration(k) }},
		{"PM_SERVER_PORT", "server.port", "3307", 3307, func(k string) any { return GetInt(k) }},
		{"PM_HISTORY_TAGS", "history.tags", "true", true, func(k string) any { return GetBool(k) }},
	}

	for _, tt := range tests {
		t.Run(tt.envVar, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.envVar, tt.value)
			require.NoError(t, Initialize())
			assert.Equal(t, tt.expected, tt.getter(tt.key))
		})
	}
}

func TestProjectConfigDiscovery(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ProjectDir), 0o750))
	cfg := "actor: bob\nhistory:\n  reopen-from-actual: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectDir, "config.yaml"), []byte(cfg), 0o600))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	require.NoError(t, Initialize())
	assert.Equal(t, "bob", GetString("actor"))
	assert.True(t, GetBool("history.reopen-from-actual"))
	assert.Equal(t, "sqlite", GetString("backend"))

	used, err := filepath.EvalSymlinks(ConfigFileUsed())
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(filepath.Join(root, ProjectDir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, want, used)
}

func TestEnvOverridesConfigFile(t *testing.T) {
	root := t.TempDir()
	_, err := InitProjectConfig(root, map[string]string{"actor": "bob"})
	require.NoError(t, err)
	t.Chdir(root)
	t.Setenv("PM_ACTOR", "carol")

	require.NoError(t, Initialize())
	assert.Equal(t, "carol", GetString("actor"))
}

func TestUserConfigFallback(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "pm"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "pm", "config.yaml"), []byte("editor: nano\n"), 0o600))
	t.Chdir(t.TempDir())

	require.NoError(t, Initialize())
	assert.Equal(t, "nano", GetString("editor"))
}

func TestNilSafeGetters(t *testing.T) {
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	assert.Equal(t, "", GetString("actor"))
	assert.False(t, GetBool("json"))
	assert.Zero(t, GetInt("server.port"))
	assert.Zero(t, GetDuration("lock-timeout"))
	assert.Nil(t, GetStringSlice("tags"))
	assert.False(t, IsSet("actor"))
	assert.Empty(t, AllSettings())
	assert.Empty(t, ConfigFileUsed())
	Set("actor", "ignored")
}

func TestSetOverridesDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, Initialize())

	Set("backend", "mysql")
	assert.Equal(t, "mysql", GetString("backend"))

	settings := AllSettings()
	assert.Equal(t, "mysql", settings["backend"])
	assert.Contains(t, AllKeys(), "history.assign-field")
}

func TestFindDatabasePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	t.Run("falls back to home", func(t *testing.T) {
		t.Chdir(t.TempDir())
		assert.Equal(t, filepath.Join(home, ProjectDir, DatabaseFile), FindDatabasePath())
	})

	t.Run("finds project database upward", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, ProjectDir), 0o750))
		dbPath := filepath.Join(root, ProjectDir, DatabaseFile)
		require.NoError(t, os.WriteFile(dbPath, nil, 0o600))
		nested := filepath.Join(root, "src")
		require.NoError(t, os.MkdirAll(nested, 0o750))
		t.Chdir(nested)

		got, err := filepath.EvalSymlinks(FindDatabasePath())
		require.NoError(t, err)
		want, err := filepath.EvalSymlinks(dbPath)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}
