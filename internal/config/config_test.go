package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the XDG directories at a temp dir and clears the
// environment overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvToken, "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultServiceURL, cfg.ServiceURL)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, DefaultBulkConcurrency, cfg.BulkConcurrency)
	assert.True(t, cfg.ValidateResponses)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Path)
	assert.NotEmpty(t, cfg.Theme.PrimaryColor)
}

func TestLoadJSONFromConfigDir(t *testing.T) {
	dir := isolate(t)
	cfgDir := filepath.Join(dir, "config", "taskboard")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	path := filepath.Join(cfgDir, "config.json")
	writeFile(t, path, `{
		"serviceURL": "https://tasks.example.com",
		"requestTimeout": "3s",
		"bulkConcurrency": 2,
		"validateResponses": false,
		"keyBindings": {"toggle": "t"},
		"theme": {"primaryColor": "#FF0000"},
		"log": {"level": "debug"}
	}`)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "https://tasks.example.com", cfg.ServiceURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.BulkConcurrency)
	assert.False(t, cfg.ValidateResponses)
	assert.Equal(t, "t", cfg.KeyBindings["toggle"])
	assert.Equal(t, "#FF0000", cfg.Theme.PrimaryColor)
	assert.Equal(t, "#04B575", cfg.Theme.SuccessColor, "unset colours keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadTOML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "board.toml")
	writeFile(t, path, `
serviceURL = "http://10.0.0.5:3000"
token = "abc"
requestTimeout = "500ms"

[keyBindings]
delete = "D,backspace"

[log]
file = "/tmp/board.log"
`)

	cfg, err := Load(LoadOptions{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:3000", cfg.ServiceURL)
	assert.Equal(t, "abc", cfg.Token)
	assert.Equal(t, 500*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, "D,backspace", cfg.KeyBindings["delete"])
	assert.Equal(t, "/tmp/board.log", cfg.Log.File)
	assert.True(t, cfg.ValidateResponses)
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, `{"serviceURL": "http://file", "token": "file-token"}`)

	t.Setenv(EnvBaseURL, "http://env")
	t.Setenv(EnvToken, "env-token")

	cfg, err := Load(LoadOptions{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "http://env", cfg.ServiceURL)
	assert.Equal(t, "env-token", cfg.Token)

	cfg, err = Load(LoadOptions{Path: path, ServiceURL: "http://flag", LogLevel: "warn", LogFile: "x.log"})
	require.NoError(t, err)
	assert.Equal(t, "http://flag", cfg.ServiceURL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "x.log", cfg.Log.File)
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		name string
		file string
		body string
		opts LoadOptions
	}{
		{name: "missing explicit file", opts: LoadOptions{Path: filepath.Join(dir, "nope.json")}},
		{name: "bad json", file: "bad.json", body: `{`},
		{name: "bad toml", file: "bad.toml", body: `serviceURL = `},
		{name: "bad duration", file: "d.json", body: `{"requestTimeout": "soon"}`},
		{name: "negative concurrency", file: "c.json", body: `{"bulkConcurrency": -1}`},
		{name: "bad log level", file: "l.json", body: `{"log": {"level": "loud"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if tt.file != "" {
				opts.Path = filepath.Join(dir, tt.file)
				writeFile(t, opts.Path, tt.body)
			}
			_, err := Load(opts)
			assert.Error(t, err)
		})
	}
}

func TestMergeConfigFileKeyBindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.json")
	writeFile(t, path, `{"keyBindings": {"quit": "Q", "refresh": "r"}}`)

	base := &Config{KeyBindings: map[string]string{"quit": "q", "help": "?"}}
	require.NoError(t, mergeConfigFile(base, path))

	assert.Equal(t, map[string]string{"quit": "Q", "help": "?", "refresh": "r"}, base.KeyBindings)
}

func TestConfigDirs(t *testing.T) {
	dir := isolate(t)
	assert.Equal(t, filepath.Join(dir, "config", "taskboard"), ConfigDir())
	assert.Equal(t, filepath.Join(dir, "state", "taskboard"), StateDir())
	assert.Equal(t, filepath.Join(dir, "state", "taskboard", "taskboard.log"), DefaultLogFile())
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TASKBOARD_TEST_VAR", "set")
	assert.Equal(t, "set", GetEnv("TASKBOARD_TEST_VAR", "fallback"))
	assert.Equal(t, "fallback", GetEnv("TASKBOARD_TEST_UNSET", "fallback"))
}

func TestConfigManagerReload(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, `{"theme": {"primaryColor": "#111111"}}`)

	cm, err := NewConfigManager(LoadOptions{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "#111111", cm.GetConfig().Theme.PrimaryColor)

	writeFile(t, path, `{"theme": {"primaryColor": "#222222"}}`)
	require.NoError(t, cm.Reload())
	assert.Equal(t, "#222222", cm.GetConfig().Theme.PrimaryColor)

	// A broken file keeps the last good config.
	writeFile(t, path, `{`)
	require.Error(t, cm.Reload())
	assert.Equal(t, "#222222", cm.GetConfig().Theme.PrimaryColor)
}

func TestConfigManagerWatcher(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, `{"keyBindings": {"quit": "q"}}`)

	cm, err := NewConfigManager(LoadOptions{Path: path})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cm.StartWatcher(ctx))
	defer cm.StopWatcher()
	require.Error(t, cm.StartWatcher(ctx), "second start must fail")

	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, `{"keyBindings": {"quit": "Q"}}`)

	select {
	case <-cm.ReloadEvents():
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
	assert.Equal(t, "Q", cm.GetConfig().KeyBindings["quit"])
}

func TestConfigManagerWithoutFileCannotWatch(t *testing.T) {
	isolate(t)
	cm, err := NewConfigManager(LoadOptions{})
	require.NoError(t, err)
	assert.Error(t, cm.StartWatcher(context.Background()))
	assert.NoError(t, cm.StopWatcher())
}
