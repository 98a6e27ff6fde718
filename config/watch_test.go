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

func TestDotEnvFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"# local overrides\nAPP_SERVER_PORT=9090\nAPP_SERVER_NAME=\"api\"\nOTHER_KEY=ignored\n",
	), 0o644))

	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{"server": map[string]any{"port": 8080, "mode": "release"}}).
		AddDotEnvFile(path, "APP_").
		Build()
	require.NoError(t, err)

	port, err := cfg.GetInt("server:port")
	require.NoError(t, err)
	assert.Equal(t, 9090, port)
	assert.Equal(t, "api", cfg.Get("server:name"))
	assert.Equal(t, "release", cfg.Get("server:mode"))
	assert.Empty(t, cfg.Get("other:key"))

	_, err = NewConfigurationBuilder().AddDotEnvFile(filepath.Join(dir, "missing.env"), "").Build()
	assert.Error(t, err)

	cfg, err = NewConfigurationBuilder().AddDotEnvFile(filepath.Join(dir, "missing.env"), "", true).Build()
	require.NoError(t, err)
	assert.Empty(t, cfg.GetAll())
}

func TestFileWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feature:\n  name: first\n"), 0o644))

	cfg, err := NewConfigurationBuilder().AddYamlFile(path).Build()
	require.NoError(t, err)
	assert.Equal(t, "first", cfg.Get("feature:name"))

	reloaded := make(chan struct{}, 16)
	cfg.(Reloadable).OnReload(func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})

	w, err := NewFileWatcher(cfg, nil, path)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("feature:\n  name: second\n"), 0o644))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("configuration was not reloaded")
	}
	require.Eventually(t, func() bool {
		return cfg.Get("feature:name") == "second"
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Stop(context.Background()))
	require.NoError(t, w.Stop(context.Background()))
}

func TestFileWatcherRequiresReloadable(t *testing.T) {
	cfg, err := NewConfigurationBuilder().Build()
	require.NoError(t, err)
	// GetSection 返回的视图不能重新加载
	_, err = NewFileWatcher(cfg.GetSection("missing"), nil, "app.yaml")
	assert.ErrorContains(t, err, "does not support reload")
}
