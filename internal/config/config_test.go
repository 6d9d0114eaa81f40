package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CROC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "gemini-3-flash-preview", cfg.Gemini.FlashModel)
	require.Equal(t, "gemini-3-pro-preview", cfg.Gemini.ProModel)
	require.Equal(t, 60, cfg.Video.MaxPolls)
	require.False(t, cfg.Debug)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CROC_API_KEY", "key-from-env")
	t.Setenv("CROC_DATA_DIR", dir)
	t.Setenv("CROC_DEBUG", "1")

	cfg, err := Load(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "key-from-env", cfg.Gemini.APIKey)
	require.Equal(t, dir, cfg.DataDir)
	require.True(t, cfg.Debug)
}

func TestGeminiKeyFallback(t *testing.T) {
	t.Setenv("CROC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "fallback-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "fallback-key", cfg.Gemini.APIKey)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("CROC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CROC_DATA_DIR", "")
	t.Setenv("CROC_DEBUG", "")

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Gemini.LiveVoice = "Puck"
	cfg.Video.MaxPolls = 5
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Puck", loaded.Gemini.LiveVoice)
	require.Equal(t, 5, loaded.Video.MaxPolls)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestPollIntervalDuration(t *testing.T) {
	require.Equal(t, 10*time.Second, VideoConfig{}.PollIntervalDuration())
	require.Equal(t, 10*time.Second, VideoConfig{PollInterval: "bogus"}.PollIntervalDuration())
	require.Equal(t, 2*time.Second, VideoConfig{PollInterval: "2s"}.PollIntervalDuration())
}

func TestDatabasePathUnderDataDir(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/croc-test"}
	require.Equal(t, filepath.Join("/tmp/croc-test", "croc.db"), cfg.DatabasePath())
}
