// Package config loads crocsthepen configuration from YAML with environment
// overrides. A missing config file yields defaults; a .env file next to the
// working directory is honored before environment lookup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all crocsthepen configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Data directory for the local store and debug logs.
	DataDir string `yaml:"data_dir"`

	// Generation service configuration
	Gemini GeminiConfig `yaml:"gemini"`

	// Video job polling policy
	Video VideoConfig `yaml:"video"`

	// Logging
	Debug bool `yaml:"debug"`
}

// GeminiConfig configures the external generation service.
type GeminiConfig struct {
	APIKey     string `yaml:"api_key"`
	FlashModel string `yaml:"flash_model"`
	ProModel   string `yaml:"pro_model"`
	ImageModel string `yaml:"image_model"`
	VideoModel string `yaml:"video_model"`
	// VideoModelRef is used when a reference image accompanies the prompt.
	VideoModelRef string `yaml:"video_model_ref"`
	TTSModel      string `yaml:"tts_model"`
	LiveModel     string `yaml:"live_model"`
	LiveVoice     string `yaml:"live_voice"`
}

// VideoConfig bounds the long-running video job poll loop so a stalled job
// cannot spin forever.
type VideoConfig struct {
	PollInterval string `yaml:"poll_interval"`
	MaxPolls     int    `yaml:"max_polls"`
}

// PollIntervalDuration parses the poll interval, falling back to 10s.
func (v VideoConfig) PollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(v.PollInterval)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Name:    "CrocSthepen AI",
		Version: "1.0.0",
		DataDir: filepath.Join(home, ".croc"),
		Gemini: GeminiConfig{
			FlashModel:    "gemini-3-flash-preview",
			ProModel:      "gemini-3-pro-preview",
			ImageModel:    "gemini-2.5-flash-image",
			VideoModel:    "veo-3.1-fast-generate-preview",
			VideoModelRef: "veo-3.1-generate-preview",
			TTSModel:      "gemini-2.5-flash-preview-tts",
			LiveModel:     "gemini-2.5-flash-native-audio-preview-12-2025",
			LiveVoice:     "Zephyr",
		},
		Video: VideoConfig{
			PollInterval: "10s",
			MaxPolls:     60,
		},
	}
}

// Load reads configuration from a YAML file, applying defaults and
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// .env is optional; ignore a missing file.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("CROC_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.Gemini.APIKey == "" {
		c.Gemini.APIKey = key
	}
	if dir := os.Getenv("CROC_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if os.Getenv("CROC_DEBUG") == "1" {
		c.Debug = true
	}
}

// DatabasePath returns the SQLite path under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "croc.db")
}
