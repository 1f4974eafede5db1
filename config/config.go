// Package config provides configuration management for the ietf2vcon
// command-line tool. It supports loading configuration from a YAML file and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultOutputDir      = "vcons"
	DefaultWorkDir        = "work"
	DefaultWhisperURL     = "http://localhost:8080"
	DefaultWhisperModel   = "large-v3"
	DefaultWhisperTimeout = 10 * time.Minute
	DefaultParallel       = 3
	DefaultChatLimit      = 1000
	DefaultConfigDir      = ".ietf2vcon"
	DefaultConfigFile     = "config.yaml"
)

// WhisperConfig holds the local transcription service settings.
type WhisperConfig struct {
	// URL is the base URL of the Whisper sidecar.
	URL string `yaml:"url"`

	// Model is the model name passed to the transcription endpoint.
	Model string `yaml:"model"`

	// Timeout is the per-chunk request timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// ZulipConfig holds the IETF Zulip settings. The API key itself lives in
// the system keyring, not here.
type ZulipConfig struct {
	// Email is the bot account email used for basic auth.
	Email string `yaml:"email,omitempty"`

	// ChatLimit caps how many messages are fetched per stream.
	ChatLimit int `yaml:"chat_limit,omitempty"`
}

// Config holds the ietf2vcon configuration settings.
type Config struct {
	// OutputDir is where finished conversation records are written.
	OutputDir string `yaml:"output_dir"`

	// WorkDir holds downloaded audio, video and chunk files.
	WorkDir string `yaml:"work_dir"`

	// DatatrackerURL overrides the Datatracker base URL, for mirrors.
	DatatrackerURL string `yaml:"datatracker_url,omitempty"`

	// Parallel is the worker count for whole-meeting conversion.
	Parallel int `yaml:"parallel"`

	// InlineMaterials embeds material content in the record instead of
	// referencing it by URL.
	InlineMaterials bool `yaml:"inline_materials,omitempty"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`

	// Whisper contains the transcription service settings.
	Whisper WhisperConfig `yaml:"whisper"`

	// Zulip contains the chat history settings.
	Zulip ZulipConfig `yaml:"zulip,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: DefaultOutputDir,
		WorkDir:   DefaultWorkDir,
		Parallel:  DefaultParallel,
		Whisper: WhisperConfig{
			URL:     DefaultWhisperURL,
			Model:   DefaultWhisperModel,
			Timeout: DefaultWhisperTimeout,
		},
		Zulip: ZulipConfig{
			ChatLimit: DefaultChatLimit,
		},
	}
}

// ConfigDir returns the configuration directory path.
// Uses $IETF2VCON_CONFIG_DIR if set, otherwise ~/.ietf2vcon
func ConfigDir() (string, error) {
	if dir := os.Getenv("IETF2VCON_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.ietf2vcon/config.yaml or $IETF2VCON_CONFIG_DIR/config.yaml)
// 3. Environment variables (IETF2VCON_OUTPUT_DIR, IETF2VCON_WHISPER_URL, ...)
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	// A temp struct so the timeout unmarshals from a duration string.
	type whisperFile struct {
		URL     string `yaml:"url"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
	}
	type configFile struct {
		OutputDir       string      `yaml:"output_dir"`
		WorkDir         string      `yaml:"work_dir"`
		DatatrackerURL  string      `yaml:"datatracker_url"`
		Parallel        int         `yaml:"parallel"`
		InlineMaterials bool        `yaml:"inline_materials"`
		Debug           bool        `yaml:"debug"`
		Whisper         whisperFile `yaml:"whisper"`
		Zulip           ZulipConfig `yaml:"zulip"`
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.OutputDir != "" {
		cfg.OutputDir = fileCfg.OutputDir
	}
	if fileCfg.WorkDir != "" {
		cfg.WorkDir = fileCfg.WorkDir
	}
	if fileCfg.DatatrackerURL != "" {
		cfg.DatatrackerURL = fileCfg.DatatrackerURL
	}
	if fileCfg.Parallel > 0 {
		cfg.Parallel = fileCfg.Parallel
	}
	if fileCfg.Whisper.URL != "" {
		cfg.Whisper.URL = fileCfg.Whisper.URL
	}
	if fileCfg.Whisper.Model != "" {
		cfg.Whisper.Model = fileCfg.Whisper.Model
	}
	if fileCfg.Whisper.Timeout != "" {
		timeout, err := time.ParseDuration(fileCfg.Whisper.Timeout)
		if err != nil {
			return fmt.Errorf("parsing whisper timeout: %w", err)
		}
		cfg.Whisper.Timeout = timeout
	}
	if fileCfg.Zulip.Email != "" {
		cfg.Zulip.Email = fileCfg.Zulip.Email
	}
	if fileCfg.Zulip.ChatLimit > 0 {
		cfg.Zulip.ChatLimit = fileCfg.Zulip.ChatLimit
	}
	cfg.InlineMaterials = fileCfg.InlineMaterials
	cfg.Debug = fileCfg.Debug

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("IETF2VCON_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}

	if v := os.Getenv("IETF2VCON_WORK_DIR"); v != "" {
		cfg.WorkDir = v
	}

	if v := os.Getenv("IETF2VCON_DATATRACKER_URL"); v != "" {
		cfg.DatatrackerURL = v
	}

	if v := os.Getenv("IETF2VCON_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Parallel = n
		}
	}

	if v := os.Getenv("IETF2VCON_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}

	if v := os.Getenv("IETF2VCON_WHISPER_URL"); v != "" {
		cfg.Whisper.URL = v
	}

	if v := os.Getenv("IETF2VCON_WHISPER_MODEL"); v != "" {
		cfg.Whisper.Model = v
	}

	if v := os.Getenv("IETF2VCON_WHISPER_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.Whisper.Timeout = timeout
		}
	}

	if v := os.Getenv("IETF2VCON_ZULIP_EMAIL"); v != "" {
		cfg.Zulip.Email = v
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	if c.Parallel <= 0 {
		return fmt.Errorf("parallel must be positive")
	}

	if c.Whisper.URL != "" && !strings.HasPrefix(c.Whisper.URL, "http://") && !strings.HasPrefix(c.Whisper.URL, "https://") {
		return fmt.Errorf("invalid whisper url: %q", c.Whisper.URL)
	}

	if c.Whisper.Timeout <= 0 {
		return fmt.Errorf("whisper timeout must be positive")
	}

	return nil
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *Config) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)

	// YAML-friendly format with the timeout as a duration string.
	type whisperFile struct {
		URL     string `yaml:"url"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
	}
	type configFile struct {
		OutputDir       string      `yaml:"output_dir"`
		WorkDir         string      `yaml:"work_dir"`
		DatatrackerURL  string      `yaml:"datatracker_url,omitempty"`
		Parallel        int         `yaml:"parallel"`
		InlineMaterials bool        `yaml:"inline_materials,omitempty"`
		Debug           bool        `yaml:"debug,omitempty"`
		Whisper         whisperFile `yaml:"whisper"`
		Zulip           ZulipConfig `yaml:"zulip,omitempty"`
	}

	fileCfg := configFile{
		OutputDir:       cfg.OutputDir,
		WorkDir:         cfg.WorkDir,
		DatatrackerURL:  cfg.DatatrackerURL,
		Parallel:        cfg.Parallel,
		InlineMaterials: cfg.InlineMaterials,
		Debug:           cfg.Debug,
		Whisper: whisperFile{
			URL:     cfg.Whisper.URL,
			Model:   cfg.Whisper.Model,
			Timeout: cfg.Whisper.Timeout.String(),
		},
		Zulip: cfg.Zulip,
	}

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
