// Package config provides configuration management functionality
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"serial-maze/pkg/history"
	"serial-maze/pkg/serial"
)

const (
	appDirName     = "serial-maze"
	configFileName = "config.yml"
)

// Settings holds everything the application reads at startup
type Settings struct {
	Serial           serial.SerialConfig `yaml:"serial"`
	PortPollInterval time.Duration       `yaml:"port_poll_interval"`
	DataPollInterval time.Duration       `yaml:"data_poll_interval"`
	ScrollbackBytes  int                 `yaml:"scrollback_bytes"`
	SaveDir          string              `yaml:"save_dir"`
	HistoryFormat    string              `yaml:"history_format"`
	LogFile          string              `yaml:"log_file"`
	LogLevel         string              `yaml:"log_level"`
	Simulate         bool                `yaml:"simulate"`
	SimulateScript   []string            `yaml:"simulate_script,omitempty"`
}

// DefaultSettings returns the built-in settings
func DefaultSettings() Settings {
	return Settings{
		Serial:           serial.DefaultConfig(),
		PortPollInterval: 2 * time.Second,
		DataPollInterval: 2 * time.Second,
		ScrollbackBytes:  1024 * 1024,
		SaveDir:          ".",
		HistoryFormat:    history.FormatTimestamped.String(),
		LogFile:          filepath.Join(os.TempDir(), "serial-maze.log"),
		LogLevel:         "info",
	}
}

// Validate checks if the settings are usable
func (s Settings) Validate() error {
	if err := s.Serial.ValidateLine(); err != nil {
		return fmt.Errorf("invalid serial settings: %w", err)
	}

	if s.PortPollInterval < 100*time.Millisecond {
		return fmt.Errorf("port poll interval must be at least 100ms, got: %v", s.PortPollInterval)
	}

	if s.DataPollInterval < 10*time.Millisecond {
		return fmt.Errorf("data poll interval must be at least 10ms, got: %v", s.DataPollInterval)
	}

	if s.ScrollbackBytes <= 0 {
		return fmt.Errorf("scrollback size must be positive, got: %d", s.ScrollbackBytes)
	}

	if _, err := history.ParseFileFormat(s.HistoryFormat); err != nil {
		return err
	}

	switch s.LogLevel {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", s.LogLevel)
	}

	return nil
}

// DefaultPath returns the per-user configuration file location
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, appDirName, configFileName), nil
}

// FileConfigManager loads and saves Settings as YAML
type FileConfigManager struct {
	path string
}

// NewFileConfigManager creates a manager for the file at path. An empty path
// selects DefaultPath.
func NewFileConfigManager(path string) (*FileConfigManager, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &FileConfigManager{path: path}, nil
}

// Path returns the file the manager reads and writes
func (fcm *FileConfigManager) Path() string {
	return fcm.path
}

// Exists reports whether the configuration file is present
func (fcm *FileConfigManager) Exists() bool {
	_, err := os.Stat(fcm.path)
	return err == nil
}

// Load reads the settings file on top of the defaults. A missing file yields
// the defaults.
func (fcm *FileConfigManager) Load() (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(fcm.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file %s: %w", fcm.path, err)
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid config file %s: %w", fcm.path, err)
	}

	return settings, nil
}

// Save writes settings to the configuration file
func (fcm *FileConfigManager) Save(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(fcm.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal config data: %w", err)
	}

	// Write to temporary file first, then rename for atomic operation
	tempPath := fcm.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tempPath, fcm.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary config file: %w", err)
	}

	return nil
}

// Marshal renders settings as YAML
func Marshal(settings Settings) ([]byte, error) {
	return yaml.Marshal(settings)
}
