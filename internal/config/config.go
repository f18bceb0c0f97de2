package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/bryanchriswhite/photobooth/internal/booth"
	"github.com/bryanchriswhite/photobooth/internal/capture"
	"github.com/bryanchriswhite/photobooth/internal/filter"
	"github.com/bryanchriswhite/photobooth/internal/logger"
	"github.com/bryanchriswhite/photobooth/internal/strip"
)

// Config represents the application configuration
type Config struct {
	ServerPort int            `json:"server_port" yaml:"server_port" mapstructure:"server_port"`
	LogLevel   string         `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	Camera     CameraConfig   `json:"camera" yaml:"camera" mapstructure:"camera"`
	Booth      booth.Settings `json:"booth" yaml:"booth" mapstructure:"booth"`
	Output     OutputConfig   `json:"output" yaml:"output" mapstructure:"output"`
}

// CameraConfig selects the frame source
type CameraConfig struct {
	Source       string        `json:"source" yaml:"source" mapstructure:"source"`
	Device       string        `json:"device" yaml:"device" mapstructure:"device"`
	Width        int           `json:"width" yaml:"width" mapstructure:"width"`
	Height       int           `json:"height" yaml:"height" mapstructure:"height"`
	FPS          int           `json:"fps" yaml:"fps" mapstructure:"fps"`
	Mirror       bool          `json:"mirror" yaml:"mirror" mapstructure:"mirror"`
	ReadyTimeout time.Duration `json:"ready_timeout" yaml:"ready_timeout" mapstructure:"ready_timeout"`
	Directory    string        `json:"directory,omitempty" yaml:"directory,omitempty" mapstructure:"directory"`
	Region       string        `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`
}

// OutputConfig controls where composed strips go
type OutputConfig struct {
	Directory  string `json:"directory" yaml:"directory" mapstructure:"directory"`
	SaveStrips bool   `json:"save_strips" yaml:"save_strips" mapstructure:"save_strips"`
}

// CaptureConfig converts the camera section into frame source options
func (c CameraConfig) CaptureConfig() capture.Config {
	return capture.Config{
		Source:       c.Source,
		Device:       c.Device,
		Width:        c.Width,
		Height:       c.Height,
		FPS:          c.FPS,
		Directory:    c.Directory,
		Region:       c.Region,
		ReadyTimeout: c.ReadyTimeout,
	}
}

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// DefaultPath returns $HOME/.config/photobooth/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "photobooth", "config.yaml"), nil
}

// NewManager loads configFile, or the default path when empty. A missing
// file is created with defaults.
func NewManager(configFile string) (*Manager, error) {
	path := configFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	m := &Manager{configPath: path}

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Info().
				Str("path", m.configPath).
				Msg("Config file not found, creating new config")
			m.config = Defaults()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := m.Get()
	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Str("camera", cfg.Camera.Source).
		Int("shots", cfg.Booth.ShotCount).
		Msg("Config loaded")

	return m, nil
}

// Defaults returns the default configuration
func Defaults() *Config {
	outDir := "strips"
	if home, err := os.UserHomeDir(); err == nil {
		outDir = filepath.Join(home, "Pictures", "photobooth")
	}
	return &Config{
		ServerPort: 8080,
		LogLevel:   "info",
		Camera: CameraConfig{
			Source:       capture.BackendPush,
			Width:        capture.FallbackWidth,
			Height:       capture.FallbackHeight,
			FPS:          15,
			Mirror:       true,
			ReadyTimeout: capture.DefaultReadyTimeout,
		},
		Booth: booth.DefaultSettings(),
		Output: OutputConfig{
			Directory: outDir,
		},
	}
}

// load reads the configuration from disk
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	cfg := *Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return err
	}

	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()
	return nil
}

// normalize canonicalizes enum names (so aliases like "blackwhite" load)
// and validates the result
func (c *Config) normalize() error {
	if c.Booth.Filter != "" {
		k, err := filter.Parse(string(c.Booth.Filter))
		if err != nil {
			return fmt.Errorf("booth.filter: %w", err)
		}
		c.Booth.Filter = k
	}
	if c.Booth.Layout != "" {
		l, err := strip.ParseLayout(string(c.Booth.Layout))
		if err != nil {
			return fmt.Errorf("booth.layout: %w", err)
		}
		c.Booth.Layout = l
	}
	if c.Booth.FrameColor != "" {
		fc, err := strip.ParseFrameColor(string(c.Booth.FrameColor))
		if err != nil {
			return fmt.Errorf("booth.frame_color: %w", err)
		}
		c.Booth.FrameColor = fc
	}
	c.Booth = c.Booth.Normalize()
	if err := c.Booth.Validate(); err != nil {
		return fmt.Errorf("booth: %w", err)
	}

	if c.LogLevel != "" && !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (use: debug, info, warn, error)", c.LogLevel)
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server port: %d", c.ServerPort)
	}
	if c.Camera.Region != "" {
		if _, _, _, _, err := capture.ParseRegion(c.Camera.Region); err != nil {
			return fmt.Errorf("camera.region: %w", err)
		}
	}
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return Defaults()
	}
	cfg := *m.config
	return &cfg
}

// Save saves the current configuration to disk
func (m *Manager) Save() error {
	cfg := m.Get()

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Saving config")

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("config_dir", configDir).
			Msg("Failed to create config directory")
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("path", m.configPath).
			Msg("Failed to write config")
		return err
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Msg("Config saved successfully")
	return nil
}

// Update validates and replaces the entire configuration
func (m *Manager) Update(cfg *Config) error {
	c := *cfg
	if err := c.normalize(); err != nil {
		return err
	}
	m.mu.Lock()
	m.config = &c
	m.mu.Unlock()
	return m.Save()
}

// SetPort sets the server port
func (m *Manager) SetPort(port int) error {
	cfg := m.Get()
	cfg.ServerPort = port
	return m.Update(cfg)
}

// GetPort gets the server port
func (m *Manager) GetPort() int {
	return m.Get().ServerPort
}

// SetLogLevel sets the log level
func (m *Manager) SetLogLevel(level string) error {
	cfg := m.Get()
	cfg.LogLevel = level
	return m.Update(cfg)
}

// GetLogLevel gets the log level
func (m *Manager) GetLogLevel() string {
	return m.Get().LogLevel
}

// SetBooth stores the default session settings
func (m *Manager) SetBooth(settings booth.Settings) error {
	cfg := m.Get()
	cfg.Booth = settings
	return m.Update(cfg)
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// GetConfigDir returns the config directory path
func (m *Manager) GetConfigDir() string {
	return filepath.Dir(m.configPath)
}

// GetViper returns a viper view of the current configuration, addressable
// by dotted keys such as "camera.source"
func (m *Manager) GetViper() (*viper.Viper, error) {
	data, err := yaml.Marshal(m.Get())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return v, nil
}

// Lookup returns the value at a dotted key
func (m *Manager) Lookup(key string) (interface{}, error) {
	v, err := m.GetViper()
	if err != nil {
		return nil, err
	}
	if !v.IsSet(key) {
		return nil, fmt.Errorf("configuration key not found: %s", key)
	}
	return v.Get(key), nil
}

// SetValue parses value as a YAML scalar, stores it at a dotted key,
// validates the result and saves
func (m *Manager) SetValue(key, value string) error {
	v, err := m.GetViper()
	if err != nil {
		return err
	}
	if !v.IsSet(key) && !knownKey(key) {
		return fmt.Errorf("configuration key not found: %s", key)
	}

	var parsed interface{}
	if err := yaml.Unmarshal([]byte(value), &parsed); err != nil {
		parsed = value
	}
	switch parsed.(type) {
	case nil, map[string]interface{}, []interface{}:
		// only scalars are settable
		parsed = value
	}
	v.Set(key, parsed)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := m.Update(&cfg); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

// optional keys omitted from the YAML when empty
var optionalKeys = map[string]bool{
	"camera.directory": true,
	"camera.region":    true,
}

func knownKey(key string) bool {
	return optionalKeys[strings.ToLower(key)]
}
