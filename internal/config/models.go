package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kmswan/glowcast/internal/detect"
	"github.com/kmswan/glowcast/internal/effects"
	"github.com/kmswan/glowcast/internal/logger"
)

// VideoConfig describes the capture format the external collaborator
// delivers.
type VideoConfig struct {
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	FPS    int    `json:"fps" yaml:"fps"`
	Input  string `json:"input" yaml:"input"`   // raw frame file/FIFO, "-" for stdin, empty for test pattern
	Format string `json:"format" yaml:"format"` // rgba or gray8
}

// OverlayConfig configures the telemetry text overlay.
type OverlayConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	Template     string  `json:"template" yaml:"template"`
	X            float64 `json:"x" yaml:"x"`
	Y            float64 `json:"y" yaml:"y"`
	DelaySeconds float64 `json:"delay_seconds" yaml:"delay_seconds"`
}

// DetectorConfig configures the face detector.
type DetectorConfig struct {
	Enabled     bool          `json:"enabled" yaml:"enabled"`
	CascadePath string        `json:"cascade_path" yaml:"cascade_path"`
	Params      detect.Params `json:"params" yaml:"params"`
}

// Config is the application configuration persisted to disk.
type Config struct {
	Video      VideoConfig      `json:"video" yaml:"video"`
	Effects    effects.Settings `json:"effects" yaml:"effects"`
	Overlay    OverlayConfig    `json:"overlay" yaml:"overlay"`
	Detector   DetectorConfig   `json:"detector" yaml:"detector"`
	MascotPath string           `json:"mascot_path" yaml:"mascot_path"`
	ServerPort int              `json:"server_port" yaml:"server_port"`
	LogLevel   string           `json:"log_level" yaml:"log_level"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		Video: VideoConfig{
			Width:  1280,
			Height: 720,
			FPS:    30,
			Format: "rgba",
		},
		Effects: effects.Settings{
			Brightness:   0,
			Contrast:     0,
			Saturation:   0,
			ShapeRadius:  0.6,
			ShapeScale:   0.2,
			ShapeOffset:  0.1,
			SmoothAmount: 0.5,
			SmoothRadius: 0.04,
		},
		Overlay: OverlayConfig{
			Enabled:      true,
			Template:     `{time} | {bitrateAndTotal}`,
			X:            0.02,
			Y:            0.98,
			DelaySeconds: 2,
		},
		Detector: DetectorConfig{
			Enabled:     true,
			CascadePath: "cascade/facefinder",
		},
		ServerPort: 8080,
		LogLevel:   "info",
	}
}

// Manager handles loading, saving and concurrent access to the
// configuration.
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// NewManager loads the configuration from the given file, falling back to
// $HOME/.config/glowcast/config.yaml, creating it with defaults when
// missing.
func NewManager(configFile string) (*Manager, error) {
	actualConfigPath := configFile
	if actualConfigPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir := filepath.Join(homeDir, ".config", "glowcast")
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		actualConfigPath = filepath.Join(configDir, "config.yaml")
	}

	m := &Manager{configPath: actualConfigPath}

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Info().
				Str("path", actualConfigPath).
				Msg("config file not found, writing defaults")
			m.config = DefaultConfig()
			if err := m.Save(); err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// Save writes the current configuration to disk.
func (m *Manager) Save() error {
	m.mu.RLock()
	data, err := yaml.Marshal(m.config)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(m.configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.config
}

// GetConfigPath returns the backing file path.
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// SetPort overrides the server port.
func (m *Manager) SetPort(port int) {
	m.mu.Lock()
	m.config.ServerPort = port
	m.mu.Unlock()
}

// SetLogLevel overrides the log level.
func (m *Manager) SetLogLevel(level string) {
	m.mu.Lock()
	m.config.LogLevel = level
	m.mu.Unlock()
}

// UpdateEffects persists new effect defaults.
func (m *Manager) UpdateEffects(s effects.Settings) {
	m.mu.Lock()
	m.config.Effects = s
	m.mu.Unlock()
}

// UpdateOverlayPosition persists a new overlay position.
func (m *Manager) UpdateOverlayPosition(x, y float64) {
	m.mu.Lock()
	m.config.Overlay.X = x
	m.config.Overlay.Y = y
	m.mu.Unlock()
}
