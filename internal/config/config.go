package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/bryanchriswhite/WindowShot/internal/compress"
	"github.com/bryanchriswhite/WindowShot/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. WINDOWSHOT_SERVER_PORT.
const EnvPrefix = "WINDOWSHOT"

const megabyte = 1024 * 1024

// CompressionConfig holds the compressor limits applied when a request
// leaves a field unset.
type CompressionConfig struct {
	Quality         int     `json:"quality" yaml:"quality" mapstructure:"quality"`
	MaxSizeMB       float64 `json:"max_size_mb" yaml:"max_size_mb" mapstructure:"max_size_mb"`
	DefaultMaxWidth int     `json:"default_max_width" yaml:"default_max_width" mapstructure:"default_max_width"`
	MinWidth        int     `json:"min_width" yaml:"min_width" mapstructure:"min_width"`
	QualityFloor    int     `json:"quality_floor" yaml:"quality_floor" mapstructure:"quality_floor"`
	MaxEncodedMB    float64 `json:"max_encoded_mb" yaml:"max_encoded_mb" mapstructure:"max_encoded_mb"`
}

// Config represents the application configuration
type Config struct {
	ServerPort  int               `json:"server_port" yaml:"server_port" mapstructure:"server_port"`
	LogLevel    string            `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogPretty   bool              `json:"log_pretty" yaml:"log_pretty" mapstructure:"log_pretty"`
	Workers     int               `json:"workers" yaml:"workers" mapstructure:"workers"`
	Compression CompressionConfig `json:"compression" yaml:"compression" mapstructure:"compression"`
}

// Defaults returns the configuration written on first run.
func Defaults() Config {
	d := compress.DefaultDefaults()
	return Config{
		ServerPort: 8080,
		LogLevel:   "info",
		LogPretty:  true,
		Workers:    4,
		Compression: CompressionConfig{
			Quality:         d.Quality,
			MaxSizeMB:       float64(d.MaxSizeBytes) / megabyte,
			DefaultMaxWidth: d.MaxWidth,
			MinWidth:        d.MinWidth,
			QualityFloor:    d.QualityFloor,
			MaxEncodedMB:    float64(d.MaxEncodedLength) / megabyte,
		},
	}
}

// CompressorDefaults converts the compression section for the compressor.
func (c Config) CompressorDefaults() compress.Defaults {
	d := compress.DefaultDefaults()
	d.Quality = c.Compression.Quality
	d.MaxSizeBytes = int64(c.Compression.MaxSizeMB * megabyte)
	d.MaxWidth = c.Compression.DefaultMaxWidth
	d.MinWidth = c.Compression.MinWidth
	d.QualityFloor = c.Compression.QualityFloor
	d.MaxEncodedLength = int(c.Compression.MaxEncodedMB * megabyte)
	return d
}

// Manager handles configuration
type Manager struct {
	configPath string
	v          *viper.Viper
	config     Config
	mu         sync.RWMutex
}

// NewManager loads configFile, or $HOME/.config/windowshot/config.yaml when
// empty, creating it with defaults if missing.
func NewManager(configFile string) (*Manager, error) {
	path := configFile
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".config", "windowshot", "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{
		configPath: path,
		v:          newViper(path),
	}

	if err := m.load(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.WithComponent("config").Info().
			Str("path", m.configPath).
			Msg("Config file not found, creating new config")
		if err := m.v.Unmarshal(&m.config); err != nil {
			return nil, fmt.Errorf("failed to apply defaults: %w", err)
		}
		if err := m.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Config loaded")
	return m, nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("server_port", d.ServerPort)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_pretty", d.LogPretty)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("compression.quality", d.Compression.Quality)
	v.SetDefault("compression.max_size_mb", d.Compression.MaxSizeMB)
	v.SetDefault("compression.default_max_width", d.Compression.DefaultMaxWidth)
	v.SetDefault("compression.min_width", d.Compression.MinWidth)
	v.SetDefault("compression.quality_floor", d.Compression.QualityFloor)
	v.SetDefault("compression.max_encoded_mb", d.Compression.MaxEncodedMB)
	return v
}

// load reads the configuration from disk
func (m *Manager) load() error {
	if err := m.v.ReadInConfig(); err != nil {
		return err
	}

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetViper exposes the underlying viper instance for flag binding.
func (m *Manager) GetViper() *viper.Viper {
	return m.v
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	cfg := m.Get()

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

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Config saved")
	return nil
}

// Set parses value for key, applies it and saves.
func (m *Manager) Set(key, value string) error {
	parsed, err := parseValue(key, value)
	if err != nil {
		return err
	}

	m.v.Set(key, parsed)

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to apply %s: %w", key, err)
	}
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	return m.Save()
}

// Lookup returns the effective value of key.
func (m *Manager) Lookup(key string) (interface{}, bool) {
	if !m.v.IsSet(key) {
		return nil, false
	}
	return m.v.Get(key), true
}

func parseValue(key, value string) (interface{}, error) {
	switch key {
	case "server_port", "workers",
		"compression.quality", "compression.default_max_width",
		"compression.min_width", "compression.quality_floor":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid number for %s: %s", key, value)
		}
		if strings.HasSuffix(key, "quality") || strings.HasSuffix(key, "quality_floor") {
			if n < 1 || n > 100 {
				return nil, fmt.Errorf("%s must be between 1 and 100", key)
			}
		}
		return n, nil
	case "compression.max_size_mb", "compression.max_encoded_mb":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("invalid size for %s: %s", key, value)
		}
		return f, nil
	case "log_pretty":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean: %s (use: true or false)", value)
		}
		return b, nil
	case "log_level":
		switch value {
		case "debug", "info", "warn", "error":
			return value, nil
		}
		return nil, fmt.Errorf("invalid log level: %s (use: debug, info, warn, error)", value)
	default:
		return nil, fmt.Errorf("unknown configuration key: %s", key)
	}
}

// SetPort sets the server port for this process without saving.
func (m *Manager) SetPort(port int) {
	m.mu.Lock()
	m.config.ServerPort = port
	m.mu.Unlock()
}

// SetLogLevel sets the log level for this process without saving.
func (m *Manager) SetLogLevel(level string) {
	m.mu.Lock()
	m.config.LogLevel = level
	m.mu.Unlock()
}

// SetWorkers sets the worker count for this process without saving.
func (m *Manager) SetWorkers(n int) {
	m.mu.Lock()
	m.config.Workers = n
	m.mu.Unlock()
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}
