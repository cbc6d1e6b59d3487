package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/arkui-x/app-framework-sub003/internal/shared/formats"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Bundle    BundleConfig
	Initial   InitialConfig
	System    SystemConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig lists browser origins allowed to call the admin API.
type CORSConfig struct {
	AllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
}

// BundleConfig names the bundle and where its module manifests live.
type BundleConfig struct {
	Name string `envconfig:"BUNDLE_NAME" default:"com.example.app"`
	Dir  string `envconfig:"BUNDLE_DIR" default:"./modules"`
}

// InitialConfig seeds the master configuration. File is read first and the
// individual fields override it.
type InitialConfig struct {
	File          string  `envconfig:"INITIAL_CONFIG_FILE"`
	ColorMode     string  `envconfig:"INITIAL_COLOR_MODE" default:"light"`
	Language      string  `envconfig:"INITIAL_LANGUAGE" default:"en-US"`
	Direction     string  `envconfig:"INITIAL_DIRECTION"`
	DensityDPI    int     `envconfig:"INITIAL_DENSITY_DPI"`
	DeviceType    string  `envconfig:"INITIAL_DEVICE_TYPE" default:"phone"`
	FontSizeScale float64 `envconfig:"INITIAL_FONT_SIZE_SCALE" default:"1"`
}

// SystemConfig points at an optional file whose changes are submitted as
// System level updates while the server runs.
type SystemConfig struct {
	File     string        `envconfig:"SYSTEM_CONFIG_FILE"`
	Debounce time.Duration `envconfig:"SYSTEM_CONFIG_DEBOUNCE" default:"200ms"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
		Bundle: BundleConfig{
			Name: "com.example.app",
			Dir:  "./modules",
		},
		Initial: InitialConfig{
			ColorMode:     "light",
			Language:      "en-US",
			DeviceType:    "phone",
			FontSizeScale: 1,
		},
		System: SystemConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}

// Configuration builds the initial master configuration. Entries that fail
// to parse are reported as an error naming the offending keys.
func (ic InitialConfig) Configuration() (*configuration.Configuration, error) {
	entries := make(map[string]string)
	if ic.File != "" {
		if err := formats.DecodeFile(ic.File, &entries); err != nil {
			return nil, fmt.Errorf("failed to read initial configuration: %w", err)
		}
	}

	set := func(key, value string) {
		if value != "" {
			entries[key] = value
		}
	}
	set(configuration.KeyColorMode, ic.ColorMode)
	set(configuration.KeyLanguage, ic.Language)
	set(configuration.KeyDirection, ic.Direction)
	set(configuration.KeyDeviceType, ic.DeviceType)
	if ic.DensityDPI > 0 {
		set(configuration.KeyDensityDPI, strconv.Itoa(ic.DensityDPI))
	}
	if ic.FontSizeScale > 0 {
		set(configuration.KeyFontSizeScale, strconv.FormatFloat(ic.FontSizeScale, 'f', -1, 64))
	}

	cfg, rejected := configuration.FromMap(entries)
	if len(rejected) > 0 {
		return nil, fmt.Errorf("invalid initial configuration entries: %v", rejected)
	}
	return cfg, nil
}
