package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	// Bundle config
	assert.Equal(t, "com.example.app", cfg.Bundle.Name)
	assert.Equal(t, "./modules", cfg.Bundle.Dir)

	// Initial configuration
	assert.Equal(t, "light", cfg.Initial.ColorMode)
	assert.Equal(t, 1.0, cfg.Initial.FontSizeScale)

	// System source
	assert.Empty(t, cfg.System.File)
	assert.Equal(t, 200*time.Millisecond, cfg.System.Debounce)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "en-US", cfg.Initial.Language)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                    "9000",
		"HOST":                    "127.0.0.1",
		"LOG_LEVEL":               "debug",
		"LOG_DEV":                 "true",
		"RATE_LIMIT_RPS":          "500",
		"RATE_LIMIT_BURST":        "1000",
		"RATE_LIMIT_ENABLED":      "false",
		"BUNDLE_NAME":             "com.example.notes",
		"BUNDLE_DIR":              "/srv/modules",
		"INITIAL_COLOR_MODE":      "dark",
		"INITIAL_DENSITY_DPI":     "480",
		"INITIAL_FONT_SIZE_SCALE": "1.25",
		"SYSTEM_CONFIG_FILE":      "/etc/ability/system.toml",
		"SYSTEM_CONFIG_DEBOUNCE":  "1s",
		"CORS_ALLOW_ORIGINS":      "https://a.example.com,https://b.example.com",
	}

	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "com.example.notes", cfg.Bundle.Name)
	assert.Equal(t, "/srv/modules", cfg.Bundle.Dir)
	assert.Equal(t, "dark", cfg.Initial.ColorMode)
	assert.Equal(t, 480, cfg.Initial.DensityDPI)
	assert.Equal(t, 1.25, cfg.Initial.FontSizeScale)
	assert.Equal(t, "/etc/ability/system.toml", cfg.System.File)
	assert.Equal(t, time.Second, cfg.System.Debounce)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowOrigins)
}

func TestLoadWithInvalidValue(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "fast")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
}

func TestRateLimitConfig(t *testing.T) {
	tests := []struct {
		name        string
		rps         string
		burst       string
		enabled     string
		wantRPS     int
		wantBurst   int
		wantEnabled bool
	}{
		{
			name:        "default values",
			wantRPS:     100,
			wantBurst:   200,
			wantEnabled: true,
		},
		{
			name:        "high limits",
			rps:         "1000",
			burst:       "2000",
			wantRPS:     1000,
			wantBurst:   2000,
			wantEnabled: true,
		},
		{
			name:        "disabled",
			enabled:     "false",
			wantRPS:     100,
			wantBurst:   200,
			wantEnabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.rps != "" {
				t.Setenv("RATE_LIMIT_RPS", tt.rps)
			}
			if tt.burst != "" {
				t.Setenv("RATE_LIMIT_BURST", tt.burst)
			}
			if tt.enabled != "" {
				t.Setenv("RATE_LIMIT_ENABLED", tt.enabled)
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantRPS, cfg.RateLimit.RequestsPerSecond)
			assert.Equal(t, tt.wantBurst, cfg.RateLimit.Burst)
			assert.Equal(t, tt.wantEnabled, cfg.RateLimit.Enabled)
		})
	}
}

func TestInitialConfiguration(t *testing.T) {
	ic := Default().Initial
	ic.Direction = "horizontal"
	ic.DensityDPI = 320

	cfg, err := ic.Configuration()
	require.NoError(t, err)

	assert.Equal(t, configuration.ColorModeLight, cfg.ColorMode())
	assert.Equal(t, configuration.DirectionHorizontal, cfg.Direction())
	assert.Equal(t, 320, cfg.DensityDPI())
	assert.Equal(t, "en-US", cfg.Get(configuration.KeyLanguage))
	assert.Equal(t, "phone", cfg.Get(configuration.KeyDeviceType))
	assert.Equal(t, "1", cfg.Get(configuration.KeyFontSizeScale))
}

func TestInitialConfigurationFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "initial.yaml")
	content := configuration.KeyColorMode + ": dark\n" +
		configuration.KeyFont + ": Serif\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// Environment fields override the file.
	cfg, err := InitialConfig{File: path, ColorMode: "light"}.Configuration()
	require.NoError(t, err)
	assert.Equal(t, configuration.ColorModeLight, cfg.ColorMode())
	assert.Equal(t, "Serif", cfg.Get(configuration.KeyFont))

	cfg, err = InitialConfig{File: path}.Configuration()
	require.NoError(t, err)
	assert.Equal(t, configuration.ColorModeDark, cfg.ColorMode())
}

func TestInitialConfigurationErrors(t *testing.T) {
	_, err := InitialConfig{ColorMode: "purple"}.Configuration()
	assert.ErrorContains(t, err, configuration.KeyColorMode)

	_, err = InitialConfig{File: filepath.Join(t.TempDir(), "missing.yaml")}.Configuration()
	assert.Error(t, err)
}
