package resource

import (
	"errors"
	"sync"

	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"golang.org/x/text/language"
)

// ErrInvalidDensity is returned for a negative density.
var ErrInvalidDensity = errors.New("density must not be negative")

// ResConfig is the device state resources are resolved against.
type ResConfig struct {
	Locale        language.Tag
	ColorMode     configuration.ColorMode
	Direction     configuration.Direction
	DensityDPI    int // 0 while the host has not reported one
	DeviceType    string
	FontSizeScale float64
}

// Manager is the resource manager collaborator. Loading and indexing
// resources is out of scope; only the resolution state is tracked.
type Manager interface {
	UpdateResConfig(cfg ResConfig) error
	ResConfig() ResConfig
}

// FromConfiguration overlays every axis present in cfg onto base.
func FromConfiguration(cfg *configuration.Configuration, base ResConfig) ResConfig {
	out := base
	if cfg == nil {
		return out
	}
	if tag, ok := cfg.Language(); ok {
		out.Locale = tag
	}
	if mode := cfg.ColorMode(); mode != configuration.ColorModeUnset {
		out.ColorMode = mode
	}
	if dir := cfg.Direction(); dir != configuration.DirectionUnset {
		out.Direction = dir
	}
	if dpi := cfg.DensityDPI(); dpi > 0 {
		out.DensityDPI = dpi
	}
	if device := cfg.Get(configuration.KeyDeviceType); device != "" {
		out.DeviceType = device
	}
	if scale, ok := cfg.FontSizeScale(); ok {
		out.FontSizeScale = scale
	}
	return out
}

// Store is an in-memory Manager.
type Store struct {
	mu      sync.RWMutex
	cfg     ResConfig
	updates int
}

// NewStore creates a store seeded with cfg.
func NewStore(cfg ResConfig) *Store {
	return &Store{cfg: cfg}
}

// UpdateResConfig replaces the resolution state. A zero density is kept as
// unset.
func (s *Store) UpdateResConfig(cfg ResConfig) error {
	if cfg.DensityDPI < 0 {
		return ErrInvalidDensity
	}
	s.mu.Lock()
	s.cfg = cfg
	s.updates++
	s.mu.Unlock()
	return nil
}

// ResConfig returns the current resolution state.
func (s *Store) ResConfig() ResConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Updates returns how many times the state was replaced.
func (s *Store) Updates() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updates
}
