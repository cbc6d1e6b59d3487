package appconfig

import (
	"sync"

	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/arkui-x/app-framework-sub003/internal/domain/level"
)

// Manager tracks, per configuration axis, the highest level that has
// supplied a value. Colour mode keeps the last value written at every level
// so the winning level can be recomputed when a higher level retracts.
type Manager struct {
	mu                sync.Mutex
	colorModeSetLevel level.SetLevel
	colorModeVal      [level.Count]configuration.ColorMode
	fontSizeSetLevel  level.SetLevel
	languageSetLevel  level.SetLevel
}

// Snapshot is a point-in-time copy of the manager state.
type Snapshot struct {
	ColorModeLevel level.SetLevel            `json:"color_mode_level"`
	ColorModes     map[level.SetLevel]string `json:"color_modes"`
	FontSizeLevel  level.SetLevel            `json:"font_size_level"`
	LanguageLevel  level.SetLevel            `json:"language_level"`
}

// NewManager creates a manager with every axis at System.
func NewManager() *Manager {
	return &Manager{}
}

// SetColorModeSetLevel stores mode at lvl, recomputes the winning level and
// returns the mode stored at that level. ColorModeUnset clears lvl.
func (m *Manager) SetColorModeSetLevel(lvl level.SetLevel, mode configuration.ColorMode) configuration.ColorMode {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.colorModeVal[lvl.Index()] = mode

	m.colorModeSetLevel = level.System
	all := level.All()
	for i := len(all) - 1; i >= 0; i-- {
		if m.colorModeVal[all[i].Index()].IsConcrete() {
			m.colorModeSetLevel = all[i]
			break
		}
	}

	return m.colorModeVal[m.colorModeSetLevel.Index()]
}

// GetColorModeSetLevel returns the level currently owning colour mode.
func (m *Manager) GetColorModeSetLevel() level.SetLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.colorModeSetLevel
}

// ColorModeHasSetByApplication reports whether the application level holds
// any colour mode value, auto included.
func (m *Manager) ColorModeHasSetByApplication() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.colorModeVal[level.Application.Index()] != configuration.ColorModeUnset
}

func (m *Manager) SetFontSizeSetLevel(lvl level.SetLevel) {
	m.mu.Lock()
	m.fontSizeSetLevel = lvl
	m.mu.Unlock()
}

func (m *Manager) GetFontSizeSetLevel() level.SetLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fontSizeSetLevel
}

func (m *Manager) SetLanguageSetLevel(lvl level.SetLevel) {
	m.mu.Lock()
	m.languageSetLevel = lvl
	m.mu.Unlock()
}

func (m *Manager) GetLanguageSetLevel() level.SetLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.languageSetLevel
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	modes := make(map[level.SetLevel]string, level.Count)
	for _, l := range level.All() {
		if v := m.colorModeVal[l.Index()]; v != configuration.ColorModeUnset {
			modes[l] = v.String()
		}
	}
	return Snapshot{
		ColorModeLevel: m.colorModeSetLevel,
		ColorModes:     modes,
		FontSizeLevel:  m.fontSizeSetLevel,
		LanguageLevel:  m.languageSetLevel,
	}
}
