package appconfig

import (
	"encoding/json"
	"math/rand"
	"sync"
	"testing"

	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/arkui-x/app-framework-sub003/internal/domain/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerStartsAtSystem(t *testing.T) {
	m := NewManager()
	assert.Equal(t, level.System, m.GetColorModeSetLevel())
	assert.Equal(t, level.System, m.GetFontSizeSetLevel())
	assert.Equal(t, level.System, m.GetLanguageSetLevel())
	assert.False(t, m.ColorModeHasSetByApplication())
}

func TestSetColorModeSetLevelPromotes(t *testing.T) {
	m := NewManager()

	got := m.SetColorModeSetLevel(level.System, configuration.ColorModeLight)
	assert.Equal(t, configuration.ColorModeLight, got)
	assert.Equal(t, level.System, m.GetColorModeSetLevel())

	got = m.SetColorModeSetLevel(level.Application, configuration.ColorModeDark)
	assert.Equal(t, configuration.ColorModeDark, got)
	assert.Equal(t, level.Application, m.GetColorModeSetLevel())
}

func TestLowerWriteReturnsHigherValue(t *testing.T) {
	m := NewManager()
	m.SetColorModeSetLevel(level.SA, configuration.ColorModeDark)

	got := m.SetColorModeSetLevel(level.System, configuration.ColorModeLight)
	assert.Equal(t, configuration.ColorModeDark, got)
	assert.Equal(t, level.SA, m.GetColorModeSetLevel())
}

func TestRetractionDemotes(t *testing.T) {
	m := NewManager()
	m.SetColorModeSetLevel(level.System, configuration.ColorModeLight)
	m.SetColorModeSetLevel(level.SA, configuration.ColorModeDark)
	m.SetColorModeSetLevel(level.Application, configuration.ColorModeDark)
	require.Equal(t, level.Application, m.GetColorModeSetLevel())

	got := m.SetColorModeSetLevel(level.Application, configuration.ColorModeUnset)
	assert.Equal(t, level.SA, m.GetColorModeSetLevel())
	assert.Equal(t, configuration.ColorModeDark, got)

	got = m.SetColorModeSetLevel(level.SA, configuration.ColorModeUnset)
	assert.Equal(t, level.System, m.GetColorModeSetLevel())
	assert.Equal(t, configuration.ColorModeLight, got)
}

func TestAutoDoesNotQualify(t *testing.T) {
	m := NewManager()
	m.SetColorModeSetLevel(level.SA, configuration.ColorModeDark)

	got := m.SetColorModeSetLevel(level.Application, configuration.ColorModeAuto)
	assert.Equal(t, level.SA, m.GetColorModeSetLevel())
	assert.Equal(t, configuration.ColorModeDark, got)

	// Raw presence check counts auto.
	assert.True(t, m.ColorModeHasSetByApplication())
}

func TestFallbackToSystemEvenWhenSystemEmpty(t *testing.T) {
	m := NewManager()
	m.SetColorModeSetLevel(level.Application, configuration.ColorModeAuto)

	got := m.SetColorModeSetLevel(level.SA, configuration.ColorModeAuto)
	assert.Equal(t, level.System, m.GetColorModeSetLevel())
	assert.Equal(t, configuration.ColorModeUnset, got)
}

func TestColorModeLevelInvariantRandomized(t *testing.T) {
	modes := []configuration.ColorMode{
		configuration.ColorModeUnset,
		configuration.ColorModeLight,
		configuration.ColorModeDark,
		configuration.ColorModeAuto,
	}
	rng := rand.New(rand.NewSource(42))
	m := NewManager()
	var last [level.Count]configuration.ColorMode

	for i := 0; i < 500; i++ {
		lvl := level.All()[rng.Intn(level.Count)]
		mode := modes[rng.Intn(len(modes))]
		m.SetColorModeSetLevel(lvl, mode)
		last[lvl.Index()] = mode

		want := level.System
		for _, l := range level.All() {
			if last[l.Index()].IsConcrete() {
				want = l
			}
		}
		require.Equal(t, want, m.GetColorModeSetLevel(), "step %d", i)
	}
}

func TestFontSizeAndLanguageLevels(t *testing.T) {
	m := NewManager()
	m.SetFontSizeSetLevel(level.Application)
	m.SetLanguageSetLevel(level.SA)
	assert.Equal(t, level.Application, m.GetFontSizeSetLevel())
	assert.Equal(t, level.SA, m.GetLanguageSetLevel())

	// Unconditional: a lower level overwrites.
	m.SetFontSizeSetLevel(level.System)
	assert.Equal(t, level.System, m.GetFontSizeSetLevel())
}

func TestSnapshot(t *testing.T) {
	m := NewManager()
	m.SetColorModeSetLevel(level.System, configuration.ColorModeLight)
	m.SetColorModeSetLevel(level.Application, configuration.ColorModeAuto)
	m.SetLanguageSetLevel(level.Application)

	snap := m.Snapshot()
	assert.Equal(t, level.System, snap.ColorModeLevel)
	assert.Equal(t, map[level.SetLevel]string{
		level.System:      "light",
		level.Application: "auto",
	}, snap.ColorModes)
	assert.Equal(t, level.Application, snap.LanguageLevel)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"color_mode_level":"system",
		"color_modes":{"system":"light","application":"auto"},
		"font_size_level":"system",
		"language_level":"application"
	}`, string(data))
}

func TestConcurrentColorModeWrites(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lvl := level.All()[i%level.Count]
			m.SetColorModeSetLevel(lvl, configuration.ColorModeDark)
			_ = m.GetColorModeSetLevel()
			m.SetFontSizeSetLevel(lvl)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, level.Application, m.GetColorModeSetLevel())
}
