package scenario

import (
	"bytes"
	"context"
	"testing"

	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/arkui-x/app-framework-sub003/internal/domain/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayColorOverride(t *testing.T) {
	sc, err := Load("testdata/color-override.yaml")
	require.NoError(t, err)
	assert.Equal(t, "color-override", sc.Name)
	require.Len(t, sc.Steps, 6)

	report, err := Run(context.Background(), sc, nil)
	require.NoError(t, err)
	require.Len(t, report.Steps, 6)

	for _, step := range report.Steps {
		assert.Empty(t, step.Failures, step.Name)
	}
	assert.False(t, report.Failed())

	assert.True(t, report.Steps[0].Applied)
	assert.Equal(t, level.Application, report.Steps[0].Precedence.ColorModeLevel)
	assert.Empty(t, report.Steps[1].Delta)

	var out bytes.Buffer
	require.NoError(t, report.Write(&out))
	assert.Contains(t, out.String(), "scenario color-override")
	assert.Contains(t, out.String(), "system-light-loses")
}

func TestReplayReportsFailedExpectations(t *testing.T) {
	sc, err := Load("testdata/language.json")
	require.NoError(t, err)

	report, err := Run(context.Background(), sc, nil)
	require.NoError(t, err)
	require.True(t, report.Failed())

	assert.Empty(t, report.Steps[0].Failures)
	assert.Equal(t, map[string]string{configuration.KeyLanguage: "de-DE"}, report.Steps[0].Delta)
	require.Len(t, report.Steps[1].Failures, 1)
	assert.Contains(t, report.Steps[1].Failures[0], configuration.KeyLanguage)

	var out bytes.Buffer
	require.NoError(t, report.Write(&out))
	assert.Contains(t, out.String(), "FAIL")
}

func TestContextStepWithUnchangedValueIsApplied(t *testing.T) {
	applied := true
	sc := Scenario{
		Initial: map[string]string{configuration.KeyLanguage: "en-US"},
		Steps: []Step{
			{Name: "system-german", Items: map[string]string{configuration.KeyLanguage: "de-DE"}},
			{
				Name:    "app-german",
				Context: &ContextRequest{Language: "de-DE"},
				Expect:  &Expect{Applied: &applied, LanguageLevel: "application"},
			},
		},
	}

	report, err := Run(context.Background(), sc, nil)
	require.NoError(t, err)
	require.Len(t, report.Steps, 2)
	assert.Empty(t, report.Steps[1].Failures)
	assert.True(t, report.Steps[1].Applied)
	assert.Empty(t, report.Steps[1].Delta)
}

func TestChangedItemsIncludesRemovals(t *testing.T) {
	before := configuration.New()
	before.Add(configuration.KeyFontSizeScale, "1")
	before.Add(configuration.KeyAppFontSizeScale, "1.5")

	after := configuration.New()
	after.Add(configuration.KeyFontSizeScale, "1.25")

	assert.Equal(t, map[string]string{
		configuration.KeyFontSizeScale:    "1.25",
		configuration.KeyAppFontSizeScale: "",
	}, changedItems(before, after))
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Run(ctx, Scenario{}, nil)
	assert.ErrorIs(t, err, ErrEmptyScenario)

	_, err = Run(ctx, Scenario{
		Initial: map[string]string{configuration.KeyColorMode: "purple"},
		Steps:   []Step{{}},
	}, nil)
	assert.Error(t, err)

	_, err = Run(ctx, Scenario{
		Launch: []Launch{{Module: "missing", Ability: "MainAbility"}},
		Steps:  []Step{{}},
	}, nil)
	assert.Error(t, err)

	_, err = Run(ctx, Scenario{Steps: []Step{{Level: "root"}}}, nil)
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Run(cancelled, Scenario{Steps: []Step{{}}}, nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = Load("testdata/missing.yaml")
	assert.Error(t, err)
}
