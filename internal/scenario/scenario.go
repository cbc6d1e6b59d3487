// Package scenario replays scripted configuration updates through a fresh
// Application and checks the outcome of every step.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/arkui-x/app-framework-sub003/internal/domain/app"
	"github.com/arkui-x/app-framework-sub003/internal/domain/appconfig"
	"github.com/arkui-x/app-framework-sub003/internal/domain/appcontext"
	"github.com/arkui-x/app-framework-sub003/internal/domain/bundle"
	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/arkui-x/app-framework-sub003/internal/domain/level"
	"github.com/arkui-x/app-framework-sub003/internal/shared/formats"
	"go.uber.org/zap"
)

var ErrEmptyScenario = errors.New("scenario has no steps")

// Scenario is a scripted run. Files may be YAML, TOML or JSON.
type Scenario struct {
	Name    string                 `json:"name" yaml:"name" toml:"name"`
	Bundle  string                 `json:"bundle" yaml:"bundle" toml:"bundle"`
	Initial map[string]string      `json:"initial" yaml:"initial" toml:"initial"`
	Modules []bundle.HapModuleInfo `json:"modules" yaml:"modules" toml:"modules"`
	Launch  []Launch               `json:"launch" yaml:"launch" toml:"launch"`
	Steps   []Step                 `json:"steps" yaml:"steps" toml:"steps"`
}

// Launch starts an ability before the first step.
type Launch struct {
	Module  string `json:"module" yaml:"module" toml:"module"`
	Ability string `json:"ability" yaml:"ability" toml:"ability"`
}

// Step is either a direct update at Level or an application request made
// through the context.
type Step struct {
	Name    string            `json:"name" yaml:"name" toml:"name"`
	Level   string            `json:"level" yaml:"level" toml:"level"`
	Items   map[string]string `json:"items" yaml:"items" toml:"items"`
	Context *ContextRequest   `json:"context" yaml:"context" toml:"context"`
	Expect  *Expect           `json:"expect" yaml:"expect" toml:"expect"`
}

// ContextRequest mirrors the application context setters.
type ContextRequest struct {
	ColorMode            string  `json:"color_mode" yaml:"color_mode" toml:"color_mode"`
	Language             string  `json:"language" yaml:"language" toml:"language"`
	Font                 string  `json:"font" yaml:"font" toml:"font"`
	FontSizeScale        float64 `json:"font_size_scale" yaml:"font_size_scale" toml:"font_size_scale"`
	FollowSystemFontSize bool    `json:"follow_system_font_size" yaml:"follow_system_font_size" toml:"follow_system_font_size"`
}

// Expect lists checks run after a step. Empty fields are not checked.
type Expect struct {
	Applied        *bool             `json:"applied" yaml:"applied" toml:"applied"`
	ColorModeLevel string            `json:"color_mode_level" yaml:"color_mode_level" toml:"color_mode_level"`
	FontSizeLevel  string            `json:"font_size_level" yaml:"font_size_level" toml:"font_size_level"`
	LanguageLevel  string            `json:"language_level" yaml:"language_level" toml:"language_level"`
	Configuration  map[string]string `json:"configuration" yaml:"configuration" toml:"configuration"`
	Absent         []string          `json:"absent" yaml:"absent" toml:"absent"`
}

// StepResult is the outcome of one step.
type StepResult struct {
	Name       string
	Applied    bool
	Delta      map[string]string
	Precedence appconfig.Snapshot
	Failures   []string
}

// Report is the outcome of a run.
type Report struct {
	Name  string
	Steps []StepResult
}

// Failed reports whether any expectation failed.
func (r Report) Failed() bool {
	for _, s := range r.Steps {
		if len(s.Failures) > 0 {
			return true
		}
	}
	return false
}

// Write prints one line per step followed by its failed expectations.
func (r Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "scenario %s\n", r.Name); err != nil {
		return err
	}
	for i, s := range r.Steps {
		status := "ok"
		if len(s.Failures) > 0 {
			status = "FAIL"
		}
		if _, err := fmt.Fprintf(w, "%3d %-4s %-32s applied=%-5t color=%s font=%s language=%s delta=%s\n",
			i+1, status, s.Name, s.Applied,
			s.Precedence.ColorModeLevel, s.Precedence.FontSizeLevel, s.Precedence.LanguageLevel,
			formatItems(s.Delta)); err != nil {
			return err
		}
		for _, f := range s.Failures {
			if _, err := fmt.Fprintf(w, "      - %s\n", f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads a scenario file.
func Load(path string) (Scenario, error) {
	var sc Scenario
	if err := formats.DecodeFile(path, &sc); err != nil {
		return Scenario{}, err
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}

// Run replays sc through a new Application.
func Run(ctx context.Context, sc Scenario, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(sc.Steps) == 0 {
		return Report{}, ErrEmptyScenario
	}

	initial, rejected := configuration.FromMap(sc.Initial)
	if len(rejected) > 0 {
		return Report{}, fmt.Errorf("invalid initial configuration entries: %v", rejected)
	}

	registry := bundle.NewRegistry()
	for _, info := range sc.Modules {
		if err := registry.Register(info); err != nil {
			return Report{}, fmt.Errorf("register module: %w", err)
		}
	}

	bundleName := sc.Bundle
	if bundleName == "" {
		bundleName = "scenario"
	}
	appCtx := appcontext.New(bundleName, logger.Named("context"))
	application := app.New(appCtx, registry, appconfig.NewManager(), logger.Named("application"))
	defer application.Close()
	application.InitConfiguration(initial)

	for _, l := range sc.Launch {
		if err := application.LaunchAbility(l.Module, l.Ability); err != nil {
			return Report{}, fmt.Errorf("launch %s/%s: %w", l.Module, l.Ability, err)
		}
	}

	report := Report{Name: sc.Name}
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result, err := runStep(application, appCtx, step)
		if err != nil {
			return report, fmt.Errorf("step %d: %w", i+1, err)
		}
		if result.Name == "" {
			result.Name = fmt.Sprintf("step-%d", i+1)
		}
		report.Steps = append(report.Steps, result)
	}
	return report, nil
}

func runStep(application *app.Application, appCtx *appcontext.Context, step Step) (StepResult, error) {
	result := StepResult{Name: step.Name}
	before := application.Configuration()

	if step.Context != nil {
		// The context publishes synchronously, so the update counter tells
		// whether the pipeline accepted the request even when the merged
		// values equal the old ones.
		updates := application.Stats().Updates
		if err := applyContext(appCtx, step.Context); err != nil {
			return result, err
		}
		result.Applied = application.Stats().Updates > updates
		result.Delta = changedItems(before, application.Configuration())
	} else {
		lvl := level.System
		if step.Level != "" {
			parsed, err := level.Parse(step.Level)
			if err != nil {
				return result, err
			}
			lvl = parsed
		}
		delta, rejected := configuration.FromMap(step.Items)
		if len(rejected) > 0 {
			return result, fmt.Errorf("invalid entries: %v", rejected)
		}
		result.Applied = application.OnConfigurationUpdate(delta, lvl)
		result.Delta = delta.Items()
	}

	result.Precedence = application.Precedence()
	if step.Expect != nil {
		result.Failures = check(step.Expect, result, application.Configuration())
	}
	return result, nil
}

func applyContext(appCtx *appcontext.Context, req *ContextRequest) error {
	if req.ColorMode != "" {
		mode, ok := configuration.ParseColorMode(req.ColorMode)
		if !ok {
			return fmt.Errorf("invalid color mode %q", req.ColorMode)
		}
		appCtx.SetColorMode(mode)
	}
	if req.Language != "" {
		if err := appCtx.SetLanguage(req.Language); err != nil {
			return err
		}
	}
	if req.Font != "" {
		appCtx.SetFont(req.Font)
	}
	if req.FontSizeScale != 0 {
		if err := appCtx.SetFontSizeScale(req.FontSizeScale); err != nil {
			return err
		}
	}
	if req.FollowSystemFontSize {
		appCtx.FollowSystemFontSize()
	}
	return nil
}

func check(exp *Expect, result StepResult, cfg *configuration.Configuration) []string {
	var failures []string
	if exp.Applied != nil && *exp.Applied != result.Applied {
		failures = append(failures, fmt.Sprintf("applied: want %t, got %t", *exp.Applied, result.Applied))
	}

	levels := []struct {
		axis string
		want string
		got  level.SetLevel
	}{
		{"color mode level", exp.ColorModeLevel, result.Precedence.ColorModeLevel},
		{"font size level", exp.FontSizeLevel, result.Precedence.FontSizeLevel},
		{"language level", exp.LanguageLevel, result.Precedence.LanguageLevel},
	}
	for _, l := range levels {
		if l.want == "" {
			continue
		}
		want, err := level.Parse(l.want)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", l.axis, err))
			continue
		}
		if want != l.got {
			failures = append(failures, fmt.Sprintf("%s: want %s, got %s", l.axis, want, l.got))
		}
	}

	keys := make([]string, 0, len(exp.Configuration))
	for k := range exp.Configuration {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if got := cfg.Get(k); got != exp.Configuration[k] {
			failures = append(failures, fmt.Sprintf("%s: want %q, got %q", k, exp.Configuration[k], got))
		}
	}
	for _, k := range exp.Absent {
		if cfg.Has(k) {
			failures = append(failures, fmt.Sprintf("%s: want absent, got %q", k, cfg.Get(k)))
		}
	}
	return failures
}

// changedItems maps every key that differs between before and after to its
// new value. Removed keys map to "".
func changedItems(before, after *configuration.Configuration) map[string]string {
	out := make(map[string]string)
	for _, k := range before.Changes(after) {
		out[k] = after.Get(k)
	}
	return out
}

func formatItems(items map[string]string) string {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+items[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
