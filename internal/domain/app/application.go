package app

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/arkui-x/app-framework-sub003/internal/domain/appconfig"
	"github.com/arkui-x/app-framework-sub003/internal/domain/appcontext"
	"github.com/arkui-x/app-framework-sub003/internal/domain/bundle"
	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/arkui-x/app-framework-sub003/internal/domain/level"
	"github.com/arkui-x/app-framework-sub003/internal/domain/stage"
	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/monitoring"
	"github.com/arkui-x/app-framework-sub003/internal/shared/id"
	"github.com/arkui-x/app-framework-sub003/internal/shared/utils"
	"go.uber.org/zap"
)

var (
	ErrNoBundleContainer = errors.New("bundle container is not set")
	ErrUnknownAbility    = errors.New("ability not declared by module")
	ErrStageExists       = errors.New("stage already registered")
	ErrNotAbilityHost    = errors.New("stage does not host abilities")
)

// AbilityStage receives every merged configuration delta.
type AbilityStage interface {
	OnConfigurationUpdate(delta *configuration.Configuration)
}

// abilityHost is a stage that runs abilities and can report itself empty.
type abilityHost interface {
	AbilityStage
	AddAbility(name string)
	RemoveAbility(name string) bool
	IsEmpty() bool
}

// StageStatus describes one registered stage.
type StageStatus struct {
	Name      string   `json:"name"`
	Abilities []string `json:"abilities,omitempty"`
	External  bool     `json:"external"`
}

// Stats contains application statistics
type Stats struct {
	Initialized bool   `json:"initialized"`
	Foreground  bool   `json:"foreground"`
	Stages      int    `json:"stages"`
	Updates     uint64 `json:"updates"`
}

// Application owns the master configuration of the process and fans accepted
// updates out to every ability stage.
//
// One mutex serializes the whole filter, merge and broadcast sequence as
// well as the stage map. Stages must not call back into the Application
// synchronously from OnConfigurationUpdate.
type Application struct {
	mu            sync.Mutex
	configuration *configuration.Configuration // Protected by mu
	stages        map[string]AbilityStage      // Protected by mu
	external      map[string]bool              // Protected by mu
	isForeground  bool                         // Protected by mu
	updates       uint64                       // Protected by mu
	unsubscribe   func()

	precedence *appconfig.Manager
	appCtx     *appcontext.Context
	bundles    bundle.Container
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// New creates an application. A nil precedence manager gets a fresh one.
func New(appCtx *appcontext.Context, bundles bundle.Container, precedence *appconfig.Manager, logger *zap.Logger) *Application {
	if precedence == nil {
		precedence = appconfig.NewManager()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		stages:     make(map[string]AbilityStage),
		external:   make(map[string]bool),
		precedence: precedence,
		appCtx:     appCtx,
		bundles:    bundles,
		logger:     logger,
	}
}

// WithMetrics adds metrics tracking to the application
func (a *Application) WithMetrics(metrics *monitoring.Metrics) *Application {
	a.metrics = metrics
	return a
}

// InitConfiguration installs the master configuration once. Later calls are
// ignored. The application subscribes to its context so application-side
// requests re-enter OnConfigurationUpdate at the Application level.
func (a *Application) InitConfiguration(initial *configuration.Configuration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.configuration != nil {
		a.logger.Info("Configuration already initialized")
		return
	}
	if initial == nil {
		a.logger.Warn("Initial configuration is nil, starting empty")
		initial = configuration.New()
	}

	a.configuration = initial.Clone()
	a.precedence.SetColorModeSetLevel(level.System, a.configuration.ColorMode())
	a.metrics.SetColorModeLevel(a.precedence.GetColorModeSetLevel().Index())

	if a.appCtx == nil {
		a.logger.Error("Application context is nil, application-side configuration requests are disabled")
		return
	}
	a.appCtx.SetConfiguration(a.configuration)
	a.unsubscribe = a.appCtx.Subscribe(appcontext.ObserverFunc(func(delta *configuration.Configuration) {
		a.OnConfigurationUpdate(delta, level.Application)
	}))

	a.logger.Info("Configuration initialized", zap.Stringer("configuration", a.configuration))
}

// OnConfigurationUpdate filters delta against the recorded precedence,
// merges what survives into the master configuration and broadcasts it to
// every stage. delta is modified in place. It reports whether anything was
// merged and broadcast.
func (a *Application) OnConfigurationUpdate(delta *configuration.Configuration, lvl level.SetLevel) bool {
	start := time.Now()
	log := a.logger.With(
		zap.Stringer("update_id", id.NewUpdateID()),
		zap.Stringer("level", lvl))

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.configuration == nil {
		log.Error("Configuration update before initialization")
		a.metrics.RecordUpdate(lvl.String(), monitoring.OutcomeUninitialized, time.Since(start))
		return false
	}
	if delta == nil {
		delta = configuration.New()
	}

	log.Debug("Configuration update received", zap.Stringer("delta", delta))

	// Order matters: the font filter reads the master before the merge.
	colorChanged := a.isUpdateColorNeeded(delta, lvl)
	fontChanged := a.isUpdateFontSizeNeeded(delta, lvl)
	languageChanged := a.isUpdateLanguageNeeded(delta, lvl)

	if !colorChanged && !fontChanged && !languageChanged && delta.IsEmpty() {
		log.Debug("Configuration update dropped")
		a.metrics.RecordUpdate(lvl.String(), monitoring.OutcomeNoop, time.Since(start))
		return false
	}

	a.configuration.UpdateConfigurationInfo(delta)
	if a.appCtx != nil {
		a.appCtx.SetConfiguration(a.configuration)
	}
	a.broadcast(delta, log)
	a.updates++

	log.Info("Configuration updated",
		zap.Stringer("delta", delta),
		zap.Bool("color", colorChanged),
		zap.Bool("font_size", fontChanged),
		zap.Bool("language", languageChanged))
	a.metrics.RecordUpdate(lvl.String(), monitoring.OutcomeApplied, time.Since(start))
	return true
}

// broadcast must hold mu
func (a *Application) broadcast(delta *configuration.Configuration, log *zap.Logger) {
	for _, name := range a.sortedStageNames() {
		st := a.stages[name]
		if st == nil {
			log.Warn("Skipping nil ability stage", zap.String("stage", name))
			a.metrics.RecordBroadcast(false)
			continue
		}
		st.OnConfigurationUpdate(delta.Clone())
		a.metrics.RecordBroadcast(true)
	}
}

func (a *Application) isUpdateColorNeeded(delta *configuration.Configuration, lvl level.SetLevel) bool {
	mode := delta.ColorMode()

	effective := lvl
	if delta.Has(configuration.KeyColorModeSetBySA) && lvl.Less(level.SA) {
		effective = level.SA
	}

	if effective.Less(a.precedence.GetColorModeSetLevel()) || mode == configuration.ColorModeUnset {
		decision := monitoring.DecisionStripped
		if mode == configuration.ColorModeUnset {
			decision = monitoring.DecisionAbsent
		}
		delta.Remove(configuration.KeyColorMode)
		delta.Remove(configuration.KeyColorModeSetBySA)
		a.metrics.RecordAxisDecision("color", effective.String(), decision)
		return false
	}

	resolved := a.precedence.SetColorModeSetLevel(effective, mode)
	delta.Remove(configuration.KeyColorMode)
	delta.Add(configuration.KeyColorMode, resolved.String())
	if effective.Greater(level.System) {
		delta.Add(configuration.KeyColorModeSetByApp, configuration.ValueSetByApp)
	}

	a.metrics.RecordAxisDecision("color", effective.String(), monitoring.DecisionChanged)
	a.metrics.SetColorModeLevel(a.precedence.GetColorModeSetLevel().Index())
	return true
}

func (a *Application) isUpdateFontSizeNeeded(delta *configuration.Configuration, lvl level.SetLevel) bool {
	if !delta.Has(configuration.KeyFontSizeScale) {
		a.metrics.RecordAxisDecision("font_size", lvl.String(), monitoring.DecisionAbsent)
		return false
	}

	recorded := a.precedence.GetFontSizeSetLevel()
	if lvl.Less(recorded) {
		delta.Remove(configuration.KeyFontSizeScale)
		a.metrics.RecordAxisDecision("font_size", lvl.String(), monitoring.DecisionStripped)
		return false
	}

	if lvl == recorded {
		if appScale := a.configuration.Get(configuration.KeyAppFontSizeScale); appScale != "" {
			if appScale == configuration.ValueFollowSystem {
				a.metrics.RecordAxisDecision("font_size", lvl.String(), monitoring.DecisionChanged)
				return true
			}
			// The application pinned its own scale.
			delta.Remove(configuration.KeyFontSizeScale)
			a.metrics.RecordAxisDecision("font_size", lvl.String(), monitoring.DecisionStripped)
			return false
		}
	}

	a.configuration.Remove(configuration.KeyAppFontSizeScale)
	a.precedence.SetFontSizeSetLevel(lvl)
	a.metrics.RecordAxisDecision("font_size", lvl.String(), monitoring.DecisionChanged)
	return true
}

func (a *Application) isUpdateLanguageNeeded(delta *configuration.Configuration, lvl level.SetLevel) bool {
	if !delta.Has(configuration.KeyLanguage) {
		a.metrics.RecordAxisDecision("language", lvl.String(), monitoring.DecisionAbsent)
		return false
	}

	if lvl.Less(a.precedence.GetLanguageSetLevel()) {
		delta.Remove(configuration.KeyLanguage)
		a.metrics.RecordAxisDecision("language", lvl.String(), monitoring.DecisionStripped)
		return false
	}

	a.precedence.SetLanguageSetLevel(lvl)
	a.metrics.RecordAxisDecision("language", lvl.String(), monitoring.DecisionChanged)
	return true
}

// LaunchAbility starts ability in module, creating the module's stage on
// first use.
func (a *Application) LaunchAbility(moduleName, abilityName string) error {
	if err := utils.ValidateAbilityName(abilityName); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.bundles == nil {
		a.logger.Error("Cannot launch ability without a bundle container", zap.String("module", moduleName))
		return ErrNoBundleContainer
	}
	info, ok := a.bundles.GetHapModuleInfo(moduleName)
	if !ok {
		return fmt.Errorf("%w: %s", bundle.ErrUnknownModule, moduleName)
	}
	if len(info.Abilities) > 0 && !info.HasAbility(abilityName) {
		return fmt.Errorf("%w: %s/%s", ErrUnknownAbility, moduleName, abilityName)
	}

	existing, exists := a.stages[moduleName]
	host, isHost := existing.(abilityHost)
	if exists && !isHost {
		return fmt.Errorf("%w: %s", ErrNotAbilityHost, moduleName)
	}
	if !exists {
		host = stage.New(info, a.configuration, nil, a.logger.Named("stage"))
		a.stages[moduleName] = host
		a.metrics.SetStagesActive(len(a.stages))
		a.logger.Info("Ability stage created", zap.String("module", moduleName))
	}

	host.AddAbility(abilityName)
	a.logger.Info("Ability launched", zap.String("module", moduleName), zap.String("ability", abilityName))
	return nil
}

// TerminateAbility stops ability in module. A stage left without abilities
// is removed. It reports whether the ability was running.
func (a *Application) TerminateAbility(moduleName, abilityName string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	host, ok := a.stages[moduleName].(abilityHost)
	if !ok {
		return false
	}
	if !host.RemoveAbility(abilityName) {
		return false
	}
	if host.IsEmpty() {
		delete(a.stages, moduleName)
		a.metrics.SetStagesActive(len(a.stages))
		a.logger.Info("Ability stage removed", zap.String("module", moduleName))
	}
	return true
}

// RegisterStage attaches an externally managed stage under name.
func (a *Application) RegisterStage(name string, st AbilityStage) error {
	return a.AttachStage(name, st, nil)
}

// AttachStage registers st like RegisterStage. onAttach, when set, receives a
// copy of the master configuration (nil before initialization) while the
// lock is held, so anything it queues reaches st ahead of every broadcast.
// onAttach must not call back into the Application.
func (a *Application) AttachStage(name string, st AbilityStage, onAttach func(*configuration.Configuration)) error {
	if err := utils.ValidateID(name, "stage"); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.stages[name]; exists {
		return fmt.Errorf("%w: %s", ErrStageExists, name)
	}
	if st == nil {
		a.logger.Warn("Registering nil ability stage", zap.String("stage", name))
	}
	if onAttach != nil {
		var snapshot *configuration.Configuration
		if a.configuration != nil {
			snapshot = a.configuration.Clone()
		}
		onAttach(snapshot)
	}
	a.stages[name] = st
	a.external[name] = true
	a.metrics.SetStagesActive(len(a.stages))
	return nil
}

// UnregisterStage detaches a stage registered with RegisterStage.
func (a *Application) UnregisterStage(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.external[name] {
		return false
	}
	delete(a.stages, name)
	delete(a.external, name)
	a.metrics.SetStagesActive(len(a.stages))
	return true
}

// Stages lists every registered stage sorted by name.
func (a *Application) Stages() []StageStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]StageStatus, 0, len(a.stages))
	for _, name := range a.sortedStageNames() {
		status := StageStatus{Name: name, External: a.external[name]}
		if lister, ok := a.stages[name].(interface{ Abilities() []string }); ok {
			status.Abilities = lister.Abilities()
		}
		out = append(out, status)
	}
	return out
}

func (a *Application) sortedStageNames() []string {
	names := make([]string, 0, len(a.stages))
	for name := range a.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Configuration returns a copy of the master configuration, or nil before
// InitConfiguration.
func (a *Application) Configuration() *configuration.Configuration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.configuration == nil {
		return nil
	}
	return a.configuration.Clone()
}

// Precedence returns the recorded levels per axis.
func (a *Application) Precedence() appconfig.Snapshot {
	return a.precedence.Snapshot()
}

// Context returns the application context.
func (a *Application) Context() *appcontext.Context {
	return a.appCtx
}

func (a *Application) OnForeground() {
	a.mu.Lock()
	a.isForeground = true
	a.mu.Unlock()
	a.logger.Info("Application moved to foreground")
}

func (a *Application) OnBackground() {
	a.mu.Lock()
	a.isForeground = false
	a.mu.Unlock()
	a.logger.Info("Application moved to background")
}

func (a *Application) IsForeground() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isForeground
}

// Stats returns application statistics
func (a *Application) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{
		Initialized: a.configuration != nil,
		Foreground:  a.isForeground,
		Stages:      len(a.stages),
		Updates:     a.updates,
	}
}

// Close detaches the application from its context.
func (a *Application) Close() {
	a.mu.Lock()
	unsubscribe := a.unsubscribe
	a.unsubscribe = nil
	a.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
