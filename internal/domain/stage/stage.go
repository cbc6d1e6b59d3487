package stage

import (
	"sort"
	"sync"

	"github.com/arkui-x/app-framework-sub003/internal/domain/bundle"
	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/arkui-x/app-framework-sub003/internal/domain/resource"
	"go.uber.org/zap"
)

// AbilityStage is the runtime unit of one loaded HAP module. It owns its own
// copy of the configuration and the module's resource manager.
type AbilityStage struct {
	mu        sync.RWMutex
	info      bundle.HapModuleInfo
	config    *configuration.Configuration
	resMgr    resource.Manager
	abilities map[string]struct{}
	updates   int
	logger    *zap.Logger
}

// New creates a stage seeded with cfg. A nil res gets an in-memory store.
func New(info bundle.HapModuleInfo, cfg *configuration.Configuration, res resource.Manager, logger *zap.Logger) *AbilityStage {
	if cfg == nil {
		cfg = configuration.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if res == nil {
		res = resource.NewStore(resource.FromConfiguration(cfg, resource.ResConfig{}))
	}
	return &AbilityStage{
		info:      info,
		config:    cfg.Clone(),
		resMgr:    res,
		abilities: make(map[string]struct{}),
		logger:    logger.With(zap.String("module", info.Name)),
	}
}

// ModuleName returns the HAP module name.
func (s *AbilityStage) ModuleName() string {
	return s.info.Name
}

// HapModuleInfo returns the module metadata.
func (s *AbilityStage) HapModuleInfo() bundle.HapModuleInfo {
	return s.info
}

// OnConfigurationUpdate merges delta into the stage configuration and
// rebuilds the resource config when any value actually changed.
func (s *AbilityStage) OnConfigurationUpdate(delta *configuration.Configuration) {
	if delta == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.config.Diff(delta)
	s.config.UpdateConfigurationInfo(delta)
	s.updates++

	if len(changed) == 0 {
		s.logger.Debug("Configuration unchanged for stage")
		return
	}

	if err := s.resMgr.UpdateResConfig(resource.FromConfiguration(s.config, s.resMgr.ResConfig())); err != nil {
		s.logger.Error("Failed to update resource config", zap.Error(err))
		return
	}
	s.logger.Debug("Stage configuration updated", zap.Strings("changed", changed))
}

// AddAbility records a running ability.
func (s *AbilityStage) AddAbility(name string) {
	s.mu.Lock()
	s.abilities[name] = struct{}{}
	s.mu.Unlock()
}

// RemoveAbility drops an ability and reports whether it was present.
func (s *AbilityStage) RemoveAbility(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.abilities[name]; !ok {
		return false
	}
	delete(s.abilities, name)
	return true
}

// IsEmpty reports whether no ability is running in the stage.
func (s *AbilityStage) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.abilities) == 0
}

// Abilities returns the running abilities, sorted.
func (s *AbilityStage) Abilities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.abilities))
	for name := range s.abilities {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Configuration returns a copy of the stage configuration.
func (s *AbilityStage) Configuration() *configuration.Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Clone()
}

// ResourceManager returns the stage's resource manager.
func (s *AbilityStage) ResourceManager() resource.Manager {
	return s.resMgr
}

// Updates returns how many configuration updates the stage received.
func (s *AbilityStage) Updates() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updates
}
