package bundle

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/arkui-x/app-framework-sub003/internal/shared/utils"
)

var (
	// ErrUnknownModule is returned when no HAP module matches a name.
	ErrUnknownModule = errors.New("unknown module")
	// ErrDuplicateModule is returned when a module name is registered twice.
	ErrDuplicateModule = errors.New("module already registered")
)

// HapModuleInfo describes one installed module of the bundle.
type HapModuleInfo struct {
	Name         string   `json:"name" yaml:"name" toml:"name"`
	BundleName   string   `json:"bundle_name" yaml:"bundle_name" toml:"bundle_name"`
	Type         string   `json:"type" yaml:"type" toml:"type"`
	Abilities    []string `json:"abilities" yaml:"abilities" toml:"abilities"`
	ResourcePath string   `json:"resource_path,omitempty" yaml:"resource_path" toml:"resource_path"`
	Source       string   `json:"source,omitempty" yaml:"-" toml:"-"`
}

// HasAbility reports whether the module declares ability.
func (h HapModuleInfo) HasAbility(ability string) bool {
	for _, a := range h.Abilities {
		if a == ability {
			return true
		}
	}
	return false
}

// Container resolves HAP module metadata.
type Container interface {
	GetHapModuleInfo(moduleName string) (HapModuleInfo, bool)
}

// Registry is an in-memory Container.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]HapModuleInfo
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]HapModuleInfo)}
}

// Register adds a module.
func (r *Registry) Register(info HapModuleInfo) error {
	if err := utils.ValidateModuleName(info.Name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[info.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, info.Name)
	}
	r.modules[info.Name] = info
	return nil
}

// GetHapModuleInfo returns the module registered under moduleName.
func (r *Registry) GetHapModuleInfo(moduleName string) (HapModuleInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.modules[moduleName]
	return info, ok
}

// List returns every module sorted by name.
func (r *Registry) List() []HapModuleInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]HapModuleInfo, 0, len(r.modules))
	for _, info := range r.modules {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}
