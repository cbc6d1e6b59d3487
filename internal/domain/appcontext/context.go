package appcontext

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/arkui-x/app-framework-sub003/internal/domain/resource"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// ErrInvalidFontScale is returned for a non-positive font scale.
var ErrInvalidFontScale = errors.New("font size scale must be positive")

// Observer receives configuration deltas requested by the application.
type Observer interface {
	OnAppConfigUpdate(delta *configuration.Configuration)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(delta *configuration.Configuration)

func (f ObserverFunc) OnAppConfigUpdate(delta *configuration.Configuration) { f(delta) }

// Context is the application-wide context handed to application code.
// Changes the application asks for are published to observers rather than
// applied directly, so they go through the same precedence rules as system
// updates.
type Context struct {
	mu         sync.RWMutex
	bundleName string
	config     *configuration.Configuration
	resMgr     resource.Manager
	observers  map[uint64]Observer
	order      []uint64
	nextID     uint64
	logger     *zap.Logger
}

// New creates a context for bundleName.
func New(bundleName string, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		bundleName: bundleName,
		observers:  make(map[uint64]Observer),
		logger:     logger,
	}
}

// BundleName returns the bundle this context belongs to.
func (c *Context) BundleName() string {
	return c.bundleName
}

// SetConfiguration stores a snapshot of cfg and refreshes the attached
// resource manager.
func (c *Context) SetConfiguration(cfg *configuration.Configuration) {
	if cfg == nil {
		c.logger.Warn("Ignoring nil configuration")
		return
	}
	snapshot := cfg.Clone()

	c.mu.Lock()
	c.config = snapshot
	resMgr := c.resMgr
	c.mu.Unlock()

	if resMgr == nil {
		return
	}
	if err := resMgr.UpdateResConfig(resource.FromConfiguration(snapshot, resMgr.ResConfig())); err != nil {
		c.logger.Error("Failed to refresh resource config", zap.Error(err))
	}
}

// GetConfiguration returns a copy of the last stored configuration, or nil.
func (c *Context) GetConfiguration() *configuration.Configuration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.config == nil {
		return nil
	}
	return c.config.Clone()
}

func (c *Context) SetResourceManager(mgr resource.Manager) {
	c.mu.Lock()
	c.resMgr = mgr
	c.mu.Unlock()
}

func (c *Context) GetResourceManager() resource.Manager {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resMgr
}

// Subscribe registers obs and returns a function that removes it.
// Observers are notified in subscription order.
func (c *Context) Subscribe(obs Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	subID := c.nextID
	c.observers[subID] = obs
	c.order = append(c.order, subID)

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(subID) })
	}
}

func (c *Context) unsubscribe(subID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.observers, subID)
	for i, id := range c.order {
		if id == subID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// SetColorMode asks for an application-level colour mode. ColorModeAuto
// hands the decision back to lower levels.
func (c *Context) SetColorMode(mode configuration.ColorMode) {
	delta := configuration.New()
	delta.Add(configuration.KeyColorMode, mode.String())
	c.publish("SetColorMode", delta)
}

// SetLanguage asks for an application-level language.
func (c *Context) SetLanguage(tag string) error {
	parsed, err := language.Parse(tag)
	if err != nil {
		return fmt.Errorf("invalid language %q: %w", tag, err)
	}
	delta := configuration.New()
	delta.Add(configuration.KeyLanguage, parsed.String())
	c.publish("SetLanguage", delta)
	return nil
}

// SetFont asks for an application font.
func (c *Context) SetFont(font string) {
	delta := configuration.New()
	delta.Add(configuration.KeyFont, font)
	c.publish("SetFont", delta)
}

// SetFontSizeScale pins the application font scale.
func (c *Context) SetFontSizeScale(scale float64) error {
	if scale <= 0 {
		return ErrInvalidFontScale
	}
	delta := configuration.New()
	delta.Add(configuration.KeyAppFontSizeScale, strconv.FormatFloat(scale, 'f', -1, 64))
	c.publish("SetFontSizeScale", delta)
	return nil
}

// FollowSystemFontSize makes the application font scale track the system.
func (c *Context) FollowSystemFontSize() {
	delta := configuration.New()
	delta.Add(configuration.KeyAppFontSizeScale, configuration.ValueFollowSystem)
	c.publish("FollowSystemFontSize", delta)
}

func (c *Context) publish(op string, delta *configuration.Configuration) {
	if delta.IsEmpty() {
		c.logger.Warn("Empty configuration request", zap.String("op", op))
		return
	}

	c.mu.RLock()
	observers := make([]Observer, 0, len(c.order))
	for _, id := range c.order {
		observers = append(observers, c.observers[id])
	}
	c.mu.RUnlock()

	if len(observers) == 0 {
		c.logger.Warn("No configuration observer registered", zap.String("op", op))
		return
	}

	c.logger.Debug("Publishing application configuration request",
		zap.String("op", op),
		zap.Stringer("delta", delta))
	for _, obs := range observers {
		obs.OnAppConfigUpdate(delta.Clone())
	}
}
