package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/arkui-x/app-framework-sub003/internal/domain/level"
	"github.com/arkui-x/app-framework-sub003/internal/shared/formats"
	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces editor save bursts.
const DefaultDebounce = 200 * time.Millisecond

// ErrNoPath is returned when the source has nothing to watch.
var ErrNoPath = errors.New("system configuration path is empty")

// Updater receives configuration deltas.
type Updater interface {
	OnConfigurationUpdate(delta *configuration.Configuration, lvl level.SetLevel) bool
}

// Stats reports source activity.
type Stats struct {
	Reads    int
	Applied  int
	Rejected int
	Errors   int
	LastRead time.Time
}

// SystemSource watches one configuration file.
type SystemSource struct {
	path     string
	updater  Updater
	debounce time.Duration
	clock    clockwork.Clock
	logger   *zap.Logger

	mu      sync.Mutex
	last    map[string]string
	stats   Stats
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewSystemSource creates a source for path. A non-positive debounce uses
// DefaultDebounce.
func NewSystemSource(path string, updater Updater, debounce time.Duration, logger *zap.Logger) (*SystemSource, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return &SystemSource{
		path:     abs,
		updater:  updater,
		debounce: debounce,
		clock:    clockwork.NewRealClock(),
		logger:   logger.With(zap.String("file", abs)),
	}, nil
}

// WithClock replaces the clock driving the debounce timer. Call it before
// Start.
func (s *SystemSource) WithClock(clock clockwork.Clock) *SystemSource {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Path returns the watched file.
func (s *SystemSource) Path() string {
	return s.path
}

// Start reads the file once and begins watching its directory. The
// directory is watched rather than the file so atomic renames by editors
// are seen.
func (s *SystemSource) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		s.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}
	s.watcher = w
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	if _, err := s.Sync(); err != nil {
		s.logger.Warn("Initial system configuration read failed", zap.Error(err))
	}

	go s.run(ctx)
	s.logger.Info("Watching system configuration")
	return nil
}

// Stop ends the watch and waits for the event loop to exit.
func (s *SystemSource) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh
	if err := s.watcher.Close(); err != nil {
		s.logger.Warn("Failed to close watcher", zap.Error(err))
	}
}

func (s *SystemSource) run(ctx context.Context) {
	defer close(s.doneCh)

	var fire <-chan time.Time
	var timer clockwork.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = s.clock.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.Chan()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.mu.Lock()
			s.stats.Errors++
			s.mu.Unlock()
			s.logger.Warn("Watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			if _, err := s.Sync(); err != nil {
				s.logger.Warn("System configuration reload failed", zap.Error(err))
			}
		}
	}
}

// Sync reads the file and submits changed entries at System level. It
// reports whether the application accepted an update.
func (s *SystemSource) Sync() (bool, error) {
	entries := make(map[string]string)
	if err := formats.DecodeFile(s.path, &entries); err != nil {
		s.mu.Lock()
		s.stats.Errors++
		s.mu.Unlock()
		return false, err
	}

	parsed, rejected := configuration.FromMap(entries)
	if len(rejected) > 0 {
		sort.Strings(rejected)
		s.logger.Warn("Ignoring invalid system configuration entries", zap.Strings("keys", rejected))
	}
	current := parsed.Items()

	s.mu.Lock()
	delta := configuration.New()
	for k, v := range current {
		if prev, ok := s.last[k]; !ok || prev != v {
			delta.Add(k, v)
		}
	}
	s.last = current
	s.stats.Reads++
	s.stats.Rejected += len(rejected)
	s.stats.LastRead = s.clock.Now()
	s.mu.Unlock()

	if delta.IsEmpty() {
		s.logger.Debug("System configuration unchanged")
		return false, nil
	}

	applied := s.updater.OnConfigurationUpdate(delta, level.System)
	if applied {
		s.mu.Lock()
		s.stats.Applied++
		s.mu.Unlock()
	}
	s.logger.Info("System configuration submitted",
		zap.Strings("keys", delta.Keys()),
		zap.Bool("applied", applied))
	return applied, nil
}

// Stats returns a copy of the source counters.
func (s *SystemSource) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
