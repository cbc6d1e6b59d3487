package bundle

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arkui-x/app-framework-sub003/internal/shared/formats"
	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// ManifestPattern matches module manifests below a bundle directory.
const ManifestPattern = "**/module.{yaml,yml,toml,json}"

// LoadResult summarizes a LoadDir run.
type LoadResult struct {
	Loaded int
	Failed int
}

// Loader discovers module manifests on disk and registers them.
type Loader struct {
	registry *Registry
	logger   *zap.Logger
}

// NewLoader creates a loader that fills registry.
func NewLoader(registry *Registry, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{registry: registry, logger: logger}
}

// LoadDir registers every manifest below dir. A missing directory is not an
// error. Manifests that fail to parse or register are counted and skipped.
func (l *Loader) LoadDir(dir string) (LoadResult, error) {
	var result LoadResult

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		l.logger.Warn("Bundle directory not found", zap.String("dir", dir))
		return result, nil
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(dir, ManifestPattern))
	if err != nil {
		return result, fmt.Errorf("scan %s: %w", dir, err)
	}

	for _, path := range matches {
		if err := l.loadManifest(path); err != nil {
			l.logger.Warn("Failed to load module manifest", zap.String("path", path), zap.Error(err))
			result.Failed++
			continue
		}
		result.Loaded++
	}

	l.logger.Info("Bundle modules loaded",
		zap.String("dir", dir),
		zap.Int("loaded", result.Loaded),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (l *Loader) loadManifest(path string) error {
	var info HapModuleInfo
	if err := formats.DecodeFile(path, &info); err != nil {
		return err
	}
	if info.Name == "" {
		info.Name = filepath.Base(filepath.Dir(path))
	}
	info.Source = path
	return l.registry.Register(info)
}
