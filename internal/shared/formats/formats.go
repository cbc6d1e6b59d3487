// Package formats decodes structured files by extension.
package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// ErrUnsupportedFormat is returned for an extension with no decoder.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extensions lists the extensions Decode understands.
var Extensions = []string{".yaml", ".yml", ".toml", ".json"}

// Decode unmarshals data into v using the decoder for path's extension.
func Decode(path string, data []byte, v interface{}) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("YAML parse error in %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("TOML parse error in %s: %w", path, err)
		}
	case ".json":
		if err := sonic.Unmarshal(data, v); err != nil {
			return fmt.Errorf("JSON parse error in %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// DecodeFile reads path and decodes it into v.
func DecodeFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(path, data, v)
}
