package formats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name" yaml:"name" toml:"name"`
	Items []string `json:"items" yaml:"items" toml:"items"`
}

func TestDecodeByExtension(t *testing.T) {
	tests := []struct {
		path string
		data string
	}{
		{"m.yaml", "name: entry\nitems: [a, b]\n"},
		{"m.YML", "name: entry\nitems:\n  - a\n  - b\n"},
		{"m.toml", "name = \"entry\"\nitems = [\"a\", \"b\"]\n"},
		{"m.json", `{"name":"entry","items":["a","b"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var s sample
			require.NoError(t, Decode(tt.path, []byte(tt.data), &s))
			assert.Equal(t, sample{Name: "entry", Items: []string{"a", "b"}}, s)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	var s sample
	assert.ErrorIs(t, Decode("m.ini", []byte("x=1"), &s), ErrUnsupportedFormat)
	assert.Error(t, Decode("m.json", []byte("{"), &s))
	assert.Error(t, Decode("m.toml", []byte("name = "), &s))
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "module.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: entry\n"), 0o644))

	var s sample
	require.NoError(t, DecodeFile(path, &s))
	assert.Equal(t, "entry", s.Name)

	assert.Error(t, DecodeFile(filepath.Join(dir, "missing.yaml"), &s))
}
