package configuration

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Configuration is a set of configuration entries keyed by the vocabulary
// in keys.go. Colour mode, direction, density and language are held as typed
// fields; every other key is kept as a raw string.
//
// A key is present only while it has a non-empty value. Configuration is not
// safe for concurrent use; the owner serializes access.
type Configuration struct {
	colorMode  ColorMode
	direction  Direction
	densityDPI int
	lang       language.Tag
	langSet    bool
	items      map[string]string
}

// New returns an empty configuration.
func New() *Configuration {
	return &Configuration{items: make(map[string]string)}
}

// FromMap builds a configuration from raw entries.
// Keys whose value is rejected by Add are returned sorted.
func FromMap(entries map[string]string) (*Configuration, []string) {
	c := New()
	var rejected []string
	for k, v := range entries {
		if v == "" {
			continue
		}
		if !c.Add(k, v) {
			rejected = append(rejected, k)
		}
	}
	sort.Strings(rejected)
	return c, rejected
}

// Add stores value under key. An empty value is a no-op. Values for typed
// keys must parse; otherwise the entry is rejected and Add returns false.
func (c *Configuration) Add(key, value string) bool {
	if key == "" || value == "" {
		return false
	}
	switch key {
	case KeyColorMode:
		mode, ok := ParseColorMode(value)
		if !ok {
			return false
		}
		c.colorMode = mode
	case KeyDirection:
		dir, ok := ParseDirection(value)
		if !ok {
			return false
		}
		c.direction = dir
	case KeyDensityDPI:
		dpi, err := strconv.Atoi(value)
		if err != nil || dpi <= 0 {
			return false
		}
		c.densityDPI = dpi
	case KeyLanguage:
		tag, err := language.Parse(value)
		if err != nil {
			return false
		}
		c.lang = tag
		c.langSet = true
	default:
		if c.items == nil {
			c.items = make(map[string]string)
		}
		c.items[key] = value
	}
	return true
}

// Get returns the value stored under key, or "" when absent.
func (c *Configuration) Get(key string) string {
	switch key {
	case KeyColorMode:
		return c.colorMode.String()
	case KeyDirection:
		return c.direction.String()
	case KeyDensityDPI:
		if c.densityDPI == 0 {
			return ""
		}
		return strconv.Itoa(c.densityDPI)
	case KeyLanguage:
		if !c.langSet {
			return ""
		}
		return c.lang.String()
	default:
		return c.items[key]
	}
}

// Has reports whether key holds a value.
func (c *Configuration) Has(key string) bool {
	return c.Get(key) != ""
}

// Remove deletes key. Removing an absent key is a no-op.
func (c *Configuration) Remove(key string) {
	switch key {
	case KeyColorMode:
		c.colorMode = ColorModeUnset
	case KeyDirection:
		c.direction = DirectionUnset
	case KeyDensityDPI:
		c.densityDPI = 0
	case KeyLanguage:
		c.lang = language.Und
		c.langSet = false
	default:
		delete(c.items, key)
	}
}

// Keys returns the present keys in sorted order.
func (c *Configuration) Keys() []string {
	keys := make([]string, 0, len(c.items)+4)
	for _, k := range []string{KeyColorMode, KeyDirection, KeyDensityDPI, KeyLanguage} {
		if c.Has(k) {
			keys = append(keys, k)
		}
	}
	for k := range c.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of present keys.
func (c *Configuration) Len() int {
	return len(c.Keys())
}

// IsEmpty reports whether no key is present.
func (c *Configuration) IsEmpty() bool {
	return c.Len() == 0
}

// Items returns a copy of all entries.
func (c *Configuration) Items() map[string]string {
	out := make(map[string]string)
	for _, k := range c.Keys() {
		out[k] = c.Get(k)
	}
	return out
}

// Clone returns a deep copy.
func (c *Configuration) Clone() *Configuration {
	clone := *c
	clone.items = make(map[string]string, len(c.items))
	for k, v := range c.items {
		clone.items[k] = v
	}
	return &clone
}

// UpdateConfigurationInfo applies delta over c key by key, last writer wins.
// Keys absent from delta are untouched.
func (c *Configuration) UpdateConfigurationInfo(delta *Configuration) {
	if delta == nil {
		return
	}
	for _, k := range delta.Keys() {
		c.Add(k, delta.Get(k))
	}
}

// Merge is an alias for UpdateConfigurationInfo.
func (c *Configuration) Merge(delta *Configuration) {
	c.UpdateConfigurationInfo(delta)
}

// Diff returns the keys of other whose value differs from c, sorted.
func (c *Configuration) Diff(other *Configuration) []string {
	if other == nil {
		return nil
	}
	var changed []string
	for _, k := range other.Keys() {
		if c.Get(k) != other.Get(k) {
			changed = append(changed, k)
		}
	}
	return changed
}

// Changes returns every key whose value differs between c and other,
// including keys present in only one of them, sorted. Diff only looks at
// the keys of other, which suits partial deltas; Changes compares whole
// configurations.
func (c *Configuration) Changes(other *Configuration) []string {
	if other == nil {
		other = New()
	}
	seen := make(map[string]struct{})
	var changed []string
	for _, cfg := range []*Configuration{c, other} {
		for _, k := range cfg.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if c.Get(k) != other.Get(k) {
				changed = append(changed, k)
			}
		}
	}
	sort.Strings(changed)
	return changed
}

// ColorMode returns the typed colour mode.
func (c *Configuration) ColorMode() ColorMode {
	return c.colorMode
}

// Direction returns the typed direction.
func (c *Configuration) Direction() Direction {
	return c.direction
}

// DensityDPI returns the density, or 0 when unset.
func (c *Configuration) DensityDPI() int {
	return c.densityDPI
}

// Language returns the locale tag and whether one is set.
func (c *Configuration) Language() (language.Tag, bool) {
	return c.lang, c.langSet
}

// FontSizeScale returns the system font scale when present and numeric.
func (c *Configuration) FontSizeScale() (float64, bool) {
	v := c.items[KeyFontSizeScale]
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// AppFontFollowsSystem reports whether the app font scale tracks the system.
func (c *Configuration) AppFontFollowsSystem() bool {
	return c.items[KeyAppFontSizeScale] == ValueFollowSystem
}

// MarshalJSON encodes the configuration as a flat object.
func (c *Configuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Items())
}

// UnmarshalJSON decodes a flat object; entries Add rejects are reported.
func (c *Configuration) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, rejected := FromMap(raw)
	*c = *decoded
	if len(rejected) > 0 {
		return fmt.Errorf("invalid configuration values for keys: %s", strings.Join(rejected, ", "))
	}
	return nil
}

func (c *Configuration) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range c.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c.Get(k))
	}
	b.WriteByte('}')
	return b.String()
}
