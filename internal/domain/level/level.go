package level

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLevel is returned when a level name cannot be parsed.
var ErrInvalidLevel = errors.New("invalid set level")

// SetLevel ranks the provenance of a configuration value.
// Higher ordinals carry more authority. The zero value is System.
type SetLevel struct {
	ord uint8
}

var (
	// System is the lowest level, used for values broadcast by the platform.
	System = SetLevel{ord: 0}
	// SA is used by system-privileged services.
	SA = SetLevel{ord: 1}
	// Application is used by the application itself.
	Application = SetLevel{ord: 2}
)

// Count is the number of distinct levels.
const Count = 3

var names = [Count]string{"system", "sa", "application"}

// All returns every level in ascending order.
func All() []SetLevel {
	return []SetLevel{System, SA, Application}
}

// Index returns the ordinal, always within [0, Count).
func (l SetLevel) Index() int {
	return int(l.ord)
}

// Less reports whether l ranks below other.
func (l SetLevel) Less(other SetLevel) bool {
	return l.ord < other.ord
}

// Greater reports whether l ranks above other.
func (l SetLevel) Greater(other SetLevel) bool {
	return l.ord > other.ord
}

func (l SetLevel) String() string {
	return names[l.ord]
}

// Parse converts a level name into a SetLevel.
func Parse(s string) (SetLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "system":
		return System, nil
	case "sa":
		return SA, nil
	case "application", "app":
		return Application, nil
	default:
		return System, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l SetLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *SetLevel) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
