// Package id generates sortable identifiers for configuration updates.
//
// Update ids are ULIDs prefixed with "upd_". Ids from one generator are
// strictly increasing, so log lines for consecutive updates sort in the
// order the application accepted them.
package id

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid/v2"
)

// UpdatePrefix tags update ids.
const UpdatePrefix = "upd"

// ErrNotUpdateID is returned by ParseUpdateID for foreign strings.
var ErrNotUpdateID = errors.New("not an update id")

// UpdateID identifies one configuration update as it flows through the
// filters, the merge and the stage broadcast.
type UpdateID string

func (u UpdateID) String() string { return string(u) }

// ULID returns the id without its prefix.
func (u UpdateID) ULID() (ulid.ULID, error) {
	raw, ok := strings.CutPrefix(string(u), UpdatePrefix+"_")
	if !ok {
		return ulid.ULID{}, ErrNotUpdateID
	}
	return ulid.ParseStrict(raw)
}

// Timestamp returns when the id was generated, to the millisecond.
func (u UpdateID) Timestamp() (time.Time, error) {
	parsed, err := u.ULID()
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// ParseUpdateID validates s as an update id.
func ParseUpdateID(s string) (UpdateID, error) {
	u := UpdateID(s)
	if _, err := u.ULID(); err != nil {
		return "", err
	}
	return u, nil
}

// Generator hands out monotonic update ids.
type Generator struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	entropy *ulid.MonotonicEntropy
}

// NewGenerator creates a generator reading time from clock; nil uses the
// real clock.
func NewGenerator(clock clockwork.Clock) *Generator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Generator{
		clock:   clock,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Next returns a new update id. Within one millisecond the random part is
// incremented, keeping ids ordered.
func (g *Generator) Next() UpdateID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return UpdateID(UpdatePrefix + "_" + ulid.MustNew(ulid.Timestamp(g.clock.Now()), g.entropy).String())
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// NewUpdateID returns an id from the process generator.
func NewUpdateID() UpdateID {
	once.Do(func() {
		defaultGenerator = NewGenerator(nil)
	})
	return defaultGenerator.Next()
}
