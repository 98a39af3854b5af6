// Package period derives the calendar-month accounting period used to
// namespace all quota documents. A new month simply has no documents yet,
// which is what resets the counters.
package period

import (
	"fmt"
	"regexp"
	"time"

	"github.com/wordbridge/linguameter/internal/clock"
	"go.uber.org/fx"
)

var keyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Key formats t as a YYYY-MM period key with a zero-padded month.
func Key(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// Valid reports whether s is a well-formed period key.
func Valid(s string) bool {
	return keyPattern.MatchString(s)
}

// Resolver yields the current accounting period from the wall clock.
type Resolver struct {
	clock clock.Clock
}

func NewResolver(c clock.Clock) *Resolver {
	return &Resolver{clock: c}
}

func (r *Resolver) Current() string {
	return Key(r.clock.Now())
}

var Module = fx.Module("period",
	fx.Provide(NewResolver),
)
