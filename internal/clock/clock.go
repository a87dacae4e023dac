// Package clock provides the property-local notion of "now". The snapshot date
// of an upload and the processing date of relative-month labels come from it.
package clock

import (
	"time"

	"github.com/smallbiznis/amber/internal/config"
	"go.uber.org/fx"
)

type Clock interface {
	Now() time.Time
}

// System reads the wall clock in a fixed location.
type System struct {
	loc *time.Location
}

func NewSystem(loc *time.Location) *System {
	if loc == nil {
		loc = time.UTC
	}
	return &System{loc: loc}
}

func (c *System) Now() time.Time {
	return time.Now().In(c.loc)
}

// Today returns the calendar date of c.Now() at midnight UTC.
func Today(c Clock) time.Time {
	y, m, d := c.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var Module = fx.Module("clock",
	fx.Provide(func(cfg config.Config) Clock {
		return NewSystem(cfg.Location())
	}),
)
