package tz

import (
	"errors"
	"fmt"
	"time"

	appLog "confcal/internal/log"
)

// ErrInvalidMoment indicates a date+time pair that does not compose into a
// real calendar moment (bad digits, nonexistent date, etc).
var ErrInvalidMoment = errors.New("invalid calendar moment")

const momentLayout = "2006-01-02T15:04"

// Converter translates wall-clock moments between the zone program times are
// authored in (origin) and the zone the calendar is rendered in (user).
//
// When a zone name cannot be resolved the converter degrades: the failed
// side falls back to the local system zone and a capability warning is
// logged. With both sides degraded, conversions are identity operations.
type Converter struct {
	origin *time.Location
	user   *time.Location

	degraded bool
}

// New resolves the named IANA zones. Unresolvable names degrade to
// time.Local rather than failing the pipeline.
func New(originName, userName string) *Converter {
	c := &Converter{}
	c.origin = c.loadZone(originName)
	c.user = c.loadZone(userName)
	return c
}

// NewFromLocations builds a converter from already-resolved locations.
func NewFromLocations(origin, user *time.Location) *Converter {
	if origin == nil {
		origin = time.Local
	}
	if user == nil {
		user = time.Local
	}
	return &Converter{origin: origin, user: user}
}

func (c *Converter) loadZone(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Warn("timezone unavailable; falling back to local zone", "zone", name, "err", err)
		c.degraded = true
		return time.Local
	}
	return loc
}

// Degraded reports whether any zone lookup fell back to the local zone.
func (c *Converter) Degraded() bool { return c.degraded }

// Origin returns the origin-zone location.
func (c *Converter) Origin() *time.Location { return c.origin }

// User returns the display-zone location.
func (c *Converter) User() *time.Location { return c.user }

// ParseOrigin composes a date ("2006-01-02") and clock ("15:04") pair and
// interprets it in the origin zone. Returns ErrInvalidMoment (wrapped with
// the offending input) when the composition does not parse.
func (c *Converter) ParseOrigin(date, clock string) (time.Time, error) {
	composed := date + "T" + clock
	t, err := time.ParseInLocation(momentLayout, composed, c.origin)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMoment, composed)
	}
	return t, nil
}

// ParseUserDate interprets a "2006-01-02" date as midnight in the user zone.
func (c *Converter) ParseUserDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", date, c.user)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMoment, date)
	}
	return t, nil
}

// ToUser re-expresses an instant in the user zone.
func (c *Converter) ToUser(t time.Time) time.Time { return t.In(c.user) }

// ToOrigin re-expresses an instant in the origin zone.
func (c *Converter) ToOrigin(t time.Time) time.Time { return t.In(c.origin) }
