package grid

import (
	"fmt"
	"math"
	"time"

	appLog "confcal/internal/log"
)

// ValidRange is the inclusive day-aligned window, in the display zone, that
// view navigation cannot exceed. Start is a day start, End an end of day.
type ValidRange struct {
	Start time.Time
	End   time.Time
}

// parseValidRange interprets the configured dates at origin-zone midnight,
// converts them to the display zone, and day-aligns there. An absent or
// unparsable range degrades to the loaded events' span (or today when there
// are none) so the calendar always renders.
func (c *Calendar) parseValidRange(r DateRange) ValidRange {
	var vr ValidRange

	if r.Start != "" && r.End != "" {
		start, serr := c.conv.ParseOrigin(r.Start, "00:00")
		end, eerr := c.conv.ParseOrigin(r.End, "00:00")
		if serr == nil && eerr == nil && !end.Before(start) {
			vr.Start = c.dayStart(c.conv.ToUser(start))
			vr.End = c.endOfDay(c.conv.ToUser(end))
			return vr
		}
		appLog.Warn("invalid valid_range; deriving from events", "start", r.Start, "end", r.End)
	}

	if len(c.raw) > 0 {
		minStart := c.conv.ToUser(c.raw[0].Start)
		maxEnd := c.conv.ToUser(c.raw[0].End)
		for _, ev := range c.raw[1:] {
			if s := c.conv.ToUser(ev.Start); s.Before(minStart) {
				minStart = s
			}
			if e := c.conv.ToUser(ev.End); e.After(maxEnd) {
				maxEnd = e
			}
		}
		return ValidRange{Start: c.dayStart(minStart), End: c.endOfDay(maxEnd)}
	}

	now := time.Now().In(c.conv.User())
	return ValidRange{Start: c.dayStart(now), End: c.endOfDay(now)}
}

func (c *Calendar) endOfDay(t time.Time) time.Time {
	return c.dayStart(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// ClampDayPointer clamps an arbitrary moment into the valid range at day
// granularity, returning a day start in the display zone.
func (c *Calendar) ClampDayPointer(t time.Time) time.Time {
	clamped := c.dayStart(t)
	if clamped.Before(c.validRange.Start) {
		clamped = c.validRange.Start
	}
	if clamped.After(c.validRange.End) {
		clamped = c.validRange.End
	}
	return c.dayStart(clamped)
}

// Window returns the ordered day starts of the current view.
func (c *Calendar) Window() []time.Time {
	return c.BuildWindow(c.currentDate, c.viewDayCount())
}

// BuildWindow produces dayCount consecutive day starts beginning at the
// clamped pointer. When the span would run past the valid range the window
// is pulled backward to fit, never truncated: the returned window is always
// fully inside the valid range, which is what navigation enablement keys
// off.
func (c *Calendar) BuildWindow(pointer time.Time, dayCount int) []time.Time {
	if dayCount < 1 {
		dayCount = 1
	}

	base := c.ClampDayPointer(pointer)

	latestAllowedStart := c.latestAllowedStart(dayCount)
	if base.After(latestAllowedStart) {
		base = latestAllowedStart
	}

	dates := make([]time.Time, 0, dayCount)
	for i := 0; i < dayCount; i++ {
		dates = append(dates, base.AddDate(0, 0, i))
	}
	return dates
}

func (c *Calendar) latestAllowedStart(dayCount int) time.Time {
	latest := c.dayStart(c.validRange.End).AddDate(0, 0, -(dayCount - 1))
	if latest.Before(c.validRange.Start) {
		latest = c.validRange.Start
	}
	return latest
}

func (c *Calendar) viewDayCount() int {
	if v, ok := c.views[c.currentView]; ok && v.DurationDays > 0 {
		return v.DurationDays
	}
	return 1
}

// resolveViews copies the configured views, materializing fit-to-content
// durations (DurationDays == 0) from the valid range and the loaded events.
func (c *Calendar) resolveViews() {
	c.views = make(map[string]ViewDef, len(c.opts.Views))
	for name, def := range c.opts.Views {
		if def.DurationDays <= 0 {
			def.DurationDays = c.fitDurationDays()
		}
		c.views[name] = def
	}
	if len(c.views) == 0 {
		c.views["Day1"] = ViewDef{DurationDays: 1, ButtonText: "1 Day"}
	}
}

// fitDurationDays is the full valid-range span in days, shrunk to the last
// event ending strictly inside the range when that event ends early. This
// trims trailing empty days from the overview view.
func (c *Calendar) fitDurationDays() int {
	startDay := c.dayStart(c.validRange.Start)
	endDay := c.dayStart(c.validRange.End)
	duration := int(endDay.Sub(startDay).Hours()/24) + 1

	var lastEventEnd time.Time
	for _, ev := range c.convertAll(c.raw) {
		if ev.StartUser.After(c.validRange.Start) && ev.EndUser.Before(c.validRange.End) {
			if lastEventEnd.IsZero() || ev.EndUser.After(lastEventEnd) {
				lastEventEnd = ev.EndUser
			}
		}
	}
	if !lastEventEnd.IsZero() {
		days := int(math.Ceil(lastEventEnd.Sub(c.validRange.Start).Hours() / 24))
		if days >= 1 && days < duration {
			duration = days
		}
	}
	return duration
}

// navEnablement mirrors the clamping rules: prev is possible while the
// pointer sits after the range start, next while a full window still fits
// ahead of it.
func (c *Calendar) navEnablement(dayCount int) (prev, next bool) {
	base := c.dayStart(c.currentDate)
	prev = base.After(c.validRange.Start)
	next = base.Before(c.latestAllowedStart(dayCount))
	return prev, next
}

// viewTitle formats the header title for the window's date span.
func viewTitle(dates []time.Time) string {
	if len(dates) == 0 {
		return ""
	}
	start := dates[0]
	end := dates[len(dates)-1]

	if start.Equal(end) {
		return start.Format("January 2, 2006")
	}
	if start.Month() == end.Month() && start.Year() == end.Year() {
		return fmt.Sprintf("%s %d-%d, %d", start.Format("Jan"), start.Day(), end.Day(), start.Year())
	}
	return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
}
