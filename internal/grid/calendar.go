package grid

import (
	"sort"
	"strings"
	"time"

	appLog "confcal/internal/log"
	"confcal/internal/model"
	"confcal/internal/tz"
)

// ViewDef is one named view duration. DurationDays == 0 means fit-to-content:
// the duration is derived from the valid range and the loaded events.
type ViewDef struct {
	DurationDays int
	ButtonText   string
}

// DateRange is a pair of "2006-01-02" dates, inclusive.
type DateRange struct {
	Start string
	End   string
}

// Options is the configuration surface of one calendar instance.
type Options struct {
	OriginZone string
	UserZone   string

	InitialDate string // "2006-01-02", interpreted in the origin zone
	InitialView string

	SlotMinTime   string // "15:04"
	SlotMaxTime   string
	AutoFitEvents bool
	HourHeightPx  float64

	ValidRange DateRange
	Views      map[string]ViewDef
}

// Calendar owns the full derived-data chain for one event set: merged
// events, their display-zone conversions, the navigation state, and the
// per-render layout. All operations are synchronous; callers serialize
// re-entrant render triggers.
type Calendar struct {
	opts Options
	conv *tz.Converter

	raw    []model.MergedEvent    // all merged events from the load
	events []model.ConvertedEvent // filtered + converted for rendering
	filter string

	validRange ValidRange
	views      map[string]ViewDef

	currentView string
	currentDate time.Time // day start in the display zone

	// Configured slot window, and the live one (autofit adjusts the live
	// pair only).
	slotMinConfigured int
	slotMaxConfigured int
	slotMin           int
	slotMax           int

	hourHeightPx float64
}

// ViewResult is one full render pass, consumed by the rendering layer.
type ViewResult struct {
	Days  []model.DayEvents
	Title string

	SlotMinMinutes int
	SlotMaxMinutes int
	VisibleMinutes int
	DayHeightPx    float64

	PrevEnabled bool
	NextEnabled bool

	DisplayZone string
}

// New builds a calendar for the given merged events, resolving zones by
// name. Unresolvable zones degrade per tz.New.
func New(events []model.MergedEvent, opts Options) *Calendar {
	return NewWithConverter(events, opts, tz.New(opts.OriginZone, opts.UserZone))
}

// NewWithConverter is New with an explicit zone converter.
func NewWithConverter(events []model.MergedEvent, opts Options, conv *tz.Converter) *Calendar {
	c := &Calendar{
		opts: opts,
		conv: conv,
		raw:  events,
	}

	if c.opts.HourHeightPx <= 0 {
		c.opts.HourHeightPx = 60
	}
	c.hourHeightPx = c.opts.HourHeightPx

	c.slotMinConfigured = timeStringToMinutes(opts.SlotMinTime)
	c.slotMaxConfigured = timeStringToMinutes(opts.SlotMaxTime)
	if c.slotMaxConfigured <= c.slotMinConfigured {
		c.slotMaxConfigured = c.slotMinConfigured + 24*60
	}
	c.slotMin = c.slotMinConfigured
	c.slotMax = c.slotMaxConfigured

	c.validRange = c.parseValidRange(opts.ValidRange)
	c.resolveViews()

	c.currentView = opts.InitialView
	if _, ok := c.views[c.currentView]; !ok {
		c.currentView = c.firstViewName()
	}

	c.currentDate = c.initialDayPointer(opts.InitialDate)
	c.refreshEvents()

	return c
}

// SetEvents replaces the event set after a data refresh, keeping the
// instance's navigation state.
func (c *Calendar) SetEvents(events []model.MergedEvent) {
	c.raw = events
	c.refreshEvents()
	c.resolveViews()
}

// SetDisplayZone switches the display zone in place, recomputing the
// conversion/window/layout chain while preserving the instance identity.
func (c *Calendar) SetDisplayZone(zone string) {
	c.opts.UserZone = zone
	c.conv = tz.New(c.opts.OriginZone, zone)
	c.validRange = c.parseValidRange(c.opts.ValidRange)
	c.refreshEvents()
	c.resolveViews()
	c.currentDate = c.ClampDayPointer(c.currentDate)
}

// SetView selects a named view; unknown names fall back to the first
// configured view.
func (c *Calendar) SetView(name string) {
	if _, ok := c.views[name]; ok {
		c.currentView = name
		return
	}
	c.currentView = c.firstViewName()
}

// ChangeDate shifts the day pointer by the given number of days, clamped to
// the valid range.
func (c *Calendar) ChangeDate(days int) {
	c.currentDate = c.ClampDayPointer(c.currentDate.AddDate(0, 0, days))
}

// GoToDate moves the day pointer to the given instant's day, clamped to the
// valid range.
func (c *Calendar) GoToDate(t time.Time) {
	c.currentDate = c.ClampDayPointer(t)
}

// SetFilter narrows the rendered event set to those matching the query
// (case-insensitive substring across title, subtitle, note, and all detail
// fields). An empty query restores the full set.
func (c *Calendar) SetFilter(query string) {
	c.filter = strings.ToLower(strings.TrimSpace(query))
	c.refreshEvents()
}

// CurrentView returns the active view name.
func (c *Calendar) CurrentView() string { return c.currentView }

// Views returns the resolved view definitions.
func (c *Calendar) Views() map[string]ViewDef {
	out := make(map[string]ViewDef, len(c.views))
	for name, def := range c.views {
		out[name] = def
	}
	return out
}

// DisplayZone returns the active display zone.
func (c *Calendar) DisplayZone() *time.Location { return c.conv.User() }

// Zones returns the calendar's zone converter.
func (c *Calendar) Zones() *tz.Converter { return c.conv }

// CurrentDate returns the active day pointer (day start, display zone).
func (c *Calendar) CurrentDate() time.Time { return c.currentDate }

// ValidRangeSpan returns the parsed valid range.
func (c *Calendar) ValidRangeSpan() ValidRange { return c.validRange }

// Events returns the converted events currently eligible for rendering.
func (c *Calendar) Events() []model.ConvertedEvent { return c.events }

// View runs one full render pass: window, optional autofit, per-day clip,
// and lane layout.
func (c *Calendar) View() ViewResult {
	dates := c.Window()

	if c.opts.AutoFitEvents && c.filter == "" {
		c.autoFitSlotWindow(dates)
	} else {
		c.slotMin = c.slotMinConfigured
		c.slotMax = c.slotMaxConfigured
	}

	visible := c.slotMax - c.slotMin
	dayHeight := float64(visible) / 60 * c.hourHeightPx

	days := make([]model.DayEvents, 0, len(dates))
	for _, d := range dates {
		entries := c.clipDay(d)
		entries = layoutDay(entries, c.slotMin, float64(visible), dayHeight)
		days = append(days, model.DayEvents{Date: d, Entries: entries})
	}

	prev, next := c.navEnablement(len(dates))

	return ViewResult{
		Days:           days,
		Title:          viewTitle(dates),
		SlotMinMinutes: c.slotMin,
		SlotMaxMinutes: c.slotMax,
		VisibleMinutes: visible,
		DayHeightPx:    dayHeight,
		PrevEnabled:    prev,
		NextEnabled:    next,
		DisplayZone:    c.conv.User().String(),
	}
}

// ProgramByDay groups the full (unfiltered) converted event list by display
// zone calendar day, each day sorted ascending by start. Consumers get true
// event spans, not visual clipping.
func (c *Calendar) ProgramByDay() []model.DayEvents {
	all := c.convertAll(c.raw)

	byDay := make(map[time.Time][]model.ConvertedEvent)
	for _, ev := range all {
		day := c.dayStart(ev.StartUser)
		byDay[day] = append(byDay[day], ev)
	}

	days := make([]model.DayEvents, 0, len(byDay))
	for day, events := range byDay {
		sort.Slice(events, func(i, j int) bool {
			return events[i].StartUser.Before(events[j].StartUser)
		})
		entries := make([]model.ClippedEventEntry, 0, len(events))
		for _, ev := range events {
			entries = append(entries, model.ClippedEventEntry{
				Event:    ev,
				DayStart: ev.StartUser,
				DayEnd:   ev.EndUser,
			})
		}
		days = append(days, model.DayEvents{Date: day, Entries: entries})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

func (c *Calendar) refreshEvents() {
	filtered := c.raw
	if c.filter != "" {
		filtered = make([]model.MergedEvent, 0, len(c.raw))
		for _, ev := range c.raw {
			if c.matchesFilter(ev) {
				filtered = append(filtered, ev)
			}
		}
	}
	c.events = c.convertAll(filtered)
}

func (c *Calendar) convertAll(events []model.MergedEvent) []model.ConvertedEvent {
	out := make([]model.ConvertedEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, model.ConvertedEvent{
			MergedEvent: ev,
			StartUser:   c.conv.ToUser(ev.Start),
			EndUser:     c.conv.ToUser(ev.End),
		})
	}
	return out
}

func (c *Calendar) matchesFilter(ev model.MergedEvent) bool {
	d := ev.Details
	for _, field := range []string{
		ev.Title, ev.Subtitle, ev.Note,
		d.Room, d.Speaker, d.ID, d.Session, d.Moderator, d.Mode, d.Type, d.Track,
	} {
		if field != "" && strings.Contains(strings.ToLower(field), c.filter) {
			return true
		}
	}
	return false
}

func (c *Calendar) initialDayPointer(date string) time.Time {
	if date != "" {
		if origin, err := c.conv.ParseOrigin(date, "00:00"); err == nil {
			return c.ClampDayPointer(c.conv.ToUser(origin))
		}
		appLog.Warn("unparsable initial date; using today", "date", date)
	}
	return c.ClampDayPointer(time.Now().In(c.conv.User()))
}

func (c *Calendar) firstViewName() string {
	names := make([]string, 0, len(c.views))
	for name := range c.views {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// dayStart aligns an instant to midnight of its display zone day.
func (c *Calendar) dayStart(t time.Time) time.Time {
	t = t.In(c.conv.User())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.conv.User())
}

func timeStringToMinutes(s string) int {
	if s == "" {
		return 0
	}
	parts := strings.SplitN(s, ":", 3)
	h := atoiSafe(parts[0])
	m := 0
	if len(parts) > 1 {
		m = atoiSafe(parts[1])
	}
	return h*60 + m
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}
