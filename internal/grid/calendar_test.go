package grid

import (
	"testing"
	"time"

	"confcal/internal/model"
	"confcal/internal/tz"
)

func TestClipDay(t *testing.T) {
	t.Run("event clipped to slot window", func(t *testing.T) {
		c := testCalendar([]model.MergedEvent{
			mergedAt("A", may(14, 8, 30), may(14, 18, 30)),
		}, Options{SlotMinTime: "09:00", SlotMaxTime: "17:00"})

		entries := c.clipDay(may(14, 0, 0))
		if len(entries) != 1 {
			t.Fatalf("entries = %d, want 1", len(entries))
		}
		e := entries[0]
		if e.DayStart.Hour() != 9 || e.DayEnd.Hour() != 17 {
			t.Fatalf("clip = %v..%v, want 09:00..17:00", e.DayStart, e.DayEnd)
		}
	})

	t.Run("clipping is idempotent", func(t *testing.T) {
		c := testCalendar([]model.MergedEvent{
			mergedAt("A", may(14, 8, 30), may(14, 18, 30)),
		}, Options{SlotMinTime: "09:00", SlotMaxTime: "17:00"})

		first := c.clipDay(may(14, 0, 0))[0]

		// Feed the clipped interval back through the same slot window.
		c2 := testCalendar([]model.MergedEvent{
			mergedAt("A", first.DayStart, first.DayEnd),
		}, Options{SlotMinTime: "09:00", SlotMaxTime: "17:00"})
		second := c2.clipDay(may(14, 0, 0))[0]

		if !second.DayStart.Equal(first.DayStart) || !second.DayEnd.Equal(first.DayEnd) {
			t.Fatalf("re-clip changed interval: %v..%v -> %v..%v",
				first.DayStart, first.DayEnd, second.DayStart, second.DayEnd)
		}
	})

	t.Run("event outside slot window dropped", func(t *testing.T) {
		c := testCalendar([]model.MergedEvent{
			mergedAt("A", may(14, 6, 0), may(14, 7, 0)),
		}, Options{SlotMinTime: "09:00", SlotMaxTime: "17:00"})

		if entries := c.clipDay(may(14, 0, 0)); len(entries) != 0 {
			t.Fatalf("entries = %d, want 0 for pre-window event", len(entries))
		}
	})

	t.Run("midnight-spanning event appears on both days", func(t *testing.T) {
		c := testCalendar([]model.MergedEvent{
			mergedAt("A", may(14, 22, 0), may(15, 2, 0)),
		}, Options{})

		d1 := c.clipDay(may(14, 0, 0))
		d2 := c.clipDay(may(15, 0, 0))
		if len(d1) != 1 || len(d2) != 1 {
			t.Fatalf("entries = %d/%d, want 1/1", len(d1), len(d2))
		}
		if d1[0].DayEnd.Day() != 15 || d1[0].DayEnd.Hour() != 0 {
			t.Errorf("day one clip end = %v, want midnight", d1[0].DayEnd)
		}
		if d2[0].DayStart.Hour() != 0 || d2[0].DayEnd.Hour() != 2 {
			t.Errorf("day two clip = %v..%v, want 00:00..02:00", d2[0].DayStart, d2[0].DayEnd)
		}
	})

	t.Run("touching day edge is not overlap", func(t *testing.T) {
		// Ends exactly at the day's midnight: open-interval test keeps it
		// off the following day.
		c := testCalendar([]model.MergedEvent{
			mergedAt("A", may(14, 23, 0), may(15, 0, 0)),
		}, Options{})

		if entries := c.clipDay(may(15, 0, 0)); len(entries) != 0 {
			t.Fatalf("entries = %d, want 0 on the next day", len(entries))
		}
	})

	t.Run("entries sorted by clipped start", func(t *testing.T) {
		c := testCalendar([]model.MergedEvent{
			mergedAt("late", may(14, 15, 0), may(14, 16, 0)),
			mergedAt("early", may(14, 9, 0), may(14, 10, 0)),
		}, Options{})

		entries := c.clipDay(may(14, 0, 0))
		if entries[0].Event.ID != "early" || entries[1].Event.ID != "late" {
			t.Fatalf("order = %s, %s", entries[0].Event.ID, entries[1].Event.ID)
		}
	})
}

func TestAutoFit(t *testing.T) {
	t.Run("window tightens around events on hour boundaries", func(t *testing.T) {
		c := testCalendar([]model.MergedEvent{
			mergedAt("A", may(14, 9, 15), may(14, 10, 45)),
			mergedAt("B", may(14, 13, 0), may(14, 13, 30)),
		}, Options{AutoFitEvents: true, SlotMinTime: "00:00", SlotMaxTime: "24:00"})

		res := c.View()
		if res.SlotMinMinutes != 9*60 {
			t.Errorf("slotMin = %d, want 540 (09:00)", res.SlotMinMinutes)
		}
		if res.SlotMaxMinutes != 14*60 {
			t.Errorf("slotMax = %d, want 840 (13:30 rounded up)", res.SlotMaxMinutes)
		}
		if res.VisibleMinutes != res.SlotMaxMinutes-res.SlotMinMinutes {
			t.Error("visible minutes inconsistent with slot window")
		}
	})

	t.Run("no events keeps previous window", func(t *testing.T) {
		c := testCalendar([]model.MergedEvent{
			mergedAt("A", may(14, 9, 0), may(14, 10, 0)),
		}, Options{
			AutoFitEvents: true,
			SlotMinTime:   "08:00", SlotMaxTime: "18:00",
			InitialDate: "2025-05-16", // empty day
		})

		res := c.View()
		if res.SlotMinMinutes != 8*60 || res.SlotMaxMinutes != 18*60 {
			t.Fatalf("slot window = %d..%d, want the previous 480..1080",
				res.SlotMinMinutes, res.SlotMaxMinutes)
		}
	})

	t.Run("active filter disables autofit", func(t *testing.T) {
		c := testCalendar([]model.MergedEvent{
			mergedAt("A", may(14, 9, 15), may(14, 10, 45)),
		}, Options{AutoFitEvents: true, SlotMinTime: "06:00", SlotMaxTime: "22:00"})

		c.SetFilter("A")
		res := c.View()
		if res.SlotMinMinutes != 6*60 || res.SlotMaxMinutes != 22*60 {
			t.Fatalf("slot window = %d..%d, want configured 360..1320",
				res.SlotMinMinutes, res.SlotMaxMinutes)
		}
	})
}

func TestDisplayZoneConversion(t *testing.T) {
	// Origin UTC-4, display UTC-7: a 09:00 origin event renders at 06:00.
	origin := time.FixedZone("origin", -4*3600)
	user := time.FixedZone("user", -7*3600)
	conv := tz.NewFromLocations(origin, user)

	start := time.Date(2025, time.May, 14, 9, 0, 0, 0, origin)
	end := time.Date(2025, time.May, 14, 10, 0, 0, 0, origin)

	c := NewWithConverter(
		[]model.MergedEvent{mergedAt("A", start, end)},
		Options{
			SlotMinTime: "00:00", SlotMaxTime: "24:00",
			ValidRange:  DateRange{Start: "2025-05-14", End: "2025-05-17"},
			Views:       map[string]ViewDef{"Day1": {DurationDays: 1}},
			InitialDate: "2025-05-14",
			InitialView: "Day1",
		},
		conv,
	)

	events := c.Events()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if got := events[0].StartUser.Hour(); got != 6 {
		t.Fatalf("display-zone start hour = %d, want 6", got)
	}
	if events[0].StartUser.Day() != 14 {
		t.Fatalf("display-zone start day = %d, want 14", events[0].StartUser.Day())
	}
}

func TestSetDisplayZone(t *testing.T) {
	// Switching the display zone recomputes the whole chain in place:
	// converted instants, the valid range, and the clamped day pointer all
	// move to the new zone without rebuilding the instance.
	c := New([]model.MergedEvent{
		mergedAt("A", may(14, 9, 0), may(14, 10, 0)),
	}, Options{
		OriginZone: "UTC", UserZone: "UTC",
		SlotMinTime: "00:00", SlotMaxTime: "24:00",
		ValidRange:  DateRange{Start: "2025-05-14", End: "2025-05-17"},
		Views:       map[string]ViewDef{"Day1": {DurationDays: 1}},
		InitialDate: "2025-05-14",
		InitialView: "Day1",
	})

	c.SetDisplayZone("Etc/GMT+7")

	if got := c.DisplayZone().String(); got != "Etc/GMT+7" {
		t.Fatalf("display zone = %q, want Etc/GMT+7", got)
	}

	events := c.Events()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if !events[0].StartUser.Equal(may(14, 9, 0)) {
		t.Error("conversion changed the instant")
	}
	if events[0].StartUser.Hour() != 2 {
		t.Errorf("converted start hour = %d, want 02:00 at UTC-7", events[0].StartUser.Hour())
	}

	// Range start: origin midnight May 14 UTC falls on May 13 at UTC-7, so
	// the day-aligned range begins a calendar day earlier in the new zone.
	vr := c.ValidRangeSpan()
	if _, off := vr.Start.Zone(); off != -7*3600 {
		t.Errorf("range start zone offset = %d, want -25200", off)
	}
	if vr.Start.Day() != 13 || vr.Start.Hour() != 0 {
		t.Errorf("range start = %v, want May 13 midnight at UTC-7", vr.Start)
	}

	// The day pointer was re-clamped into the new zone's range.
	cur := c.CurrentDate()
	if _, off := cur.Zone(); off != -7*3600 {
		t.Errorf("day pointer zone offset = %d, want -25200", off)
	}
	if cur.Before(vr.Start) || cur.After(vr.End) {
		t.Errorf("day pointer %v outside valid range %v..%v", cur, vr.Start, vr.End)
	}
	if cur.Hour() != 0 {
		t.Errorf("day pointer = %v, want a day start", cur)
	}
}

func TestSetFilter(t *testing.T) {
	events := []model.MergedEvent{
		mergedAt("A", may(14, 9, 0), may(14, 10, 0)),
		mergedAt("B", may(14, 10, 0), may(14, 11, 0)),
	}
	events[0].Details.Speaker = "Alice Cooper"

	c := testCalendar(events, Options{})

	c.SetFilter("cooper")
	if got := len(c.Events()); got != 1 {
		t.Fatalf("filtered events = %d, want 1", got)
	}

	c.SetFilter("")
	if got := len(c.Events()); got != 2 {
		t.Fatalf("cleared filter events = %d, want 2", got)
	}
}

func TestSetEventsPreservesNavigation(t *testing.T) {
	c := testCalendar([]model.MergedEvent{
		mergedAt("A", may(14, 9, 0), may(14, 10, 0)),
	}, Options{})
	c.ChangeDate(1)
	was := c.CurrentDate()

	c.SetEvents([]model.MergedEvent{
		mergedAt("B", may(15, 9, 0), may(15, 10, 0)),
	})

	if !c.CurrentDate().Equal(was) {
		t.Fatal("refresh moved the day pointer")
	}
	if len(c.Events()) != 1 || c.Events()[0].ID != "B" {
		t.Fatal("refresh did not replace the event set")
	}
}

func TestProgramByDay(t *testing.T) {
	c := testCalendar([]model.MergedEvent{
		mergedAt("late", may(15, 14, 0), may(15, 15, 0)),
		mergedAt("b", may(14, 11, 0), may(14, 12, 0)),
		mergedAt("a", may(14, 9, 0), may(14, 10, 30)),
	}, Options{SlotMinTime: "10:00", SlotMaxTime: "12:00"})

	days := c.ProgramByDay()
	if len(days) != 2 {
		t.Fatalf("days = %d, want 2", len(days))
	}
	if !days[0].Date.Before(days[1].Date) {
		t.Fatal("days not ascending")
	}
	if days[0].Entries[0].Event.ID != "a" || days[0].Entries[1].Event.ID != "b" {
		t.Fatal("entries within a day not sorted by start")
	}
	// Export gets true spans, not visual clipping: "a" starts 09:00 even
	// though the slot window starts at 10:00.
	if days[0].Entries[0].DayStart.Hour() != 9 {
		t.Fatalf("export start = %v, want unclipped 09:00", days[0].Entries[0].DayStart)
	}
}

func TestSetViewFallback(t *testing.T) {
	c := testCalendar(nil, Options{
		Views: map[string]ViewDef{"Day1": {DurationDays: 1}, "Day3": {DurationDays: 3}},
	})

	c.SetView("Day3")
	if c.CurrentView() != "Day3" {
		t.Fatalf("view = %q", c.CurrentView())
	}
	c.SetView("nope")
	if c.CurrentView() != "Day1" {
		t.Fatalf("unknown view fell back to %q, want Day1", c.CurrentView())
	}
}
