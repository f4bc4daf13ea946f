package grid

import (
	"math"
	"testing"
	"time"

	"confcal/internal/model"
	"confcal/internal/tz"
)

func utcConverter() *tz.Converter {
	return tz.NewFromLocations(time.UTC, time.UTC)
}

func mergedAt(id string, start, end time.Time) model.MergedEvent {
	return model.MergedEvent{
		SessionKey: id,
		ID:         id,
		Title:      id,
		Start:      start,
		End:        end,
		Details:    model.Details{ID: id, Type: "session"},
	}
}

func may(day, hour, min int) time.Time {
	return time.Date(2025, time.May, day, hour, min, 0, 0, time.UTC)
}

func testCalendar(events []model.MergedEvent, opts Options) *Calendar {
	if opts.SlotMinTime == "" {
		opts.SlotMinTime = "00:00"
	}
	if opts.SlotMaxTime == "" {
		opts.SlotMaxTime = "24:00"
	}
	if opts.ValidRange == (DateRange{}) {
		opts.ValidRange = DateRange{Start: "2025-05-14", End: "2025-05-17"}
	}
	if opts.Views == nil {
		opts.Views = map[string]ViewDef{"Day1": {DurationDays: 1}}
	}
	if opts.InitialDate == "" {
		opts.InitialDate = "2025-05-14"
	}
	if opts.InitialView == "" {
		opts.InitialView = "Day1"
	}
	return NewWithConverter(events, opts, utcConverter())
}

func firstDayEntries(t *testing.T, c *Calendar) []model.ClippedEventEntry {
	t.Helper()
	res := c.View()
	if len(res.Days) == 0 {
		t.Fatal("view produced no days")
	}
	return res.Days[0].Entries
}

func TestLayoutOverlappingPair(t *testing.T) {
	// Two overlapping events split the column into two half-width lanes.
	c := testCalendar([]model.MergedEvent{
		mergedAt("A", may(14, 9, 0), may(14, 10, 0)),
		mergedAt("B", may(14, 9, 30), may(14, 10, 30)),
	}, Options{})

	entries := firstDayEntries(t, c)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Lane == entries[1].Lane {
		t.Error("overlapping events must not share a lane")
	}
	for _, e := range entries {
		if e.Width != 50 {
			t.Errorf("%s width = %v, want 50", e.Event.ID, e.Width)
		}
	}
	if entries[0].Left == entries[1].Left {
		t.Error("overlapping events must not share a left offset")
	}
}

func TestLayoutTouchingPair(t *testing.T) {
	// Back-to-back events touch but do not overlap beyond the epsilon:
	// both stay in lane 0 at full width.
	c := testCalendar([]model.MergedEvent{
		mergedAt("A", may(14, 9, 0), may(14, 10, 0)),
		mergedAt("B", may(14, 10, 0), may(14, 11, 0)),
	}, Options{})

	entries := firstDayEntries(t, c)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Lane != 0 {
			t.Errorf("%s lane = %d, want 0", e.Event.ID, e.Lane)
		}
		if e.Width != 100 {
			t.Errorf("%s width = %v, want 100", e.Event.ID, e.Width)
		}
	}
}

func TestLayoutLaneExclusivity(t *testing.T) {
	// Property: any two entries overlapping by more than the epsilon have
	// distinct lanes, and geometry stays within the column.
	c := testCalendar([]model.MergedEvent{
		mergedAt("A", may(14, 9, 0), may(14, 11, 0)),
		mergedAt("B", may(14, 9, 30), may(14, 10, 30)),
		mergedAt("C", may(14, 10, 0), may(14, 12, 0)),
		mergedAt("D", may(14, 11, 30), may(14, 12, 30)),
		mergedAt("E", may(14, 14, 0), may(14, 15, 0)),
	}, Options{})

	entries := firstDayEntries(t, c)
	if len(entries) != 5 {
		t.Fatalf("entries = %d, want 5", len(entries))
	}

	for i := range entries {
		for j := range entries {
			if i == j {
				continue
			}
			if overlapsWithTolerance(entries[i], entries[j]) && entries[i].Lane == entries[j].Lane {
				t.Errorf("%s and %s overlap yet share lane %d",
					entries[i].Event.ID, entries[j].Event.ID, entries[i].Lane)
			}
		}
	}

	const tolerance = 1e-9
	for _, e := range entries {
		if e.Left < 0 {
			t.Errorf("%s left = %v, want >= 0", e.Event.ID, e.Left)
		}
		if e.Left+e.Width > 100+tolerance {
			t.Errorf("%s left+width = %v, want <= 100", e.Event.ID, e.Left+e.Width)
		}
		if e.Top < 0 || e.Height < 0 {
			t.Errorf("%s negative geometry: top=%v height=%v", e.Event.ID, e.Top, e.Height)
		}
		if math.IsNaN(e.Top) || math.IsInf(e.Top, 0) || math.IsNaN(e.Width) || math.IsInf(e.Width, 0) {
			t.Errorf("%s non-finite geometry", e.Event.ID)
		}
	}
}

func TestLayoutPixelScale(t *testing.T) {
	// One event from 09:00 to 10:00 with a full-day slot window and 60px
	// hours sits at top 540px with height 60px.
	c := testCalendar([]model.MergedEvent{
		mergedAt("A", may(14, 9, 0), may(14, 10, 0)),
	}, Options{HourHeightPx: 60})

	entries := firstDayEntries(t, c)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if got := entries[0].Top; math.Abs(got-540) > 1e-9 {
		t.Errorf("top = %v, want 540", got)
	}
	if got := entries[0].Height; math.Abs(got-60) > 1e-9 {
		t.Errorf("height = %v, want 60", got)
	}
}

func TestLayoutWidthFromPairwiseOverlapSet(t *testing.T) {
	// Overlap chain A-B, B-C with A and C disjoint: widths come from each
	// entry's own pairwise overlap set, so A and C report 2 lanes while the
	// chain as a whole never shares a lane between overlapping members.
	c := testCalendar([]model.MergedEvent{
		mergedAt("A", may(14, 9, 0), may(14, 10, 0)),
		mergedAt("B", may(14, 9, 45), may(14, 10, 45)),
		mergedAt("C", may(14, 10, 15), may(14, 11, 0)),
	}, Options{})

	entries := firstDayEntries(t, c)
	byID := map[string]model.ClippedEventEntry{}
	for _, e := range entries {
		byID[e.Event.ID] = e
	}

	if byID["A"].Lane == byID["B"].Lane {
		t.Error("A and B overlap yet share a lane")
	}
	if byID["B"].Lane == byID["C"].Lane {
		t.Error("B and C overlap yet share a lane")
	}
	// A sees {A,B}: lanes 0 and 1 -> width 50. C sees {B,C}: B is lane 1,
	// C reuses lane 0 -> width 50 as well.
	if byID["A"].Width != 50 || byID["C"].Width != 50 {
		t.Errorf("chain widths = %v/%v, want 50/50", byID["A"].Width, byID["C"].Width)
	}
}
