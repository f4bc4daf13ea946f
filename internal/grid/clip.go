package grid

import (
	"sort"
	"time"

	"confcal/internal/model"
)

const msPerMinute = 60 * 1000

// clipDay selects the events intersecting the given day and clips each to
// the day's slot window. An event is relevant iff it overlaps the 24h day
// span as an open interval (touching at an edge is not overlap); the
// clipped interval is then bounded by [dayStart+slotMin, dayStart+slotMax]
// and dropped when empty. Entries come back sorted ascending by clipped
// start.
//
// Clipping is idempotent: re-clipping a clipped interval against the same
// slot window returns it unchanged.
func (c *Calendar) clipDay(day time.Time) []model.ClippedEventEntry {
	dayStartMS := day.UnixMilli()
	dayEndMS := day.AddDate(0, 0, 1).UnixMilli()

	slotStartMS := dayStartMS + int64(c.slotMin)*msPerMinute
	slotEndMS := dayStartMS + int64(c.slotMax)*msPerMinute

	entries := make([]model.ClippedEventEntry, 0)
	for _, ev := range c.events {
		startMS := ev.StartUser.UnixMilli()
		endMS := ev.EndUser.UnixMilli()

		if startMS >= dayEndMS || endMS <= dayStartMS {
			continue
		}

		adjustedStart := max64(startMS, slotStartMS)
		adjustedEnd := min64(endMS, slotEndMS)
		if adjustedStart >= adjustedEnd {
			continue
		}

		entries = append(entries, model.ClippedEventEntry{
			Event:    ev,
			DayStart: time.UnixMilli(adjustedStart).In(c.conv.User()),
			DayEnd:   time.UnixMilli(adjustedEnd).In(c.conv.User()),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DayStart.Before(entries[j].DayStart)
	})
	return entries
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
