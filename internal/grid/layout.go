package grid

import (
	"sort"
	"time"

	"confcal/internal/model"
)

// laneEpsilon treats near-touching events (within 2px) as non-overlapping,
// so back-to-back sessions share a lane instead of splitting the column.
const laneEpsilon = 2.0

// layoutDay assigns geometry to one day's clipped entries: pixel top/height
// from the entry's offset within the slot window, then a lane per entry so
// that overlapping entries never share one, then a left/width percentage.
//
// Width derives from the entry's pairwise overlap set, not its transitive
// closure: a chain A-B, B-C with A and C disjoint can yield differing
// per-entry lane counts. Downstream rendering depends on this exact
// behavior, so it is preserved as-is.
func layoutDay(entries []model.ClippedEventEntry, slotMinMinutes int, visibleMinutes, dayHeightPx float64) []model.ClippedEventEntry {
	if len(entries) == 0 || visibleMinutes <= 0 {
		return entries
	}

	for i := range entries {
		e := &entries[i]
		day := startOfDay(e.DayStart)
		slotOriginMS := day.UnixMilli() + int64(slotMinMinutes)*msPerMinute

		startMinutes := float64(e.DayStart.UnixMilli()-slotOriginMS) / msPerMinute
		endMinutes := float64(e.DayEnd.UnixMilli()-slotOriginMS) / msPerMinute

		e.Top = startMinutes / visibleMinutes * dayHeightPx
		e.Height = (endMinutes - startMinutes) / visibleMinutes * dayHeightPx
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Top < entries[j].Top
	})

	// Lane assignment: each lane remembers its most recent entry; an entry
	// takes the first lane it clears vertically, else opens a new one.
	lanes := make([]int, 0) // index of each lane's last entry
	for i := range entries {
		assigned := -1
		for li, last := range lanes {
			if entries[i].Top >= entries[last].Top+entries[last].Height-laneEpsilon {
				lanes[li] = i
				assigned = li
				break
			}
		}
		if assigned == -1 {
			lanes = append(lanes, i)
			assigned = len(lanes) - 1
		}
		entries[i].Lane = assigned
	}

	// Width from the pairwise overlap set.
	for i := range entries {
		maxLane := entries[i].Lane
		for j := range entries {
			if overlapsWithTolerance(entries[i], entries[j]) && entries[j].Lane > maxLane {
				maxLane = entries[j].Lane
			}
		}
		totalLanes := maxLane + 1
		entries[i].Width = 100 / float64(totalLanes)
		entries[i].Left = float64(entries[i].Lane) * entries[i].Width
	}

	return entries
}

func overlapsWithTolerance(a, b model.ClippedEventEntry) bool {
	return a.Top < b.Top+b.Height-laneEpsilon && b.Top < a.Top+a.Height-laneEpsilon
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
