package grid

import "time"

// autoFitStepMinutes is the rounding granularity for the fitted slot
// window: minimums round down and maximums round up to the hour.
const autoFitStepMinutes = 60

// autoFitSlotWindow tightens the slot window around the events actually
// present in the given day window. The window is reset to the full day,
// the events are clipped once, and the observed minute band is rounded
// outward to the hour. When no events are observed the previous slot
// window is kept.
func (c *Calendar) autoFitSlotWindow(dates []time.Time) {
	prevMin, prevMax := c.slotMin, c.slotMax
	c.slotMin, c.slotMax = 0, 24*60

	minMinutes := 24 * 60
	maxMinutes := 0

	for _, day := range dates {
		for _, entry := range c.clipDay(day) {
			start := entry.DayStart.Hour()*60 + entry.DayStart.Minute()
			end := entry.DayEnd.Hour()*60 + entry.DayEnd.Minute()
			// A clip ending exactly at midnight reads as minute 0 of the
			// next day; it is the 1440th minute of this one.
			if end == 0 && entry.DayEnd.After(entry.DayStart) {
				end = 24 * 60
			}

			if start < minMinutes {
				minMinutes = start
			}
			if end > maxMinutes {
				maxMinutes = end
			}
		}
	}

	if minMinutes == 24*60 && maxMinutes == 0 {
		c.slotMin, c.slotMax = prevMin, prevMax
		return
	}

	c.slotMin = (minMinutes / autoFitStepMinutes) * autoFitStepMinutes
	c.slotMax = ((maxMinutes + autoFitStepMinutes - 1) / autoFitStepMinutes) * autoFitStepMinutes
}
