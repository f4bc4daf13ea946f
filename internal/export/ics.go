package export

import (
	"strings"

	ics "github.com/arran4/golang-ical"

	"confcal/internal/model"
)

// BuildProgramICS renders the program as an iCalendar feed, one VEVENT per
// merged event. It consumes the export grouping (true event spans, grouped
// by day and sorted ascending), so subscribers see real session times
// rather than visually clipped ones.
func BuildProgramICS(days []model.DayEvents) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//confcal//program//EN")

	for _, day := range days {
		for _, entry := range day.Entries {
			ev := entry.Event

			ve := cal.AddEvent(eventUID(ev))
			ve.SetStartAt(ev.StartUser.UTC())
			ve.SetEndAt(ev.EndUser.UTC())
			ve.SetSummary(summaryFor(ev))

			if desc := descriptionFor(ev); desc != "" {
				ve.SetDescription(desc)
			}
			if room := strings.TrimSpace(ev.Details.Room); room != "" && !strings.EqualFold(room, "n/a") {
				ve.SetLocation(room)
			}
		}
	}

	return cal.Serialize()
}

func eventUID(ev model.ConvertedEvent) string {
	key := ev.SessionKey
	if key == "" {
		key = ev.ID
	}
	key = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, key)
	return key + "@confcal"
}

func summaryFor(ev model.ConvertedEvent) string {
	if strings.TrimSpace(ev.Title) != "" {
		return ev.Title
	}
	return ev.ID
}

func descriptionFor(ev model.ConvertedEvent) string {
	parts := make([]string, 0, 3)
	if strings.TrimSpace(ev.Subtitle) != "" {
		parts = append(parts, ev.Subtitle)
	}
	if strings.TrimSpace(ev.Details.Speaker) != "" {
		parts = append(parts, ev.Details.Speaker)
	}
	if strings.TrimSpace(ev.Note) != "" {
		parts = append(parts, ev.Note)
	}
	return strings.Join(parts, "\n")
}
