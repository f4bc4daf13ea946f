package export

import (
	"strings"
	"testing"
	"time"

	"confcal/internal/model"
)

func converted(key, title, room string, start, end time.Time) model.ConvertedEvent {
	return model.ConvertedEvent{
		MergedEvent: model.MergedEvent{
			SessionKey: key,
			ID:         key,
			Title:      title,
			Details:    model.Details{Room: room},
		},
		StartUser: start,
		EndUser:   end,
	}
}

func TestBuildProgramICS(t *testing.T) {
	start := time.Date(2025, time.May, 14, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	days := []model.DayEvents{{
		Date: start.Truncate(24 * time.Hour),
		Entries: []model.ClippedEventEntry{
			{Event: converted("Session A", "Session A", "Hall 1", start, end), DayStart: start, DayEnd: end},
			{Event: converted("T2", "T2", "n/a", end, end.Add(time.Hour)), DayStart: end, DayEnd: end.Add(time.Hour)},
		},
	}}

	out := BuildProgramICS(days)

	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("VEVENT count = %d, want 2", got)
	}
	if !strings.Contains(out, "SUMMARY:Session A") {
		t.Error("missing session summary")
	}
	if !strings.Contains(out, "UID:Session-A@confcal") {
		t.Error("missing sanitized UID")
	}
	if !strings.Contains(out, "LOCATION:Hall 1") {
		t.Error("missing room location")
	}
	if strings.Contains(out, "LOCATION:n/a") {
		t.Error("n/a room must not become a location")
	}
	if !strings.Contains(out, "METHOD:PUBLISH") {
		t.Error("missing publish method")
	}
}
