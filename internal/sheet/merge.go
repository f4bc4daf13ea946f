package sheet

import (
	"fmt"
	"strings"

	"confcal/internal/model"
)

// clean reports whether a cell holds a usable value: non-empty after
// trimming and not the "n/a" placeholder.
func clean(v string) bool {
	t := strings.TrimSpace(v)
	return t != "" && !strings.EqualFold(t, "n/a")
}

// MergeSessions folds validated records that share a session identity into
// session-level composite events.
//
// Key derivation: a usable session cell (per clean) is the key; any other
// record gets a synthetic key from a monotonic counter so it never merges.
// Grouping is order-preserving: the first record for a key founds the
// MergedEvent, later same-key records are folded in by widening the span
// and appending note lines. A session with a single record behaves exactly
// like the record it wraps, modulo the title/note transform.
func MergeSessions(records []model.EventRecord) []model.MergedEvent {
	grouped := make(map[string]int) // session key -> index into out
	out := make([]model.MergedEvent, 0, len(records))
	syntheticSeq := 0

	for _, rec := range records {
		key := strings.TrimSpace(rec.Details.Session)
		if !clean(key) {
			// Deterministic stand-alone key; the counter keeps merge
			// grouping reproducible across loads.
			key = fmt.Sprintf("unique_session%d", syntheticSeq)
			syntheticSeq++
		}

		idx, exists := grouped[key]
		if !exists {
			grouped[key] = len(out)
			out = append(out, foundMergedEvent(key, rec))
			continue
		}

		m := &out[idx]
		if strings.TrimSpace(rec.Details.ID) != "" || strings.TrimSpace(rec.Subtitle) != "" {
			m.Note += "\n" + foldedNoteLine(rec)
		}
		if rec.OriginStart.Before(m.Start) {
			m.Start = rec.OriginStart
		}
		if rec.OriginEnd.After(m.End) {
			m.End = rec.OriginEnd
		}
	}

	return out
}

// foundMergedEvent builds the composite for the first record of a session
// key. A record with a usable session cell gets the session label as its
// title (mode appended in parentheses) and its subtitle/speaker cleared,
// since multiple talks may follow; otherwise the record id is the title and
// subtitle/speaker stay intact.
func foundMergedEvent(key string, rec model.EventRecord) model.MergedEvent {
	m := model.MergedEvent{
		SessionKey: key,
		ID:         rec.ID,
		Title:      rec.Title,
		Subtitle:   rec.Subtitle,
		Start:      rec.OriginStart,
		End:        rec.OriginEnd,
		Details:    rec.Details,
		Color:      rec.Color,
		TextColor:  rec.TextColor,
	}

	if !clean(rec.Details.Session) {
		m.Title = rec.ID
		return m
	}

	label := strings.TrimSpace(rec.Details.Session)
	if clean(rec.Details.Mode) {
		label += " (" + strings.TrimSpace(rec.Details.Mode) + ")"
	}
	m.Title = label
	m.Subtitle = ""
	m.Details.Speaker = ""
	m.Note = foundingNoteLine(rec)

	return m
}

// foundingNoteLine formats the first per-talk note line: "id: subtitle"
// when both exist, else whichever is present, plus the speaker on its own
// line when one is set.
func foundingNoteLine(rec model.EventRecord) string {
	hasID := strings.TrimSpace(rec.Details.ID) != ""
	hasSubtitle := strings.TrimSpace(rec.Subtitle) != ""

	var line string
	switch {
	case hasID && hasSubtitle:
		line = rec.Details.ID + ": " + rec.Subtitle
	case hasID:
		line = rec.Details.ID
	case hasSubtitle:
		line = rec.Subtitle
	default:
		return ""
	}

	return line + speakerSuffix(rec)
}

// foldedNoteLine formats note lines for second and later records of a
// session; these always use the id: subtitle form.
func foldedNoteLine(rec model.EventRecord) string {
	return rec.Details.ID + ": " + rec.Subtitle + speakerSuffix(rec)
}

func speakerSuffix(rec model.EventRecord) string {
	if strings.TrimSpace(rec.Details.Speaker) == "" {
		return ""
	}
	return "\n" + rec.Details.Speaker
}
