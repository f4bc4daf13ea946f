package web

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sort"

	"confcal/internal/grid"
	appLog "confcal/internal/log"
)

//go:embed calendar.gohtml
var calendarTemplateSrc string

var calendarTemplate = template.Must(template.New("calendar").Parse(calendarTemplateSrc))

// calendarPage is the data handed to the grid template. Geometry is
// precomputed server side; the page itself is static HTML/CSS and marks
// itself ready for the screenshot capture via data-ready.
type calendarPage struct {
	Title           string
	DisplayTimeZone string
	Query           string

	Days  []pageDay
	Hours []pageHour

	DayHeightPx float64

	Views       []pageView
	CurrentView string

	PrevEnabled bool
	NextEnabled bool
	PrevTarget  string
	NextTarget  string
}

type pageDay struct {
	Label   string
	Entries []pageEntry
}

type pageEntry struct {
	Title     string
	Subtitle  string
	TimeLabel string
	Speaker   string
	Room      string
	Color     string
	TextColor string

	Top    float64
	Height float64
	Left   float64
	Width  float64
}

type pageHour struct {
	Label string
	TopPx float64
}

type pageView struct {
	Name   string
	Label  string
	Active bool
}

// handleCalendarPage renders the multi-day time grid as server-side HTML.
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	var page calendarPage
	err := s.store.With(func(c *grid.Calendar) error {
		applyQuery(c, r.URL.Query())
		page = buildCalendarPage(c, c.View(), r.URL.Query().Get("q"))
		return nil
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := calendarTemplate.Execute(w, page); err != nil {
		appLog.Error("calendar template render failed", err)
	}
}

func buildCalendarPage(c *grid.Calendar, res grid.ViewResult, query string) calendarPage {
	days := make([]pageDay, 0, len(res.Days))
	for _, day := range res.Days {
		entries := make([]pageEntry, 0, len(day.Entries))
		for _, e := range day.Entries {
			entries = append(entries, pageEntry{
				Title:     e.Event.Title,
				Subtitle:  e.Event.Subtitle,
				TimeLabel: e.Event.StartUser.Format("15:04") + "–" + e.Event.EndUser.Format("15:04"),
				Speaker:   e.Event.Details.Speaker,
				Room:      e.Event.Details.Room,
				Color:     e.Event.Color,
				TextColor: e.Event.TextColor,
				Top:       e.Top,
				Height:    e.Height,
				Left:      e.Left,
				Width:     e.Width,
			})
		}
		days = append(days, pageDay{
			Label:   day.Date.Format("Mon Jan 2"),
			Entries: entries,
		})
	}

	// Hour ruler: one label per full hour inside the slot window.
	hours := make([]pageHour, 0)
	if res.VisibleMinutes > 0 {
		pxPerMinute := res.DayHeightPx / float64(res.VisibleMinutes)
		firstHour := res.SlotMinMinutes
		if rem := firstHour % 60; rem != 0 {
			firstHour += 60 - rem
		}
		for m := firstHour; m <= res.SlotMaxMinutes; m += 60 {
			hours = append(hours, pageHour{
				Label: fmt.Sprintf("%02d:%02d", (m/60)%24, m%60),
				TopPx: float64(m-res.SlotMinMinutes) * pxPerMinute,
			})
		}
	}

	views := make([]pageView, 0, len(c.Views()))
	for name, def := range c.Views() {
		label := def.ButtonText
		if label == "" {
			label = name
		}
		views = append(views, pageView{
			Name:   name,
			Label:  label,
			Active: name == c.CurrentView(),
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })

	step := len(res.Days)
	if step < 1 {
		step = 1
	}

	return calendarPage{
		Title:           res.Title,
		DisplayTimeZone: res.DisplayZone,
		Query:           query,
		Days:            days,
		Hours:           hours,
		DayHeightPx:     res.DayHeightPx,
		Views:           views,
		CurrentView:     c.CurrentView(),
		PrevEnabled:     res.PrevEnabled,
		NextEnabled:     res.NextEnabled,
		PrevTarget:      fmt.Sprintf("/calendar?days=%d", -step),
		NextTarget:      fmt.Sprintf("/calendar?days=%d", step),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
