package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"confcal/internal/config"
	"confcal/internal/export"
	"confcal/internal/grid"
	appLog "confcal/internal/log"
	"confcal/internal/model"
)

// Server provides the HTTP surface of the calendar: the rendered grid page,
// the JSON API, the ICS feed, and the PNG preview.
type Server struct {
	cfg   *config.Config
	store *Store
	mux   *http.ServeMux
}

// NewServer constructs a new Server around the shared calendar store.
func NewServer(cfg *config.Config, store *Store) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="ConfCal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/program", s.handleProgram)
	s.mux.HandleFunc("/calendar", s.handleCalendarPage)
	s.mux.HandleFunc("/calendar.ics", s.handleCalendarICS)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/calendar", http.StatusFound)
}

// handlePreview serves the last rendered PNG snapshot from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.cfg.PreviewPath == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, s.cfg.PreviewPath)
}

// applyQuery maps request parameters onto the calendar's navigation state.
//
// GET /api/events?view=Day1&date=2025-05-15&days=1&q=keynote&tz=Europe/Berlin
//   - view: named view to activate (unknown names fall back)
//   - date: day pointer, "2006-01-02" in the display zone
//   - days: relative navigation, signed day count
//   - q:    filter query; always applied, so an absent q clears the filter
//   - tz:   display zone override
func applyQuery(c *grid.Calendar, q url.Values) {
	if zone := q.Get("tz"); zone != "" && zone != c.DisplayZone().String() {
		c.SetDisplayZone(zone)
	}
	if view := q.Get("view"); view != "" {
		c.SetView(view)
	}
	if date := q.Get("date"); date != "" {
		if t, err := c.Zones().ParseUserDate(date); err == nil {
			c.GoToDate(t)
		} else {
			appLog.Warn("ignoring unparsable date parameter", "date", date)
		}
	}
	if days := q.Get("days"); days != "" {
		if n, err := strconv.Atoi(days); err == nil && n != 0 {
			c.ChangeDate(n)
		}
	}
	c.SetFilter(q.Get("q"))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Days  []dayDTO `json:"days"`
	Title string   `json:"title"`

	SlotMinMinutes int     `json:"slot_min_minutes"`
	SlotMaxMinutes int     `json:"slot_max_minutes"`
	VisibleMinutes int     `json:"visible_minutes"`
	DayHeightPx    float64 `json:"day_height_px"`

	PrevEnabled bool `json:"prev_enabled"`
	NextEnabled bool `json:"next_enabled"`

	CurrentView     string             `json:"current_view"`
	Views           map[string]viewDTO `json:"views"`
	DisplayTimeZone string             `json:"display_timezone"`
}

type viewDTO struct {
	DurationDays int    `json:"duration_days"`
	ButtonText   string `json:"button_text"`
}

type dayDTO struct {
	Date    string     `json:"date"`
	Entries []entryDTO `json:"entries"`
}

// entryDTO is a JSON-friendly view of one laid-out event box.
type entryDTO struct {
	SessionKey string        `json:"session_key"`
	Title      string        `json:"title"`
	Subtitle   string        `json:"subtitle,omitempty"`
	Note       string        `json:"note,omitempty"`
	Details    model.Details `json:"details"`

	Color     string `json:"color"`
	TextColor string `json:"text_color"`

	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	ClipStart time.Time `json:"clip_start"`
	ClipEnd   time.Time `json:"clip_end"`

	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	Lane   int     `json:"lane"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
}

// handleEvents runs one render pass and returns the laid-out grid as JSON.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var resp eventsResponse
	err := s.store.With(func(c *grid.Calendar) error {
		applyQuery(c, r.URL.Query())
		resp = buildEventsResponse(c, c.View())
		return nil
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func buildEventsResponse(c *grid.Calendar, res grid.ViewResult) eventsResponse {
	days := make([]dayDTO, 0, len(res.Days))
	for _, day := range res.Days {
		entries := make([]entryDTO, 0, len(day.Entries))
		for _, e := range day.Entries {
			entries = append(entries, entryDTO{
				SessionKey: e.Event.SessionKey,
				Title:      e.Event.Title,
				Subtitle:   e.Event.Subtitle,
				Note:       e.Event.Note,
				Details:    e.Event.Details,
				Color:      e.Event.Color,
				TextColor:  e.Event.TextColor,
				Start:      e.Event.StartUser,
				End:        e.Event.EndUser,
				ClipStart:  e.DayStart,
				ClipEnd:    e.DayEnd,
				Top:        e.Top,
				Height:     e.Height,
				Lane:       e.Lane,
				Left:       e.Left,
				Width:      e.Width,
			})
		}
		days = append(days, dayDTO{
			Date:    day.Date.Format("2006-01-02"),
			Entries: entries,
		})
	}

	views := make(map[string]viewDTO, len(c.Views()))
	for name, def := range c.Views() {
		views[name] = viewDTO{DurationDays: def.DurationDays, ButtonText: def.ButtonText}
	}

	return eventsResponse{
		Days:            days,
		Title:           res.Title,
		SlotMinMinutes:  res.SlotMinMinutes,
		SlotMaxMinutes:  res.SlotMaxMinutes,
		VisibleMinutes:  res.VisibleMinutes,
		DayHeightPx:     res.DayHeightPx,
		PrevEnabled:     res.PrevEnabled,
		NextEnabled:     res.NextEnabled,
		CurrentView:     c.CurrentView(),
		Views:           views,
		DisplayTimeZone: res.DisplayZone,
	}
}

// programResponse is the JSON response shape for /api/program.
type programResponse struct {
	Days            []dayDTO `json:"days"`
	DisplayTimeZone string   `json:"display_timezone"`
}

// handleProgram returns the full unfiltered program grouped by day, with
// true event spans instead of visual clipping.
func (s *Server) handleProgram(w http.ResponseWriter, r *http.Request) {
	var resp programResponse
	err := s.store.With(func(c *grid.Calendar) error {
		applyQuery(c, r.URL.Query())
		days := make([]dayDTO, 0)
		for _, day := range c.ProgramByDay() {
			entries := make([]entryDTO, 0, len(day.Entries))
			for _, e := range day.Entries {
				entries = append(entries, entryDTO{
					SessionKey: e.Event.SessionKey,
					Title:      e.Event.Title,
					Subtitle:   e.Event.Subtitle,
					Note:       e.Event.Note,
					Details:    e.Event.Details,
					Color:      e.Event.Color,
					TextColor:  e.Event.TextColor,
					Start:      e.Event.StartUser,
					End:        e.Event.EndUser,
					ClipStart:  e.DayStart,
					ClipEnd:    e.DayEnd,
				})
			}
			days = append(days, dayDTO{Date: day.Date.Format("2006-01-02"), Entries: entries})
		}
		resp = programResponse{Days: days, DisplayTimeZone: c.DisplayZone().String()}
		return nil
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCalendarICS serves the program as an iCalendar subscription feed.
func (s *Server) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	var body string
	err := s.store.With(func(c *grid.Calendar) error {
		body = export.BuildProgramICS(c.ProgramByDay())
		return nil
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotReady) {
		writeError(w, http.StatusServiceUnavailable, "program not loaded yet")
		return
	}
	appLog.Error("request failed", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
