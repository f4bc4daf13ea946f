package sheet

import (
	"context"
	"fmt"

	appLog "confcal/internal/log"
	"confcal/internal/model"
	"confcal/internal/tz"
)

// Loader runs one full program load: fetch both sheets, parse the colors,
// validate the rows, merge the sessions.
type Loader struct {
	fetcher *Fetcher
	program Source
	colors  Source
	conv    *tz.Converter
}

// NewLoader wires a Loader for the given published sheet URLs.
func NewLoader(cacheDir, programURL, colorsURL string, conv *tz.Converter) *Loader {
	return &Loader{
		fetcher: NewFetcher(cacheDir),
		program: Source{ID: "program", URL: programURL},
		colors:  Source{ID: "type-colors", URL: colorsURL},
		conv:    conv,
	}
}

// Load performs one data load. The program sheet is required; a failed
// type-colors fetch degrades to the neutral fallback color rather than
// failing the load.
func (l *Loader) Load(ctx context.Context) ([]model.MergedEvent, error) {
	progRes, err := l.fetcher.FetchOne(ctx, l.program)
	if err != nil {
		return nil, fmt.Errorf("fetch program sheet: %w", err)
	}

	typeColors := map[string]string{}
	if l.colors.URL != "" {
		colRes, err := l.fetcher.FetchOne(ctx, l.colors)
		if err != nil {
			appLog.Error("type-colors fetch failed; using fallback color", err)
		} else if parsed, perr := ParseTypeColors(colRes.Body); perr != nil {
			appLog.Error("type-colors parse failed; using fallback color", perr)
		} else {
			typeColors = parsed
		}
	}

	rows, err := ParseCSV(progRes.Body)
	if err != nil {
		return nil, fmt.Errorf("parse program sheet: %w", err)
	}

	records := ValidateRows(rows, typeColors, l.conv)
	merged := MergeSessions(records)

	appLog.Info("program load completed",
		"rows", len(rows),
		"valid_records", len(records),
		"merged_events", len(merged),
		"from_cache", progRes.FromCache,
	)

	return merged, nil
}
