package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"confcal/internal/color"
	appLog "confcal/internal/log"
	"confcal/internal/model"
	"confcal/internal/tz"
)

// Row is one raw sheet row keyed by header column name. Rows are
// loosely-typed by nature; ValidateRows is the only place that reads them.
type Row map[string]string

// Validation failure reasons. Rows failing any of these are logged and
// dropped; the load continues with the remaining rows.
var (
	ErrMissingDate  = errors.New("missing date")
	ErrInvalidStart = errors.New("invalid start time")
	ErrInvalidEnd   = errors.New("invalid end time")
)

// ParseCSV parses a CSV payload with a header row into Rows. Short records
// are tolerated; missing cells read as "".
func ParseCSV(body []byte) ([]Row, error) {
	if len(body) == 0 {
		return nil, errors.New("empty CSV body")
	}

	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("CSV has no header row")
	}

	header := records[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(Row, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(rec) {
				row[name] = rec[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseTypeColors builds the type->color lookup from a "type,color" sheet.
// Color values are normalized to hex; rows with an unresolvable color are
// skipped.
func ParseTypeColors(body []byte) (map[string]string, error) {
	rows, err := ParseCSV(body)
	if err != nil {
		return nil, err
	}

	colors := make(map[string]string)
	for _, row := range rows {
		typ := strings.TrimSpace(row["type"])
		val := strings.TrimSpace(row["color"])
		if typ == "" || val == "" {
			continue
		}
		hex := color.Normalize(val)
		if hex == "" {
			appLog.Warn("unresolvable color in type-colors sheet", "type", typ, "color", val)
			continue
		}
		colors[typ] = hex
	}
	return colors, nil
}

// ValidateRows turns raw program rows into EventRecords. Rows with empty
// start or end time fields are non-event rows (blank spreadsheet lines) and
// are skipped without logging; every other rejection is logged with the
// offending row for operator diagnosis. This is a partial-failure pipeline:
// rejections never abort the load.
func ValidateRows(rows []Row, typeColors map[string]string, conv *tz.Converter) []model.EventRecord {
	records := make([]model.EventRecord, 0, len(rows))

	for _, row := range rows {
		if strings.TrimSpace(row["start"]) == "" || strings.TrimSpace(row["end"]) == "" {
			continue
		}

		rec, err := validateRow(row, typeColors, conv)
		if err != nil {
			appLog.Error("dropping invalid program row", err, "row", fmt.Sprintf("%v", row))
			continue
		}
		records = append(records, rec)
	}

	return records
}

func validateRow(row Row, typeColors map[string]string, conv *tz.Converter) (model.EventRecord, error) {
	var rec model.EventRecord

	date := strings.TrimSpace(row["date"])
	if date == "" {
		return rec, ErrMissingDate
	}

	start, err := conv.ParseOrigin(date, strings.TrimSpace(row["start"]))
	if err != nil {
		return rec, fmt.Errorf("%w: %v", ErrInvalidStart, err)
	}
	end, err := conv.ParseOrigin(date, strings.TrimSpace(row["end"]))
	if err != nil {
		return rec, fmt.Errorf("%w: %v", ErrInvalidEnd, err)
	}
	if !start.Before(end) {
		return rec, fmt.Errorf("%w: end %q is not after start %q", ErrInvalidEnd, row["end"], row["start"])
	}

	typ := strings.TrimSpace(row["type"])
	if typ == "" {
		typ = "session"
	}

	rec = model.EventRecord{
		ID:          row["id"],
		Title:       row["id"],
		Subtitle:    row["title"],
		OriginStart: start,
		OriginEnd:   end,
		Details: model.Details{
			Type:      typ,
			Speaker:   row["speaker"],
			ID:        row["id"],
			Room:      row["room"],
			Session:   row["session"],
			Mode:      row["mode"],
			Moderator: row["moderator"],
			VideoLink: row["videolink"],
			Track:     row["track"],
		},
	}

	bg, ok := typeColors[typ]
	if !ok {
		bg = color.NeutralGray
	}
	rec.Color = bg
	rec.TextColor = color.ContrastForeground(bg)

	return rec, nil
}
