package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	perr "turna/internal/platform/errors"
	"turna/internal/services/extraction/domain"
)

// Sheet reads demand rows out of a spreadsheet by header-mapped columns.
// Fully deterministic; the hospital prompt is ignored
type Sheet struct{}

// NewSheet creates the spreadsheet extractor
func NewSheet() *Sheet { return &Sheet{} }

var _ domain.Extractor = (*Sheet)(nil)

// header aliases, lowercased; pt-BR sources dominate the corpus
var sheetColumns = map[string]string{
	"date": "date", "data": "date", "dia": "date",
	"start": "start", "inicio": "start", "início": "start", "start_time": "start",
	"end": "end", "fim": "end", "termino": "end", "término": "end", "end_time": "end",
	"procedure": "procedure", "procedimento": "procedure", "cirurgia": "procedure",
	"room": "room", "sala": "room",
	"pediatric": "pediatric", "pediatrico": "pediatric", "pediátrico": "pediatric",
	"anesthesia": "anesthesia", "anestesia": "anesthesia",
	"complexity": "complexity", "complexidade": "complexity",
	"priority": "priority", "prioridade": "priority",
	"notes": "notes", "observacoes": "notes", "observações": "notes", "obs": "notes",
}

// Extract implements domain.Extractor
func (s *Sheet) Extract(ctx context.Context, path, contentType, prompt string) ([]domain.ExtractedDemand, []string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, perr.InvalidArgf("unreadable spreadsheet: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, perr.InvalidArgf("unreadable sheet %q: %v", sheet, err)
	}
	if len(rows) < 2 {
		return nil, []string{"sheet has no data rows"}, nil
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		if key, ok := sheetColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, dup := cols[key]; !dup {
				cols[key] = i
			}
		}
	}
	for _, required := range []string{"date", "start", "end"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, perr.InvalidArgf("sheet is missing a %s column", required)
		}
	}

	var out []domain.ExtractedDemand
	var warns []string
	for i, row := range rows[1:] {
		line := i + 2
		cell := func(key string) string {
			idx, ok := cols[key]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if cell("date") == "" && cell("start") == "" && cell("end") == "" {
			continue
		}

		date, err := normalizeDate(cell("date"))
		if err != nil {
			warns = append(warns, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		start, err1 := normalizeClock(cell("start"))
		end, err2 := normalizeClock(cell("end"))
		if err1 != nil || err2 != nil {
			warns = append(warns, fmt.Sprintf("row %d: unreadable time window", line))
			continue
		}
		if end <= start {
			warns = append(warns, fmt.Sprintf("row %d: end %s not after start %s, discarded", line, cell("end"), cell("start")))
			continue
		}

		out = append(out, domain.ExtractedDemand{
			Date:           date,
			StartTime:      clockString(start),
			EndTime:        clockString(end),
			Procedure:      cell("procedure"),
			Room:           cell("room"),
			AnesthesiaType: cell("anesthesia"),
			Complexity:     cell("complexity"),
			Priority:       cell("priority"),
			IsPediatric:    truthy(cell("pediatric")),
			Notes:          cell("notes"),
		})
	}
	return out, warns, nil
}

func normalizeDate(s string) (string, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2/1/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unreadable date %q", s)
}

// normalizeClock reads HH:MM or H:MM into minutes since midnight
func normalizeClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		if t, err = time.Parse("15:04:05", s); err != nil {
			return 0, err
		}
	}
	return t.Hour()*60 + t.Minute(), nil
}

func clockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "x", "y", "yes", "true", "sim", "s":
		return true
	}
	return false
}
