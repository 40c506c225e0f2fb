package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	perr "turna/internal/platform/errors"
)

func writeGarbage(path string) error {
	return os.WriteFile(path, []byte("definitely not a zip archive"), 0o600)
}

func writeSheet(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}
	path := filepath.Join(t.TempDir(), "mapa.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestSheetExtractPortugueseHeaders(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"Data", "Inicio", "Fim", "Procedimento", "Sala", "Pediatrico", "Anestesia", "Observacoes"},
		{"2026-03-02", "08:00", "12:00", "Colecistectomia", "Sala 1", "sim", "geral", "jejum 8h"},
		{"02/03/2026", "13:30", "15:00", "Herniorrafia", "Sala 2", "", "", ""},
	})

	rows, warns, err := NewSheet().Extract(context.Background(), path, "", "ignored prompt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("warns = %v", warns)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}

	first := rows[0]
	if first.Date != "2026-03-02" || first.StartTime != "08:00" || first.EndTime != "12:00" {
		t.Fatalf("first = %+v", first)
	}
	if first.Procedure != "Colecistectomia" || first.Room != "Sala 1" || !first.IsPediatric {
		t.Fatalf("first = %+v", first)
	}
	if first.AnesthesiaType != "geral" || first.Notes != "jejum 8h" {
		t.Fatalf("first = %+v", first)
	}

	// dd/mm/yyyy normalizes to the civil date form
	second := rows[1]
	if second.Date != "2026-03-02" || second.StartTime != "13:30" || second.IsPediatric {
		t.Fatalf("second = %+v", second)
	}
}

func TestSheetExtractDiscardsInvertedWindows(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"date", "start", "end"},
		{"2026-03-02", "14:00", "13:00"},
		{"2026-03-02", "08:00", "08:00"},
		{"2026-03-02", "08:00", "09:00"},
	})

	rows, warns, err := NewSheet().Extract(context.Background(), path, "", "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	if len(warns) != 2 {
		t.Fatalf("warns = %v", warns)
	}
	if !strings.Contains(warns[0], "row 2") || !strings.Contains(warns[0], "not after") {
		t.Fatalf("warns[0] = %q", warns[0])
	}
}

func TestSheetExtractWarnsOnBadCells(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"Data", "Inicio", "Fim"},
		{"someday", "08:00", "12:00"},
		{"2026-03-02", "morning", "12:00"},
		{"", "", ""},
	})

	rows, warns, err := NewSheet().Extract(context.Background(), path, "", "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %+v", rows)
	}
	// the fully blank row is skipped silently, the two bad ones warn
	if len(warns) != 2 {
		t.Fatalf("warns = %v", warns)
	}
	if !strings.Contains(warns[0], "unreadable date") {
		t.Fatalf("warns[0] = %q", warns[0])
	}
	if !strings.Contains(warns[1], "unreadable time window") {
		t.Fatalf("warns[1] = %q", warns[1])
	}
}

func TestSheetExtractMissingRequiredColumn(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"Data", "Inicio", "Procedimento"},
		{"2026-03-02", "08:00", "Colecistectomia"},
	})

	_, _, err := NewSheet().Extract(context.Background(), path, "", "")
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v, want invalid argument", err)
	}
	if !strings.Contains(err.Error(), "end column") {
		t.Fatalf("err = %v", err)
	}
}

func TestSheetExtractEmptySheet(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"Data", "Inicio", "Fim"},
	})

	rows, warns, err := NewSheet().Extract(context.Background(), path, "", "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rows) != 0 || len(warns) != 1 {
		t.Fatalf("rows = %v, warns = %v", rows, warns)
	}
}

func TestSheetExtractUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-sheet.xlsx")
	if err := writeGarbage(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := NewSheet().Extract(context.Background(), path, "", "")
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v, want invalid argument", err)
	}
}

func TestTruthy(t *testing.T) {
	for _, s := range []string{"1", "x", "Sim", "S", "TRUE", "yes"} {
		if !truthy(s) {
			t.Fatalf("truthy(%q) = false", s)
		}
	}
	for _, s := range []string{"", "0", "nao", "não", "no", "false"} {
		if truthy(s) {
			t.Fatalf("truthy(%q) = true", s)
		}
	}
}
