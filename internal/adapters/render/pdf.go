// Package render implements the schedule PDF renderer on go-pdf/fpdf
package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	perr "turna/internal/platform/errors"
	"turna/internal/services/schedule/domain"
)

// PDF renders schedule documents, one landscape page per period day
type PDF struct{}

// New creates the renderer
func New() *PDF { return &PDF{} }

var _ domain.Renderer = (*PDF)(nil)

// Render implements domain.Renderer
func (p *PDF) Render(doc domain.Doc) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetAutoPageBreak(true, 15)

	for _, day := range doc.Days {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, doc.Title, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s  ·  Dia %d  ·  %s", doc.TenantName, day.Day, doc.Timezone), "", 1, "L", false, 0, "")
		pdf.Ln(4)

		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		widths := []float64{40, 70, 90, 35, 22}
		heads := []string{"Horario", "Profissional", "Procedimento", "Sala", "Pediatrico"}
		for i, h := range heads {
			pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 10)
		if len(day.Entries) == 0 {
			pdf.CellFormat(sum(widths), 8, "sem alocacoes", "1", 1, "C", false, 0, "")
		}
		for _, e := range day.Entries {
			member := e.MemberName
			if member == "" {
				member = "-"
			}
			peds := ""
			if e.IsPediatric {
				peds = "sim"
			}
			cells := []string{
				fmt.Sprintf("%s - %s", clock(e.Start), clock(e.End)),
				member,
				e.Procedure,
				e.Room,
				peds,
			}
			for i, c := range cells {
				pdf.CellFormat(widths[i], 8, c, "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "render pdf")
	}
	return buf.Bytes(), nil
}

// clock formats a fractional hour as HH:MM; hours past 24 mark the next day
func clock(h float64) string {
	days := int(h) / 24
	rem := h - float64(days*24)
	hh := int(rem)
	mm := int(math.Round((rem - float64(hh)) * 60))
	if mm == 60 {
		hh, mm = hh+1, 0
	}
	if days > 0 {
		return fmt.Sprintf("%02d:%02d+%d", hh, mm, days)
	}
	return fmt.Sprintf("%02d:%02d", hh, mm)
}

func sum(ws []float64) float64 {
	t := 0.0
	for _, w := range ws {
		t += w
	}
	return t
}
