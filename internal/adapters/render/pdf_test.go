package render

import (
	"bytes"
	"testing"

	"turna/internal/services/schedule/domain"
)

func TestRenderProducesPDF(t *testing.T) {
	doc := domain.Doc{
		Title:      "Escala - Ana - Dia 1",
		TenantName: "Grupo Anestesia",
		Timezone:   "America/Sao_Paulo",
		Days: []domain.DayView{
			{Day: 1, Entries: []domain.Entry{
				{MemberName: "Ana", Start: 8, End: 12.5, Procedure: "Colecistectomia", Room: "Sala 1", IsPediatric: true},
				{Start: 22, End: 26, Procedure: "Urgencia"},
			}},
			{Day: 2}, // empty day still gets a page
		},
	}

	out, err := New().Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not start with %%PDF: %q", out[:16])
	}
	if len(out) < 1000 {
		t.Fatalf("suspiciously small pdf: %d bytes", len(out))
	}
}

func TestClockFormatting(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00"},
		{8, "08:00"},
		{12.5, "12:30"},
		{13.75, "13:45"},
		{26, "02:00+1"},
		{23.999, "24:00"}, // rounds up within the same day
	}
	for _, tc := range cases {
		if got := clock(tc.in); got != tc.want {
			t.Fatalf("clock(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
