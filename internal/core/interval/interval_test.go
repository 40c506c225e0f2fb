package interval

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%s): %v", name, err)
	}
	return loc
}

func TestSpanOverlapsHalfOpen(t *testing.T) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	mk := func(fromH, toH int) Span {
		return Span{Start: base.Add(time.Duration(fromH) * time.Hour), End: base.Add(time.Duration(toH) * time.Hour)}
	}
	cases := []struct {
		name string
		a, b Span
		want bool
	}{
		{"disjoint", mk(0, 2), mk(3, 5), false},
		{"touching endpoints", mk(0, 2), mk(2, 4), false},
		{"touching reversed", mk(2, 4), mk(0, 2), false},
		{"partial", mk(0, 3), mk(2, 5), true},
		{"contained", mk(0, 6), mk(2, 3), true},
		{"identical", mk(1, 2), mk(1, 2), true},
	}
	for _, c := range cases {
		if got := c.a.Overlaps(c.b); got != c.want {
			t.Fatalf("%s: Overlaps = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestNewSpanRejectsNonPositive(t *testing.T) {
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	if _, err := NewSpan(at, at); err == nil {
		t.Fatalf("expected error for zero-length span")
	}
	if _, err := NewSpan(at, at.Add(-time.Hour)); err == nil {
		t.Fatalf("expected error for inverted span")
	}
	if _, err := NewSpan(at, at.Add(time.Minute)); err != nil {
		t.Fatalf("unexpected error for valid span: %v", err)
	}
}

func TestHourRangeOverlaps(t *testing.T) {
	a := HourRange{From: 8, To: 12}
	if a.Overlaps(HourRange{From: 12, To: 14}) {
		t.Fatalf("touching hour ranges must not overlap")
	}
	if !a.Overlaps(HourRange{From: 11.5, To: 13}) {
		t.Fatalf("expected overlap")
	}
	// overnight To past 24 still compares on the same axis
	night := HourRange{From: 22, To: 30}
	if !night.Overlaps(HourRange{From: 23, To: 24}) {
		t.Fatalf("expected overnight overlap")
	}
}

func TestDayIndexAcrossTimezones(t *testing.T) {
	sp := mustLoc(t, "America/Sao_Paulo")
	dayOne := time.Date(2025, 3, 1, 0, 0, 0, 0, sp)

	// 2025-03-02 01:30 UTC is still 2025-03-01 22:30 in Sao Paulo (UTC-3)
	inst := time.Date(2025, 3, 2, 1, 30, 0, 0, time.UTC)
	if got := DayIndex(inst, dayOne, sp); got != 1 {
		t.Fatalf("DayIndex = %d, want 1 (local date governs)", got)
	}
	if got := DayIndex(inst, dayOne, time.UTC); got != 2 {
		t.Fatalf("DayIndex in UTC = %d, want 2", got)
	}
	// before the period
	early := time.Date(2025, 2, 28, 12, 0, 0, 0, sp)
	if got := DayIndex(early, dayOne, sp); got != 0 {
		t.Fatalf("DayIndex before period = %d, want 0", got)
	}
}

func TestDayIndexAcrossDSTTransition(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	// 2024-03-10 is a 23h day (spring forward). Counting civil days must not drift
	dayOne := time.Date(2024, 3, 9, 0, 0, 0, 0, ny)
	after := time.Date(2024, 3, 12, 9, 0, 0, 0, ny)
	if got := DayIndex(after, dayOne, ny); got != 4 {
		t.Fatalf("DayIndex across DST = %d, want 4", got)
	}
}

func TestLocalizeOvernightSpan(t *testing.T) {
	sp := mustLoc(t, "America/Sao_Paulo")
	dayOne := time.Date(2025, 6, 1, 0, 0, 0, 0, sp)

	span := Span{
		Start: time.Date(2025, 6, 3, 22, 0, 0, 0, sp),
		End:   time.Date(2025, 6, 4, 6, 0, 0, 0, sp),
	}
	day, hr := Localize(span, dayOne, sp)
	if day != 3 {
		t.Fatalf("day = %d, want 3", day)
	}
	if hr.From != 22 || hr.To != 30 {
		t.Fatalf("hours = [%v,%v), want [22,30)", hr.From, hr.To)
	}
}

func TestLocalizeFractionalHours(t *testing.T) {
	sp := mustLoc(t, "America/Sao_Paulo")
	dayOne := time.Date(2025, 6, 1, 0, 0, 0, 0, sp)
	span := Span{
		Start: time.Date(2025, 6, 1, 7, 30, 0, 0, sp),
		End:   time.Date(2025, 6, 1, 11, 45, 0, 0, sp),
	}
	day, hr := Localize(span, dayOne, sp)
	if day != 1 || hr.From != 7.5 || hr.To != 11.75 {
		t.Fatalf("got day=%d hours=[%v,%v), want day=1 [7.5,11.75)", day, hr.From, hr.To)
	}
}

func TestDaySpanAndClip(t *testing.T) {
	sp := mustLoc(t, "America/Sao_Paulo")
	dayOne := time.Date(2025, 6, 1, 0, 0, 0, 0, sp)

	ds := DaySpan(dayOne, 2, sp)
	if !ds.Start.Equal(time.Date(2025, 6, 2, 0, 0, 0, 0, sp)) {
		t.Fatalf("DaySpan start = %v", ds.Start)
	}
	if ds.Duration() != 24*time.Hour {
		t.Fatalf("DaySpan duration = %v", ds.Duration())
	}

	// vacation from day 2 noon through day 4: clips per day
	vac := Span{
		Start: time.Date(2025, 6, 2, 12, 0, 0, 0, sp),
		End:   time.Date(2025, 6, 4, 0, 0, 0, 0, sp),
	}
	if hr, ok := ClipToDay(vac, dayOne, 2, sp); !ok || hr.From != 12 || hr.To != 24 {
		t.Fatalf("day 2 clip = %+v ok=%v", hr, ok)
	}
	if hr, ok := ClipToDay(vac, dayOne, 3, sp); !ok || hr.From != 0 || hr.To != 24 {
		t.Fatalf("day 3 clip = %+v ok=%v", hr, ok)
	}
	if _, ok := ClipToDay(vac, dayOne, 4, sp); ok {
		t.Fatalf("day 4 should not clip (half-open end)")
	}
	if _, ok := ClipToDay(vac, dayOne, 1, sp); ok {
		t.Fatalf("day 1 should not clip")
	}
}
