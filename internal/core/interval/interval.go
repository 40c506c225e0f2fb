// Package interval provides half-open time spans and the civil-day grid used
// to project absolute instants into per-day solver coordinates.
//
// All spans are half-open [Start, End): touching endpoints do not overlap.
// Day arithmetic is wall-clock in a tenant's IANA location, so a civil day
// is whatever the location says it is, including DST days that are not 24h
package interval

import (
	"time"

	perr "turna/internal/platform/errors"
)

// Span is a half-open absolute interval [Start, End)
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewSpan validates and returns a span; End must be strictly after Start
func NewSpan(start, end time.Time) (Span, error) {
	if !end.After(start) {
		return Span{}, perr.InvalidArgf("span end %s not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Span{Start: start, End: end}, nil
}

// Overlaps reports whether s and o share any instant
func (s Span) Overlaps(o Span) bool {
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

// Duration returns End - Start
func (s Span) Duration() time.Duration { return s.End.Sub(s.Start) }

// IsZero reports whether both endpoints are zero
func (s Span) IsZero() bool { return s.Start.IsZero() && s.End.IsZero() }

// HourRange is a half-open range of fractional hours within one civil day.
// To may exceed 24 when the underlying span crosses local midnight
type HourRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Overlaps reports whether h and o share any instant of the same day
func (h HourRange) Overlaps(o HourRange) bool {
	return h.From < o.To && o.From < h.To
}

// Hours returns To - From
func (h HourRange) Hours() float64 { return h.To - h.From }

// CivilDate truncates t to its civil date in loc, returned as a UTC
// midnight so date arithmetic is DST-free
func CivilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// HourOfDay returns the wall-clock fractional hour of t in loc
// (14:30 local -> 14.5), independent of UTC offset changes
func HourOfDay(t time.Time, loc *time.Location) float64 {
	lt := t.In(loc)
	return float64(lt.Hour()) + float64(lt.Minute())/60 + float64(lt.Second())/3600
}

// DayIndex returns the 1-based index of t's civil day in loc counted from
// dayOne (whose own civil date is day 1). Results outside a period are the
// caller's to discard
func DayIndex(t time.Time, dayOne time.Time, loc *time.Location) int {
	base := CivilDate(dayOne, loc)
	day := CivilDate(t, loc)
	return int(day.Sub(base).Hours()/24) + 1
}

// Localize projects an absolute span onto the civil-day grid anchored at
// dayOne. The returned day is the 1-based index of the span's first civil
// day; the hour range is wall-clock relative to that day's local midnight,
// with To exceeding 24 when the span runs past midnight
func Localize(s Span, dayOne time.Time, loc *time.Location) (day int, hr HourRange) {
	day = DayIndex(s.Start, dayOne, loc)
	dayDiff := DayIndex(s.End, dayOne, loc) - day
	hr = HourRange{
		From: HourOfDay(s.Start, loc),
		To:   float64(24*dayDiff) + HourOfDay(s.End, loc),
	}
	return day, hr
}

// DaySpan returns the absolute half-open span of the day-th civil day of a
// period anchored at dayOne. time.Date normalizes the day offset, so DST
// transitions inside the period yield 23h or 25h days as the location dictates
func DaySpan(dayOne time.Time, day int, loc *time.Location) Span {
	y, m, d := dayOne.In(loc).Date()
	start := time.Date(y, m, d+day-1, 0, 0, 0, 0, loc)
	end := time.Date(y, m, d+day, 0, 0, 0, 0, loc)
	return Span{Start: start, End: end}
}

// ClipToDay intersects s with the day-th civil day and returns the local
// hour range of the intersection; ok is false when they do not overlap
func ClipToDay(s Span, dayOne time.Time, day int, loc *time.Location) (HourRange, bool) {
	ds := DaySpan(dayOne, day, loc)
	if !s.Overlaps(ds) {
		return HourRange{}, false
	}
	from := 0.0
	if s.Start.After(ds.Start) {
		from = HourOfDay(s.Start, loc)
	}
	to := 24.0
	if s.End.Before(ds.End) {
		to = HourOfDay(s.End, loc)
	}
	return HourRange{From: from, To: to}, true
}
