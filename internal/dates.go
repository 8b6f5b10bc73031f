package internal

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// NewDate normalizes out-of-range values the same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses "YYYY-MM-DD". Full RFC 3339 timestamps are accepted too and
// truncated to their date, since older backups stored renewals that way.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// In returns local midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

// AddMonths adds n calendar months, clamping the day to the end of the target month.
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year, d.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := min(d.Day, daysIn(first.Year(), first.Month()))
	return Date{Year: first.Year(), Month: first.Month(), Day: day}
}

func daysIn(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b Date) int {
	ta := a.In(time.UTC)
	tb := b.In(time.UTC)
	return int(tb.Sub(ta) / (24 * time.Hour))
}

// DaysUntil returns the signed day count from now's calendar date to d.
// Zero means today, negative means d is in the past.
func DaysUntil(d Date, now time.Time) int {
	return DaysBetween(DateOf(now), d)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AdvanceByCadence adds exactly one cadence period to d.
func AdvanceByCadence(d Date, c Cadence) Date {
	return AddCadencePeriods(d, c, 1)
}

// AddCadencePeriods returns the date n whole periods after start. Month based
// cadences are computed from the anchor in one step, so a series that starts on
// the 31st lands on every month-end instead of drifting to the 28th.
func AddCadencePeriods(start Date, c Cadence, n int) Date {
	switch c {
	case CadenceWeekly:
		return start.AddDays(7 * n)
	case CadenceQuarterly:
		return start.AddMonths(3 * n)
	case CadenceYearly:
		return start.AddMonths(12 * n)
	default:
		return start.AddMonths(n)
	}
}

// NextRenewal returns the first date reachable from start by whole cadence
// periods that is not before today. A start date in the future is returned as is.
//
// Every candidate is start plus k periods, never the previous renewal plus one
// period. A monthly series starting Jan 31 renews Feb 28 then Mar 31, where a
// stepwise advance would settle on the 28th for good.
func NextRenewal(start Date, c Cadence, today Date) Date {
	next := start
	for k := 1; next.Before(today); k++ {
		next = AddCadencePeriods(start, c, k)
	}
	return next
}

// OnSchedule reports whether d is start plus a whole number of cadence periods.
func OnSchedule(start Date, c Cadence, d Date) bool {
	if d.Before(start) {
		return false
	}
	for k := 0; ; k++ {
		next := AddCadencePeriods(start, c, k)
		if next == d {
			return true
		}
		if next.After(d) {
			return false
		}
	}
}

// FormatDate renders d according to a settings date-format tag.
func FormatDate(d Date, format string) string {
	if d.IsZero() {
		return "-"
	}
	switch format {
	case DateFormatEU:
		return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
	case DateFormatISO:
		return d.String()
	default:
		return fmt.Sprintf("%02d/%02d/%04d", d.Month, d.Day, d.Year)
	}
}
