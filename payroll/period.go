package payroll

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Pay periods are whole calendar months
// =============================================================================

// Month identifies a pay period (year + calendar month).
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses "YYYY-MM" into a Month.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Valid reports whether the month is well-formed.
func (m Month) Valid() bool {
	return m.Year > 0 && m.Month >= time.January && m.Month <= time.December
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Span resolves the month to its inclusive [first day, last day] period.
func (m Month) Span() Period {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return Period{Start: start, End: end}
}

// Period is an inclusive day range [Start, End].
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t falls within the period at day granularity.
func (p Period) Contains(t time.Time) bool {
	day := t.Truncate(24 * time.Hour)
	return !day.Before(p.Start) && !day.After(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + "]"
}
