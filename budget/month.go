package budget

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - Active period key (YYYY-MM)
// =============================================================================

// Month identifies a budget period. The zero value means "unset".
type Month struct {
	Year  int
	Month time.Month
}

const monthLayout = "2006-01"

// NewMonth builds a month key, normalising out-of-range months.
func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

// MustParseMonth is ParseMonth for tests and constants.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Arithmetic
func (m Month) AddMonths(n int) Month { return NewMonth(m.Year, m.Month+time.Month(n)) }
func (m Month) Next() Month           { return m.AddMonths(1) }

// Properties
func (m Month) IsZero() bool      { return m.Year == 0 && m.Month == 0 }
func (m Month) Start() time.Time  { return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC) }
func (m Month) Equal(o Month) bool { return m.Year == o.Year && m.Month == o.Month }

func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return m.Start().Format(monthLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text is the zero month.
func (m *Month) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
