package types

import (
	"fmt"
	"time"
)

// Period identifies one calendar month, the bucketing granularity used by
// every engine. The zero Period is "no period".
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the Period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses the "2006-01" form produced by String.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("types: parse period %q: %w", s, err)
	}
	return PeriodOf(t), nil
}

// PeriodFromIndex is the inverse of Index.
func PeriodFromIndex(i int) Period {
	return Period{Year: i / 12, Month: time.Month(i%12 + 1)}
}

// String renders the period as "2006-01".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Index maps the period onto a monotone integer scale (one step per month),
// so that period arithmetic is plain int arithmetic.
func (p Period) Index() int {
	return p.Year*12 + int(p.Month) - 1
}

// Add returns the period n months after p (n may be negative).
func (p Period) Add(n int) Period {
	return PeriodFromIndex(p.Index() + n)
}

// Next returns the following month.
func (p Period) Next() Period {
	return p.Add(1)
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool {
	return p.Index() < o.Index()
}

// After reports whether p is strictly later than o.
func (p Period) After(o Period) bool {
	return p.Index() > o.Index()
}

// IsZero reports whether p is the zero Period.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Time returns midnight UTC on the first day of the period.
func (p Period) Time() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// MarshalText implements encoding.TextMarshaler so periods serialise as
// "2006-01" in JSON and YAML.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
