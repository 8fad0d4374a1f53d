package shared

import (
	"fmt"
	"time"
)

// Period identifies one payroll month.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// ErrInvalidPeriod indicates an out-of-range year or month.
var ErrInvalidPeriod = fmt.Errorf("shared: invalid period: %w", ErrValidation)

// NewPeriod validates and builds a Period.
func NewPeriod(year, month int) (Period, error) {
	if year < 2000 || year > 2100 || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: %04d-%02d", ErrInvalidPeriod, year, month)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}

// Start returns midnight UTC on the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns midnight UTC on the last day of the period.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p Period) IsZero() bool {
	return p.Year == 0
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
