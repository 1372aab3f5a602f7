// Package period resolves month, year and custom generation periods and the
// archive names derived from them.
package period

import (
	"fmt"
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/core"
)

// Supported year range and batch bounds for requests.
const (
	MinYear          = 2020
	MaxYear          = 2030
	MinBatchesPerDay = 1
	MaxBatchesPerDay = 100
)

// Kind is the granularity of a period.
type Kind string

const (
	KindMonth  Kind = "month"
	KindYear   Kind = "year"
	KindCustom Kind = "custom"
)

// Period is an inclusive range of days plus the prefix used for file names.
type Period struct {
	Kind   Kind      `json:"kind"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Prefix string    `json:"prefix"`
}

// Month returns the calendar month year-month.
func Month(year, month int) (Period, error) {
	if err := checkYear(year); err != nil {
		return Period{}, err
	}
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: month must be between 1 and 12, got %d", core.ErrInvalidPeriod, month)
	}
	start := core.Date(year, time.Month(month), 1)
	return Period{
		Kind:   KindMonth,
		Start:  start,
		End:    start.AddDate(0, 1, -1),
		Prefix: fmt.Sprintf("%d_%02d", year, month),
	}, nil
}

// Year returns January 1 to December 31 of year.
func Year(year int) (Period, error) {
	if err := checkYear(year); err != nil {
		return Period{}, err
	}
	return Period{
		Kind:   KindYear,
		Start:  core.Date(year, time.January, 1),
		End:    core.Date(year, time.December, 31),
		Prefix: fmt.Sprintf("%d_full_year", year),
	}, nil
}

// Custom returns [start, end]; end must not precede start and both dates
// fall in the supported years.
func Custom(start, end time.Time) (Period, error) {
	start, end = core.Day(start), core.Day(end)
	if end.Before(start) {
		return Period{}, fmt.Errorf("%w: end date must be after start date", core.ErrInvalidPeriod)
	}
	if err := checkYear(start.Year()); err != nil {
		return Period{}, err
	}
	if err := checkYear(end.Year()); err != nil {
		return Period{}, err
	}
	return Period{
		Kind:   KindCustom,
		Start:  start,
		End:    end,
		Prefix: fmt.Sprintf("%s_to_%s", start.Format(core.DateLayout), end.Format(core.DateLayout)),
	}, nil
}

// ParseCustom parses two YYYY-MM-DD dates into a custom period.
func ParseCustom(start, end string) (Period, error) {
	s, err := core.ParseDate(start)
	if err != nil {
		return Period{}, err
	}
	e, err := core.ParseDate(end)
	if err != nil {
		return Period{}, err
	}
	return Custom(s, e)
}

// Days is the number of days in the period.
func (p Period) Days() int {
	return core.DaysBetween(p.Start, p.End) + 1
}

// String renders the period as "start to end".
func (p Period) String() string {
	return p.Start.Format(core.DateLayout) + " to " + p.End.Format(core.DateLayout)
}

// ArchiveName is the download name of the period's ZIP, e.g. apr_data_2025_08.zip.
func (p Period) ArchiveName(base string) string {
	return fmt.Sprintf("%s_%s.zip", base, p.Prefix)
}

// ValidateBatchesPerDay checks the per-request batch bound.
func ValidateBatchesPerDay(n int) error {
	if n < MinBatchesPerDay || n > MaxBatchesPerDay {
		return fmt.Errorf("batches_per_day must be between %d and %d, got %d", MinBatchesPerDay, MaxBatchesPerDay, n)
	}
	return nil
}

func checkYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: year must be between %d and %d, got %d", core.ErrInvalidPeriod, MinYear, MaxYear, year)
	}
	return nil
}
