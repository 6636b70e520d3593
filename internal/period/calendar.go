// Package period resolves local calendar periods of a fixed-offset business
// timezone into half-open UTC intervals.
//
// Nothing in this package reads the host timezone. Every "current" period is
// derived from a caller-supplied UTC instant plus the configured offset.
package period

import (
	"errors"
	"fmt"
	"time"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
)

var ErrInvalidPeriod = errors.New("invalid period")

const (
	// DefaultOffset is Asia/Bangkok (UTC+07:00, no daylight saving).
	DefaultOffset = 7 * time.Hour
	// DefaultBuddhistEraThreshold: auto-detected input years above this are BE.
	DefaultBuddhistEraThreshold = 2500
)

type Calendar struct {
	offset      time.Duration
	beThreshold int
}

func New(offset time.Duration, beThreshold int) Calendar {
	if beThreshold <= 0 {
		beThreshold = DefaultBuddhistEraThreshold
	}
	return Calendar{offset: offset, beThreshold: beThreshold}
}

func Default() Calendar {
	return New(DefaultOffset, DefaultBuddhistEraThreshold)
}

func (c Calendar) Offset() time.Duration {
	return c.offset
}

// ResolveYear converts an input year to Gregorian. Only apply it to years
// supplied by a caller; years computed from instants are already Gregorian.
func (c Calendar) ResolveYear(year int, system domain.CalendarSystem) int {
	switch system {
	case domain.CalendarBuddhist:
		return year - domain.BuddhistEraOffset
	case domain.CalendarGregorian:
		return year
	default:
		if year > c.beThreshold {
			return year - domain.BuddhistEraOffset
		}
		return year
	}
}

// ToBuddhistEra re-expresses a Gregorian year for display.
func ToBuddhistEra(gregorianYear int) int {
	return gregorianYear + domain.BuddhistEraOffset
}

// Midnight returns the UTC instant of local 00:00 on Gregorian (y, m, d).
// Out-of-range days normalise the way time.Date does, so d=0 is the last day
// of the previous month.
func (c Calendar) Midnight(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(-c.offset)
}

// LocalDate is the business-local calendar date of t.
func (c Calendar) LocalDate(t time.Time) (int, time.Month, int) {
	local := t.UTC().Add(c.offset)
	return local.Year(), local.Month(), local.Day()
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (c Calendar) Resolve(spec domain.PeriodSpec) (domain.Period, error) {
	switch spec.Calendar {
	case domain.CalendarAuto, domain.CalendarGregorian, domain.CalendarBuddhist:
	default:
		return domain.Period{}, fmt.Errorf("%w: unknown calendar %q", ErrInvalidPeriod, spec.Calendar)
	}

	year := c.ResolveYear(spec.Year, spec.Calendar)
	if year < 1 || year > 9999 {
		return domain.Period{}, fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, spec.Year)
	}

	switch spec.Kind {
	case domain.PeriodYear:
		return domain.Period{
			Kind:  domain.PeriodYear,
			Year:  year,
			Start: c.Midnight(year, time.January, 1),
			End:   c.Midnight(year+1, time.January, 1),
		}, nil
	case domain.PeriodMonth:
		if err := validateMonth(spec.Month); err != nil {
			return domain.Period{}, err
		}
		month := time.Month(spec.Month)
		return domain.Period{
			Kind:  domain.PeriodMonth,
			Year:  year,
			Month: spec.Month,
			Start: c.Midnight(year, month, 1),
			End:   c.Midnight(year, month+1, 1),
		}, nil
	case domain.PeriodDay:
		if err := validateDay(year, spec.Month, spec.Day); err != nil {
			return domain.Period{}, err
		}
		month := time.Month(spec.Month)
		return domain.Period{
			Kind:  domain.PeriodDay,
			Year:  year,
			Month: spec.Month,
			Day:   spec.Day,
			Start: c.Midnight(year, month, spec.Day),
			End:   c.Midnight(year, month, spec.Day+1),
		}, nil
	case domain.PeriodWeek:
		if err := validateDay(year, spec.Month, spec.Day); err != nil {
			return domain.Period{}, err
		}
		// Weeks start on Monday.
		date := time.Date(year, time.Month(spec.Month), spec.Day, 0, 0, 0, 0, time.UTC)
		back := (int(date.Weekday()) + 6) % 7
		monday := date.AddDate(0, 0, -back)
		return domain.Period{
			Kind:  domain.PeriodWeek,
			Year:  monday.Year(),
			Month: int(monday.Month()),
			Day:   monday.Day(),
			Start: c.Midnight(monday.Year(), monday.Month(), monday.Day()),
			End:   c.Midnight(monday.Year(), monday.Month(), monday.Day()+7),
		}, nil
	default:
		return domain.Period{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidPeriod, spec.Kind)
	}
}

// CurrentSpec describes the local period of the given kind containing now.
// The year is marked Gregorian so it is never re-read as Buddhist Era.
func (c Calendar) CurrentSpec(kind domain.PeriodKind, now time.Time) domain.PeriodSpec {
	y, m, d := c.LocalDate(now)
	spec := domain.PeriodSpec{Kind: kind, Year: y, Calendar: domain.CalendarGregorian}
	switch kind {
	case domain.PeriodMonth:
		spec.Month = int(m)
	case domain.PeriodDay, domain.PeriodWeek:
		spec.Month = int(m)
		spec.Day = d
	}
	return spec
}

func (c Calendar) Current(kind domain.PeriodKind, now time.Time) (domain.Period, error) {
	return c.Resolve(c.CurrentSpec(kind, now))
}

func (c Calendar) Today(now time.Time) domain.Period {
	p, _ := c.Current(domain.PeriodDay, now)
	return p
}

// ToDate runs from the start of the current period of the given kind up to
// the end of the local day containing now.
func (c Calendar) ToDate(kind domain.PeriodKind, now time.Time) (domain.Period, error) {
	p, err := c.Current(kind, now)
	if err != nil {
		return domain.Period{}, err
	}
	p.End = c.Today(now).End
	return p, nil
}

// MonthPeriods partitions a Gregorian year into its twelve local months.
func (c Calendar) MonthPeriods(year int) []domain.Period {
	periods := make([]domain.Period, 0, 12)
	for m := time.January; m <= time.December; m++ {
		periods = append(periods, domain.Period{
			Kind:  domain.PeriodMonth,
			Year:  year,
			Month: int(m),
			Start: c.Midnight(year, m, 1),
			End:   c.Midnight(year, m+1, 1),
		})
	}
	return periods
}

// DayPeriods partitions a Gregorian month into its local days.
func (c Calendar) DayPeriods(year int, month time.Month) []domain.Period {
	days := DaysIn(year, month)
	periods := make([]domain.Period, 0, days)
	for d := 1; d <= days; d++ {
		periods = append(periods, domain.Period{
			Kind:  domain.PeriodDay,
			Year:  year,
			Month: int(month),
			Day:   d,
			Start: c.Midnight(year, month, d),
			End:   c.Midnight(year, month, d+1),
		})
	}
	return periods
}

func validateMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, month)
	}
	return nil
}

func validateDay(year int, month int, day int) error {
	if err := validateMonth(month); err != nil {
		return err
	}
	if days := DaysIn(year, time.Month(month)); day < 1 || day > days {
		return fmt.Errorf("%w: day %d out of range for %04d-%02d", ErrInvalidPeriod, day, year, month)
	}
	return nil
}
