package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/logger"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/period"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/report"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/settings"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/store"
)

var ErrForbidden = errors.New("forbidden")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Staff report ranges.
const (
	RangeToday = "today"
	RangeWeek  = "week"
	RangeMonth = "month"
	RangeYear  = "year"
)

var rangeKinds = map[string]domain.PeriodKind{
	RangeToday: domain.PeriodDay,
	RangeWeek:  domain.PeriodWeek,
	RangeMonth: domain.PeriodMonth,
	RangeYear:  domain.PeriodYear,
}

type Options struct {
	Clock  func() time.Time
	Logger logrus.FieldLogger
}

// Service fetches records for a resolved period and hands them to the
// report composer. It holds no state between calls.
type Service struct {
	records  store.RecordReader
	settings settings.Store
	composer *report.Composer
	clock    func() time.Time
	log      logrus.FieldLogger
}

func New(records store.RecordReader, settingsStore settings.Store, composer *report.Composer, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Service{
		records:  records,
		settings: settingsStore,
		composer: composer,
		clock:    opts.Clock,
		log:      opts.Logger,
	}
}

func (s *Service) Now() time.Time {
	return s.clock().UTC()
}

func (s *Service) Calendar() period.Calendar {
	return s.composer.Calendar()
}

// CompleteSpec fills a missing year, month or day from the local period
// containing now. A filled-in year is Gregorian.
func (s *Service) CompleteSpec(spec domain.PeriodSpec, now time.Time) domain.PeriodSpec {
	if spec.Kind == "" {
		spec.Kind = domain.PeriodMonth
	}
	current := s.Calendar().CurrentSpec(domain.PeriodDay, now)
	if spec.Year == 0 {
		spec.Year = current.Year
		spec.Calendar = domain.CalendarGregorian
	}
	if spec.Kind != domain.PeriodYear && spec.Month == 0 {
		spec.Month = current.Month
	}
	if (spec.Kind == domain.PeriodDay || spec.Kind == domain.PeriodWeek) && spec.Day == 0 {
		spec.Day = current.Day
	}
	return spec
}

// Aggregate resolves spec, fetches the records of that period and composes
// the report. The period comes entirely from spec; now is only logged.
func (s *Service) Aggregate(ctx context.Context, spec domain.PeriodSpec, now time.Time) (domain.AggregateResult, error) {
	p, err := s.Calendar().Resolve(spec)
	if err != nil {
		return domain.AggregateResult{}, err
	}
	txs, exps, err := s.fetch(ctx, p.Start, p.End)
	if err != nil {
		return domain.AggregateResult{}, err
	}

	result := s.composer.Compose(p, txs, exps)
	logger.FromContext(ctx, s.log).WithFields(logrus.Fields{
		"kind":         p.Kind,
		"start":        p.Start,
		"end":          p.End,
		"transactions": result.TransactionCount,
		"now":          now.UTC(),
	}).Debug("aggregate composed")
	return result, nil
}

// YearReport builds the twelve-month series. year 0 means the current year.
func (s *Service) YearReport(ctx context.Context, year int, calendar domain.CalendarSystem, now time.Time) (domain.YearReport, error) {
	spec := domain.PeriodSpec{Kind: domain.PeriodYear, Year: year, Calendar: calendar}
	if year == 0 {
		spec = s.Calendar().CurrentSpec(domain.PeriodYear, now)
	}
	p, err := s.Calendar().Resolve(spec)
	if err != nil {
		return domain.YearReport{}, err
	}
	txs, exps, err := s.fetch(ctx, p.Start, p.End)
	if err != nil {
		return domain.YearReport{}, err
	}
	return s.composer.ComposeYear(p.Year, now, txs, exps), nil
}

func (s *Service) Dashboard(ctx context.Context, now time.Time) (domain.Dashboard, error) {
	month, err := s.Calendar().Current(domain.PeriodMonth, now)
	if err != nil {
		return domain.Dashboard{}, err
	}

	var (
		txs     []domain.Transaction
		exps    []domain.Expense
		current domain.BusinessSettings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, exps, err = s.fetch(gctx, month.Start, month.End)
		return err
	})
	g.Go(func() error {
		var err error
		current, err = s.settings.Get(gctx)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Dashboard{}, err
	}
	return s.composer.ComposeDashboard(now, txs, exps, current), nil
}

// StaffReport groups sales per employee. Without a date the range runs from
// the start of the current day/week/month/year to the end of today; with a
// date (YYYY-MM-DD, local) it covers the whole period containing that date.
func (s *Service) StaffReport(ctx context.Context, rangeName string, date string, now time.Time) (domain.StaffReport, error) {
	rangeName = strings.ToLower(strings.TrimSpace(rangeName))
	if rangeName == "" {
		rangeName = RangeToday
	}
	kind, ok := rangeKinds[rangeName]
	if !ok {
		return domain.StaffReport{}, fmt.Errorf("%w: unknown range %q", period.ErrInvalidPeriod, rangeName)
	}

	var (
		p   domain.Period
		err error
	)
	if strings.TrimSpace(date) == "" {
		p, err = s.Calendar().ToDate(kind, now)
	} else {
		var day time.Time
		day, err = time.Parse("2006-01-02", strings.TrimSpace(date))
		if err != nil {
			return domain.StaffReport{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", period.ErrInvalidPeriod, date)
		}
		p, err = s.Calendar().Resolve(domain.PeriodSpec{
			Kind:     kind,
			Year:     day.Year(),
			Month:    int(day.Month()),
			Day:      day.Day(),
			Calendar: domain.CalendarGregorian,
		})
	}
	if err != nil {
		return domain.StaffReport{}, err
	}

	txs, err := s.records.FetchTransactions(ctx, p.Start, p.End)
	if err != nil {
		return domain.StaffReport{}, fmt.Errorf("fetch transactions: %w", err)
	}
	bucket := report.Select(p, txs, nil)
	return domain.StaffReport{
		Range:     rangeName,
		Period:    p,
		Total:     bucket.Income,
		Employees: s.composer.GroupByEmployee(bucket.Transactions),
	}, nil
}

func (s *Service) Settings(ctx context.Context) (domain.BusinessSettings, error) {
	return s.settings.Get(ctx)
}

func (s *Service) UpdateSettings(ctx context.Context, value domain.BusinessSettings) (domain.BusinessSettings, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.BusinessSettings{}, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	saved, err := s.settings.Put(ctx, value)
	if err != nil {
		return domain.BusinessSettings{}, err
	}
	logger.FromContext(ctx, s.log).WithField("actor", actor.Username).Info("business settings updated")
	return saved, nil
}

// fetch loads transactions and expenses for [from, to) concurrently.
func (s *Service) fetch(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, []domain.Expense, error) {
	var (
		txs  []domain.Transaction
		exps []domain.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.records.FetchTransactions(gctx, from, to)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		exps, err = s.records.FetchExpenses(gctx, from, to)
		if err != nil {
			return fmt.Errorf("fetch expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txs, exps, nil
}
