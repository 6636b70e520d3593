package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/period"
)

var thaiMonthsShort = [12]string{
	"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.",
	"ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค.",
}

func MonthLabel(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return thaiMonthsShort[month-1]
}

// Options carries the per-business knobs every aggregation call needs.
type Options struct {
	TopN            int
	UnassignedLabel string
}

type Composer struct {
	cal  period.Calendar
	opts Options
}

func NewComposer(cal period.Calendar, opts Options) *Composer {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.UnassignedLabel == "" {
		opts.UnassignedLabel = DefaultUnassignedLabel
	}
	return &Composer{cal: cal, opts: opts}
}

func (c *Composer) Calendar() period.Calendar {
	return c.cal
}

// Compose builds the report for one resolved period. Records outside the
// period are ignored, so callers may pass a wider fetch.
func (c *Composer) Compose(p domain.Period, txs []domain.Transaction, exps []domain.Expense) domain.AggregateResult {
	bucket := Select(p, txs, exps)
	return domain.AggregateResult{
		Period:            p,
		Year:              period.ToBuddhistEra(p.Year),
		TotalIncome:       bucket.Income,
		TotalExpense:      bucket.Expense,
		NetProfit:         bucket.Net(),
		TransactionCount:  int64(len(bucket.Transactions)),
		CategoryBreakdown: RollupCategories(bucket.Transactions),
		ExpenseBreakdown:  RollupExpenseCategories(bucket.Expenses),
		TopServices:       TopServices(bucket.Transactions, c.opts.TopN),
		EmployeeBreakdown: GroupByEmployee(bucket.Transactions, c.opts.UnassignedLabel),
	}
}

// GroupByEmployee applies the configured placeholder for unnamed staff.
func (c *Composer) GroupByEmployee(txs []domain.Transaction) []domain.EmployeeSummary {
	return GroupByEmployee(txs, c.opts.UnassignedLabel)
}

// ComposeYear adds the twelve-month income/expense series to the yearly
// summary. now marks the current month when it falls inside the year.
func (c *Composer) ComposeYear(year int, now time.Time, txs []domain.Transaction, exps []domain.Expense) domain.YearReport {
	yearPeriod := domain.Period{
		Kind:  domain.PeriodYear,
		Year:  year,
		Start: c.cal.Midnight(year, time.January, 1),
		End:   c.cal.Midnight(year+1, time.January, 1),
	}

	buckets := SplitMonths(c.cal, year, txs, exps)
	monthly := make([]domain.MonthlyEntry, 0, len(buckets))
	for _, bucket := range buckets {
		monthly = append(monthly, domain.MonthlyEntry{
			Month:            bucket.Period.Month,
			Label:            MonthLabel(bucket.Period.Month),
			Income:           bucket.Income,
			Expenses:         bucket.Expense,
			NetProfit:        bucket.Net(),
			TransactionCount: int64(len(bucket.Transactions)),
			ExpenseCount:     int64(len(bucket.Expenses)),
			Period:           bucket.Period,
		})
	}

	report := domain.YearReport{
		Year:          period.ToBuddhistEra(year),
		GregorianYear: year,
		Monthly:       monthly,
		Summary:       c.Compose(yearPeriod, txs, exps),
	}
	if y, m, _ := c.cal.LocalDate(now); y == year {
		report.CurrentMonth = int(m)
		report.CurrentMonthName = MonthLabel(int(m))
	}
	return report
}

// ComposeDashboard summarises the local day and month containing now and
// measures them against the configured sales targets.
func (c *Composer) ComposeDashboard(now time.Time, txs []domain.Transaction, exps []domain.Expense, settings domain.BusinessSettings) domain.Dashboard {
	today := c.cal.Today(now)
	month, _ := c.cal.Current(domain.PeriodMonth, now)

	todayBucket := Select(today, txs, exps)
	monthBucket := Select(month, txs, exps)

	return domain.Dashboard{
		StoreName:         settings.StoreName,
		Date:              fmt.Sprintf("%04d-%02d-%02d", today.Year, today.Month, today.Day),
		Year:              period.ToBuddhistEra(today.Year),
		TodayRevenue:      todayBucket.Income,
		TodayTransactions: int64(len(todayBucket.Transactions)),
		MonthRevenue:      monthBucket.Income,
		MonthExpenses:     monthBucket.Expense,
		MonthNetProfit:    monthBucket.Net(),
		DailyTarget:       progress(settings.DailyTarget, todayBucket.Income),
		MonthlyTarget:     progress(settings.MonthlyTarget, monthBucket.Income),
	}
}

var hundred = decimal.NewFromInt(100)

func progress(target decimal.Decimal, actual decimal.Decimal) domain.TargetProgress {
	result := domain.TargetProgress{
		Target:  target,
		Actual:  actual,
		Percent: decimal.Zero,
	}
	if !target.IsPositive() {
		return result
	}
	result.Percent = actual.Mul(hundred).DivRound(target, 2)
	result.Reached = actual.GreaterThanOrEqual(target)
	return result
}
