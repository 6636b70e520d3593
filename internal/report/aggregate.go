package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/period"
)

// Bucket is one period's slice of records with its totals.
type Bucket struct {
	Period       domain.Period
	Income       decimal.Decimal
	Expense      decimal.Decimal
	Transactions []domain.Transaction
	Expenses     []domain.Expense
}

func (b Bucket) Net() decimal.Decimal {
	return b.Income.Sub(b.Expense)
}

func newBucket(p domain.Period) Bucket {
	return Bucket{
		Period:       p,
		Income:       decimal.Zero,
		Expense:      decimal.Zero,
		Transactions: make([]domain.Transaction, 0),
		Expenses:     make([]domain.Expense, 0),
	}
}

func (b *Bucket) addTransaction(tx domain.Transaction) {
	b.Income = b.Income.Add(tx.Amount)
	b.Transactions = append(b.Transactions, tx)
}

func (b *Bucket) addExpense(exp domain.Expense) {
	b.Expense = b.Expense.Add(exp.Amount)
	b.Expenses = append(b.Expenses, exp)
}

// Select keeps the records with p.Start <= date < p.End and sums them.
func Select(p domain.Period, txs []domain.Transaction, exps []domain.Expense) Bucket {
	bucket := newBucket(p)
	for _, tx := range txs {
		if p.Contains(tx.Date) {
			bucket.addTransaction(tx)
		}
	}
	for _, exp := range exps {
		if p.Contains(exp.Date) {
			bucket.addExpense(exp)
		}
	}
	return bucket
}

// SplitMonths assigns every record of the Gregorian year to exactly one of
// twelve monthly buckets by its business-local month.
func SplitMonths(cal period.Calendar, year int, txs []domain.Transaction, exps []domain.Expense) []Bucket {
	periods := cal.MonthPeriods(year)
	return split(periods, txs, exps, func(t time.Time) int {
		y, m, _ := cal.LocalDate(t)
		if y != year {
			return -1
		}
		return int(m) - 1
	})
}

// SplitDays assigns every record of the month to exactly one daily bucket by
// its business-local day.
func SplitDays(cal period.Calendar, year int, month time.Month, txs []domain.Transaction, exps []domain.Expense) []Bucket {
	periods := cal.DayPeriods(year, month)
	return split(periods, txs, exps, func(t time.Time) int {
		y, m, d := cal.LocalDate(t)
		if y != year || m != month {
			return -1
		}
		return d - 1
	})
}

func split(periods []domain.Period, txs []domain.Transaction, exps []domain.Expense, index func(time.Time) int) []Bucket {
	buckets := make([]Bucket, len(periods))
	for i, p := range periods {
		buckets[i] = newBucket(p)
	}
	for _, tx := range txs {
		if i := index(tx.Date); i >= 0 && i < len(buckets) {
			buckets[i].addTransaction(tx)
		}
	}
	for _, exp := range exps {
		if i := index(exp.Date); i >= 0 && i < len(buckets) {
			buckets[i].addExpense(exp)
		}
	}
	return buckets
}
