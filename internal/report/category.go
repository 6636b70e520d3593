package report

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
)

// RollupCategories sums line-item revenue per category. Unknown categories
// land in OTHERS; categories without positive revenue are omitted. Entries
// follow domain.Categories order.
func RollupCategories(txs []domain.Transaction) []domain.CategoryTotal {
	totals := make(map[domain.Category]decimal.Decimal, len(domain.Categories))
	for _, tx := range txs {
		for _, item := range tx.Items {
			category := item.Category.Normalize()
			totals[category] = totals[category].Add(item.Revenue())
		}
	}

	result := make([]domain.CategoryTotal, 0, len(totals))
	for _, category := range domain.Categories {
		value, ok := totals[category]
		if !ok || !value.IsPositive() {
			continue
		}
		result = append(result, domain.CategoryTotal{
			Category: category,
			Label:    category.Label(),
			Value:    value,
		})
	}
	return result
}

// RollupExpenseCategories sums expenses per free-form category, largest
// first and then by name.
func RollupExpenseCategories(exps []domain.Expense) []domain.ExpenseCategoryTotal {
	byCategory := map[string]*domain.ExpenseCategoryTotal{}
	for _, exp := range exps {
		name := strings.TrimSpace(exp.Category)
		if name == "" {
			name = domain.DefaultExpenseCategory
		}
		entry := byCategory[name]
		if entry == nil {
			entry = &domain.ExpenseCategoryTotal{Category: name, Amount: decimal.Zero}
			byCategory[name] = entry
		}
		entry.Amount = entry.Amount.Add(exp.Amount)
		entry.Count++
	}

	result := make([]domain.ExpenseCategoryTotal, 0, len(byCategory))
	for _, entry := range byCategory {
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b domain.ExpenseCategoryTotal) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return result
}
