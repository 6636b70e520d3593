package report

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
)

const (
	DefaultUnassignedLabel = "Unassigned"

	unknownPaymentMethod domain.PaymentMethod = "UNKNOWN"
)

type employeeGroup struct {
	summary  domain.EmployeeSummary
	byMethod map[domain.PaymentMethod]int
}

func newEmployeeGroup(name string) *employeeGroup {
	group := &employeeGroup{
		summary: domain.EmployeeSummary{
			EmployeeName:   name,
			TotalAmount:    decimal.Zero,
			PaymentMethods: make([]domain.PaymentSubtotal, 0, len(domain.KnownPaymentMethods)),
			Transactions:   make([]domain.Transaction, 0),
		},
		byMethod: make(map[domain.PaymentMethod]int, len(domain.KnownPaymentMethods)),
	}
	for _, method := range domain.KnownPaymentMethods {
		group.addMethod(method)
	}
	return group
}

func (g *employeeGroup) addMethod(method domain.PaymentMethod) int {
	g.summary.PaymentMethods = append(g.summary.PaymentMethods, domain.PaymentSubtotal{
		PaymentMethod: method,
		Label:         method.Label(),
		Amount:        decimal.Zero,
	})
	idx := len(g.summary.PaymentMethods) - 1
	g.byMethod[method] = idx
	return idx
}

func (g *employeeGroup) add(tx domain.Transaction) {
	method := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(tx.PaymentMethod))))
	if method == "" {
		method = unknownPaymentMethod
	}
	idx, ok := g.byMethod[method]
	if !ok {
		idx = g.addMethod(method)
	}
	sub := &g.summary.PaymentMethods[idx]
	sub.Amount = sub.Amount.Add(tx.Amount)
	sub.Count++

	g.summary.TotalAmount = g.summary.TotalAmount.Add(tx.Amount)
	g.summary.TransactionCount++
	g.summary.Transactions = append(g.summary.Transactions, tx)
}

func (g *employeeGroup) finish() domain.EmployeeSummary {
	// Known channels keep their fixed order; extra channels follow by key.
	known := len(domain.KnownPaymentMethods)
	extra := g.summary.PaymentMethods[known:]
	slices.SortFunc(extra, func(a, b domain.PaymentSubtotal) int {
		return strings.Compare(string(a.PaymentMethod), string(b.PaymentMethod))
	})
	slices.SortStableFunc(g.summary.Transactions, func(a, b domain.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return g.summary
}

// NormalizeEmployee maps a blank employee name to the placeholder label.
func NormalizeEmployee(name string, placeholder string) string {
	name = strings.TrimSpace(name)
	if name != "" {
		return name
	}
	if placeholder = strings.TrimSpace(placeholder); placeholder == "" {
		placeholder = DefaultUnassignedLabel
	}
	return placeholder
}

// GroupByEmployee groups transactions per employee and then per payment
// method. Every employee total equals the sum of its method sub-totals.
// Employees are ordered by total descending, then by name.
func GroupByEmployee(txs []domain.Transaction, placeholder string) []domain.EmployeeSummary {
	groups := map[string]*employeeGroup{}
	for _, tx := range txs {
		name := NormalizeEmployee(tx.EmployeeName, placeholder)
		group := groups[name]
		if group == nil {
			group = newEmployeeGroup(name)
			groups[name] = group
		}
		group.add(tx)
	}

	result := make([]domain.EmployeeSummary, 0, len(groups))
	for _, group := range groups {
		result = append(result, group.finish())
	}
	slices.SortFunc(result, func(a, b domain.EmployeeSummary) int {
		if c := b.TotalAmount.Cmp(a.TotalAmount); c != 0 {
			return c
		}
		return strings.Compare(a.EmployeeName, b.EmployeeName)
	})
	return result
}
