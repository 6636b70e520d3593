package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
)

var bangkok = time.FixedZone("ICT", 7*3600)

// bkk parses a Bangkok wall-clock time ("2006-01-02T15:04") into UTC.
func bkk(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02T15:04", value, bangkok)
	require.NoError(t, err)
	return parsed.UTC()
}

func money(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, money(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func sale(id string, at time.Time, amount string, employee string, method domain.PaymentMethod, items ...domain.LineItem) domain.Transaction {
	return domain.Transaction{
		ID:            id,
		Date:          at,
		Amount:        money(amount),
		PaymentMethod: method,
		EmployeeName:  employee,
		CustomerName:  "customer-" + id,
		Items:         items,
	}
}

func item(serviceID string, category domain.Category, qty int, unitPrice string) domain.LineItem {
	return domain.LineItem{
		ServiceID:   serviceID,
		ServiceName: "service " + serviceID,
		Category:    category,
		Quantity:    qty,
		UnitPrice:   money(unitPrice),
	}
}

func expense(id string, at time.Time, amount string, category string) domain.Expense {
	return domain.Expense{
		ID:          id,
		Date:        at,
		Amount:      money(amount),
		Category:    category,
		Description: "expense " + id,
	}
}
