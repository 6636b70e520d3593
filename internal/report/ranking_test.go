package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
)

func TestTopServicesTieBreakByServiceID(t *testing.T) {
	at := bkk(t, "2026-02-01T10:00")
	txs := []domain.Transaction{
		sale("t1", at, "200", "", domain.PaymentCash, item("c", domain.CategoryNails, 1, "200")),
		sale("t2", at, "500", "", domain.PaymentCash, item("b", domain.CategoryNails, 1, "500")),
		sale("t3", at, "500", "", domain.PaymentCash, item("a", domain.CategoryBrows, 2, "250")),
	}

	for i := 0; i < 20; i++ {
		top := TopServices(txs, 2)
		require.Len(t, top, 2)
		assert.Equal(t, "a", top[0].ServiceID)
		assert.Equal(t, "b", top[1].ServiceID)
	}
}

func TestTopServicesAccumulatesRevenueAndUnits(t *testing.T) {
	at := bkk(t, "2026-02-01T10:00")
	txs := []domain.Transaction{
		sale("t1", at, "450", "", domain.PaymentCash, item("gel", domain.CategoryNails, 1, "150"), item("lash", domain.CategoryEyelash, 1, "300")),
		sale("t2", at, "300", "", domain.PaymentCash, item("gel", domain.CategoryNails, 2, "150")),
		sale("t3", at, "90", "", domain.PaymentCash, domain.LineItem{Quantity: 1, UnitPrice: money("90")}),
	}

	top := TopServices(txs, 0)
	require.Len(t, top, 3)
	assert.Equal(t, "gel", top[0].ServiceID)
	assertMoney(t, "450", top[0].Revenue)
	assert.Equal(t, int64(3), top[0].Count)
	assert.Equal(t, "lash", top[1].ServiceID)
	assert.Equal(t, "unknown", top[2].ServiceID)
	assert.Equal(t, "?", top[2].Name)
	assert.Equal(t, domain.CategoryOthers, top[2].Category)
}

func TestTopServicesDefaultLimit(t *testing.T) {
	at := bkk(t, "2026-02-01T10:00")
	txs := make([]domain.Transaction, 0, 8)
	for _, id := range []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7"} {
		txs = append(txs, sale(id, at, "10", "", domain.PaymentCash, item(id, domain.CategoryNails, 1, "10")))
	}

	assert.Len(t, TopServices(txs, 0), DefaultTopN)
	assert.Len(t, TopServices(txs, 3), 3)
	assert.Len(t, TopServices(txs, 100), 7)
	assert.Empty(t, TopServices(nil, 5))
}
