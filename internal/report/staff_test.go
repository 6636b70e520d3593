package report

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
)

func TestGroupByEmployeeSeedsKnownMethods(t *testing.T) {
	at := bkk(t, "2026-02-10T11:00")
	txs := []domain.Transaction{
		sale("t1", at, "500", "Mai", domain.PaymentCash),
		sale("t2", at.Add(time.Hour), "250", "Mai", domain.PaymentPromptPay),
	}

	groups := GroupByEmployee(txs, "")
	require.Len(t, groups, 1)
	mai := groups[0]
	assert.Equal(t, "Mai", mai.EmployeeName)
	assert.Equal(t, int64(2), mai.TransactionCount)
	assertMoney(t, "750", mai.TotalAmount)

	require.Len(t, mai.PaymentMethods, 4)
	assert.Equal(t, domain.PaymentCash, mai.PaymentMethods[0].PaymentMethod)
	assert.Equal(t, "Cash", mai.PaymentMethods[0].Label)
	assertMoney(t, "500", mai.PaymentMethods[0].Amount)
	assert.Equal(t, domain.PaymentCreditCard, mai.PaymentMethods[1].PaymentMethod)
	assertMoney(t, "0", mai.PaymentMethods[1].Amount)
	assert.Equal(t, int64(0), mai.PaymentMethods[1].Count)
	assertMoney(t, "250", mai.PaymentMethods[2].Amount)
	assert.Equal(t, domain.PaymentTransfer, mai.PaymentMethods[3].PaymentMethod)
}

func TestGroupByEmployeeKeepsUnknownMethods(t *testing.T) {
	at := bkk(t, "2026-02-10T11:00")
	txs := []domain.Transaction{
		sale("t1", at, "100", "Mai", "voucher"),
		sale("t2", at, "40", "Mai", "COUPON"),
		sale("t3", at, "60", "Mai", " "),
	}

	groups := GroupByEmployee(txs, "")
	require.Len(t, groups, 1)
	methods := groups[0].PaymentMethods
	require.Len(t, methods, 7)
	assert.Equal(t, domain.PaymentMethod("COUPON"), methods[4].PaymentMethod)
	assert.Equal(t, domain.PaymentMethod("UNKNOWN"), methods[5].PaymentMethod)
	assert.Equal(t, domain.PaymentMethod("VOUCHER"), methods[6].PaymentMethod)
	assert.Equal(t, "VOUCHER", methods[6].Label)
	assertMoney(t, "100", methods[6].Amount)
}

func TestGroupByEmployeeBlankNameUsesPlaceholder(t *testing.T) {
	at := bkk(t, "2026-02-10T11:00")
	txs := []domain.Transaction{
		sale("t1", at, "100", "", domain.PaymentCash),
		sale("t2", at, "50", "   ", domain.PaymentCash),
	}

	groups := GroupByEmployee(txs, "ไม่ระบุพนักงาน")
	require.Len(t, groups, 1)
	assert.Equal(t, "ไม่ระบุพนักงาน", groups[0].EmployeeName)
	assertMoney(t, "150", groups[0].TotalAmount)

	groups = GroupByEmployee(txs, "")
	require.Len(t, groups, 1)
	assert.Equal(t, DefaultUnassignedLabel, groups[0].EmployeeName)
}

func TestGroupByEmployeeOrdering(t *testing.T) {
	base := bkk(t, "2026-02-10T09:00")
	txs := []domain.Transaction{
		sale("t3", base.Add(2*time.Hour), "100", "Bee", domain.PaymentCash),
		sale("t1", base, "300", "Ann", domain.PaymentCash),
		sale("t2", base, "200", "Bee", domain.PaymentTransfer),
		sale("t0", base, "50", "Cat", domain.PaymentCash),
		sale("t4", base, "250", "Dao", domain.PaymentCash),
		sale("t5", base, "50", "Dao", domain.PaymentCash),
	}

	groups := GroupByEmployee(txs, "")
	require.Len(t, groups, 4)
	// Ann, Bee and Dao all total 300; names break the tie.
	assert.Equal(t, []string{"Ann", "Bee", "Dao", "Cat"}, []string{
		groups[0].EmployeeName, groups[1].EmployeeName, groups[2].EmployeeName, groups[3].EmployeeName,
	})

	bee := groups[1]
	require.Len(t, bee.Transactions, 2)
	assert.Equal(t, "t2", bee.Transactions[0].ID)
	assert.Equal(t, "t3", bee.Transactions[1].ID)

	dao := groups[2]
	assert.Equal(t, "t4", dao.Transactions[0].ID)
	assert.Equal(t, "t5", dao.Transactions[1].ID)
}

func TestGroupByEmployeeTotalsMatchMethodSubtotals(t *testing.T) {
	rng := rand.New(rand.NewPCG(20260215, 7))
	names := []string{"Ann", "Bee", "", "Dao", "Earn"}
	methods := []domain.PaymentMethod{
		domain.PaymentCash, domain.PaymentCreditCard, domain.PaymentPromptPay,
		domain.PaymentTransfer, "voucher", "",
	}
	start := bkk(t, "2026-02-01T00:00")

	for round := 0; round < 25; round++ {
		count := rng.IntN(60)
		txs := make([]domain.Transaction, 0, count)
		grand := decimal.Zero
		for i := 0; i < count; i++ {
			amount := decimal.New(rng.Int64N(500000), -2)
			grand = grand.Add(amount)
			txs = append(txs, domain.Transaction{
				ID:            fmt.Sprintf("r%d-%03d", round, i),
				Date:          start.Add(time.Duration(rng.IntN(28*24*60)) * time.Minute),
				Amount:        amount,
				PaymentMethod: methods[rng.IntN(len(methods))],
				EmployeeName:  names[rng.IntN(len(names))],
			})
		}

		groups := GroupByEmployee(txs, "")
		var seen int64
		sum := decimal.Zero
		for _, group := range groups {
			subtotal := decimal.Zero
			var subCount int64
			for _, method := range group.PaymentMethods {
				subtotal = subtotal.Add(method.Amount)
				subCount += method.Count
			}
			assert.True(t, subtotal.Equal(group.TotalAmount), "round %d %s", round, group.EmployeeName)
			assert.Equal(t, group.TransactionCount, subCount)
			assert.Len(t, group.Transactions, int(group.TransactionCount))
			seen += group.TransactionCount
			sum = sum.Add(group.TotalAmount)
		}
		assert.Equal(t, int64(count), seen)
		assert.True(t, grand.Equal(sum), "round %d", round)
	}
}

func TestEmployeeGroupWithoutRecords(t *testing.T) {
	summary := newEmployeeGroup("Ann").finish()
	assert.Equal(t, int64(0), summary.TransactionCount)
	assertMoney(t, "0", summary.TotalAmount)
	assert.Len(t, summary.PaymentMethods, len(domain.KnownPaymentMethods))
	assert.NotNil(t, summary.Transactions)
	assert.Empty(t, GroupByEmployee(nil, ""))
}
