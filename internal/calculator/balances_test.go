package calculator

import (
	"testing"

	"github.com/mmynk/settleup/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = models.Member("alice")
	bob   = models.Member("bob")
	carol = models.Contact("carol")
)

func share(id string, p models.Participant, amount string) models.ExpenseShare {
	return models.ExpenseShare{ID: id, Participant: p, Amount: dec(amount)}
}

func withPayment(s models.ExpenseShare, status models.PaymentStatus) models.ExpenseShare {
	s.Payment = &models.Payment{ShareID: s.ID, PaidBy: s.Participant, Status: status}
	return s
}

// dinner is the 90.00 expense paid by alice and split equally with bob.
func dinner(bobShare models.ExpenseShare) models.Expense {
	return models.Expense{
		ID:     "dinner",
		Payer:  alice,
		Amount: dec("90.00"),
		Policy: models.PolicyEqual,
		Status: models.ExpensePending,
		Shares: []models.ExpenseShare{share("s-alice", alice, "45.00"), bobShare},
	}
}

func decimalSum(balances []MemberBalance) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b.NetBalance)
	}
	return sum
}

func assertBalance(t *testing.T, got MemberBalance, owed, paid, net string) {
	t.Helper()
	assertAmount(t, owed, got.TotalOwed, "total_owed")
	assertAmount(t, paid, got.TotalPaid, "total_paid")
	assertAmount(t, net, got.NetBalance, "net_balance")
}

func TestCalculateMemberBalance(t *testing.T) {
	t.Run("unpaid share", func(t *testing.T) {
		expenses := []models.Expense{dinner(share("s-bob", bob, "45.00"))}

		assertBalance(t, CalculateMemberBalance(expenses, bob), "45.00", "0", "-45.00")
		assertBalance(t, CalculateMemberBalance(expenses, alice), "45.00", "90.00", "45.00")
	})

	t.Run("paid share does not change the balance", func(t *testing.T) {
		expenses := []models.Expense{dinner(withPayment(share("s-bob", bob, "45.00"), models.PaymentPaid))}

		assertBalance(t, CalculateMemberBalance(expenses, bob), "45.00", "0", "-45.00")
		assertBalance(t, CalculateMemberBalance(expenses, alice), "45.00", "90.00", "45.00")
	})

	t.Run("rejected payment still owes", func(t *testing.T) {
		expenses := []models.Expense{dinner(withPayment(share("s-bob", bob, "45.00"), models.PaymentRejected))}

		assertBalance(t, CalculateMemberBalance(expenses, bob), "45.00", "0", "-45.00")
		assertBalance(t, CalculateMemberBalance(expenses, alice), "45.00", "90.00", "45.00")
	})

	t.Run("pending payment still owes", func(t *testing.T) {
		expenses := []models.Expense{dinner(withPayment(share("s-bob", bob, "45.00"), models.PaymentPending))}

		assertBalance(t, CalculateMemberBalance(expenses, bob), "45.00", "0", "-45.00")
	})

	t.Run("payer paying their own share changes nothing", func(t *testing.T) {
		e := dinner(share("s-bob", bob, "45.00"))
		e.Shares[0] = withPayment(e.Shares[0], models.PaymentPaid)

		assertBalance(t, CalculateMemberBalance([]models.Expense{e}, alice), "45.00", "90.00", "45.00")
	})

	t.Run("itemwise credits the payer only", func(t *testing.T) {
		expenses := []models.Expense{
			{ID: "market", Payer: alice, Amount: dec("60.00"), Policy: models.PolicyItemwise},
			dinner(share("s-bob", bob, "45.00")),
		}

		assertBalance(t, CalculateMemberBalance(expenses, alice), "45.00", "150.00", "105.00")
		assertBalance(t, CalculateMemberBalance(expenses, bob), "45.00", "0", "-45.00")
	})

	t.Run("member outside every expense", func(t *testing.T) {
		expenses := []models.Expense{dinner(share("s-bob", bob, "45.00"))}

		assertBalance(t, CalculateMemberBalance(expenses, carol), "0", "0", "0")
	})
}

func TestCalculateOutstandingBalance(t *testing.T) {
	tests := []struct {
		name       string
		state      models.PaymentStatus
		bob, alice [3]string
	}{
		{name: "paid share settles both sides", state: models.PaymentPaid,
			bob: [3]string{"45.00", "45.00", "0"}, alice: [3]string{"90.00", "90.00", "0"}},
		{name: "pending payment settles nothing", state: models.PaymentPending,
			bob: [3]string{"45.00", "0", "-45.00"}, alice: [3]string{"45.00", "90.00", "45.00"}},
		{name: "rejected payment settles nothing", state: models.PaymentRejected,
			bob: [3]string{"45.00", "0", "-45.00"}, alice: [3]string{"45.00", "90.00", "45.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expenses := []models.Expense{dinner(withPayment(share("s-bob", bob, "45.00"), tt.state))}

			assertBalance(t, CalculateOutstandingBalance(expenses, bob), tt.bob[0], tt.bob[1], tt.bob[2])
			assertBalance(t, CalculateOutstandingBalance(expenses, alice), tt.alice[0], tt.alice[1], tt.alice[2])
		})
	}

	t.Run("group view", func(t *testing.T) {
		expenses := []models.Expense{dinner(withPayment(share("s-bob", bob, "45.00"), models.PaymentPaid))}

		balances := CalculateOutstandingBalances(expenses, []models.Participant{alice, bob})
		require.Len(t, balances, 2)
		for _, b := range balances {
			assert.True(t, b.NetBalance.IsZero(), "%s: %s", b.Participant, b.NetBalance)
		}
		assert.Empty(t, SimplifyDebts(balances))
	})
}

func TestCalculateGroupBalances(t *testing.T) {
	taxi := models.Expense{
		ID:     "taxi",
		Payer:  carol,
		Amount: dec("30.00"),
		Policy: models.PolicyEqual,
		Shares: []models.ExpenseShare{
			share("t-carol", carol, "10.00"),
			share("t-alice", alice, "10.00"),
			share("t-dave", models.Member("dave"), "10.00"),
		},
	}
	expenses := []models.Expense{dinner(share("s-bob", bob, "45.00")), taxi}

	balances := CalculateGroupBalances(expenses, []models.Participant{bob, alice, carol})
	require.Len(t, balances, 4)

	got := make([]models.Participant, len(balances))
	for i, b := range balances {
		got[i] = b.Participant
	}
	assert.Equal(t, []models.Participant{bob, alice, carol, models.Member("dave")}, got,
		"registered participants keep their order, unknown ones follow")

	net := decimalSum(balances)
	assert.True(t, net.IsZero(), "net balances of shared expenses add up to zero, got %s", net)

	assertBalance(t, balances[1], "55.00", "90.00", "35.00")
	assertBalance(t, balances[2], "10.00", "30.00", "20.00")
}

func TestCalculatePairwiseDebts(t *testing.T) {
	lunch := models.Expense{
		ID:     "lunch",
		Payer:  alice,
		Amount: dec("20.00"),
		Policy: models.PolicyCustom,
		Shares: []models.ExpenseShare{share("l-bob", bob, "12.00"), share("l-carol", carol, "8.00")},
	}

	t.Run("one edge per expense, never netted", func(t *testing.T) {
		expenses := []models.Expense{dinner(share("s-bob", bob, "45.00")), lunch}

		debts := CalculatePairwiseDebts(expenses, bob)
		require.Len(t, debts.Owes, 2)
		assert.Empty(t, debts.OwedTo)

		assert.Equal(t, "dinner", debts.Owes[0].ExpenseID)
		assert.Equal(t, alice, debts.Owes[0].To)
		assert.Equal(t, models.ShareUnpaid, debts.Owes[0].State)
		assertAmount(t, "45.00", debts.Owes[0].Amount)
		assert.Equal(t, "lunch", debts.Owes[1].ExpenseID)
		assertAmount(t, "12.00", debts.Owes[1].Amount)

		owed := CalculatePairwiseDebts(expenses, alice)
		assert.Empty(t, owed.Owes)
		assert.Len(t, owed.OwedTo, 3, "alice's own share is not an edge")
	})

	t.Run("paid shares drop out", func(t *testing.T) {
		expenses := []models.Expense{dinner(withPayment(share("s-bob", bob, "45.00"), models.PaymentPaid))}

		assert.Empty(t, CalculatePairwiseDebts(expenses, bob).Owes)
		assert.Empty(t, CalculatePairwiseDebts(expenses, alice).OwedTo)
	})

	t.Run("rejected shares stay and carry their state", func(t *testing.T) {
		expenses := []models.Expense{dinner(withPayment(share("s-bob", bob, "45.00"), models.PaymentRejected))}

		debts := CalculatePairwiseDebts(expenses, bob)
		require.Len(t, debts.Owes, 1)
		assert.Equal(t, models.ShareRejected, debts.Owes[0].State)
		assert.Equal(t, "s-bob", debts.Owes[0].ShareID)
	})

	t.Run("itemwise expenses produce no edges", func(t *testing.T) {
		expenses := []models.Expense{{ID: "market", Payer: alice, Amount: dec("60.00"), Policy: models.PolicyItemwise}}

		assert.Empty(t, CalculatePairwiseDebts(expenses, alice).OwedTo)
		assert.Empty(t, CalculatePairwiseDebts(expenses, bob).Owes)
	})
}

func TestCalculateExpenseSettlement(t *testing.T) {
	e := dinner(withPayment(share("s-bob", bob, "45.00"), models.PaymentPaid))
	e.Shares = append(e.Shares, share("s-carol", carol, "0.00"))

	edges := CalculateExpenseSettlement(&e)
	require.Len(t, edges, 2)

	assert.Equal(t, bob, edges[0].From)
	assert.Equal(t, alice, edges[0].To)
	assert.True(t, edges[0].Paid)
	assertAmount(t, "45.00", edges[0].Amount)

	assert.Equal(t, carol, edges[1].From)
	assert.False(t, edges[1].Paid)
}
