package ledger

import (
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/core"
)

func frozenClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func draft(title string, units int64, cat core.Category, date string) core.ExpenseDraft {
	return core.ExpenseDraft{Title: title, Amount: core.NewMoney(units), Category: cat, Date: date}
}

func requireConsistent(t *testing.T, s core.Snapshot) {
	t.Helper()
	require.False(t, s.Balance.IsNegative(), "balance went negative: %s", s.Balance)
	require.Equal(t, core.SumAmounts(s.Transactions), s.TotalExpenses)
}

func TestScenarioIncome(t *testing.T) {
	s := New(core.NewMoney(5000))

	snap, err := s.AddIncome(core.NewMoney(1000))
	require.NoError(t, err)
	assert.Equal(t, core.NewMoney(6000), snap.Balance)
	assert.Equal(t, int64(1), snap.Version)
	assert.Equal(t, snap, s.Snapshot())
}

func TestScenarioAddEditDelete(t *testing.T) {
	s := New(core.NewMoney(5000), WithClock(frozenClock(1703462400000)))

	// add
	tx, err := s.AddExpense(draft("Groceries", 100, core.Food, "2023-12-25"))
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, core.NewMoney(4900), snap.Balance)
	assert.Equal(t, core.NewMoney(100), snap.TotalExpenses)
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, core.Transaction{
		ID:       1703462400000,
		Title:    "Groceries",
		Amount:   core.NewMoney(100),
		Category: core.Food,
		Date:     "2023-12-25",
	}, snap.Transactions[0])
	assert.Equal(t, tx, snap.Transactions[0])

	// edit
	edited, err := s.EditExpense(tx.ID, draft("Groceries2", 150, core.Food, "2023-12-26"))
	require.NoError(t, err)
	assert.Equal(t, tx.ID, edited.ID)
	snap = s.Snapshot()
	assert.Equal(t, core.NewMoney(4850), snap.Balance)
	assert.Equal(t, core.NewMoney(150), snap.TotalExpenses)
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, "Groceries2", snap.Transactions[0].Title)
	assert.Equal(t, "2023-12-26", snap.Transactions[0].Date)

	// delete
	removed, err := s.DeleteExpense(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, edited, removed)
	snap = s.Snapshot()
	assert.Equal(t, core.NewMoney(5000), snap.Balance)
	assert.True(t, snap.TotalExpenses.IsZero())
	assert.Empty(t, snap.Transactions)
	assert.Equal(t, int64(3), snap.Version)
}

func TestScenarioInsufficientFunds(t *testing.T) {
	s := New(core.NewMoney(100))
	before := s.Snapshot()

	_, err := s.AddExpense(draft("TV", 150, core.Shopping, "2024-01-01"))
	require.ErrorIs(t, err, core.ErrInsufficientFunds)

	var ife *core.InsufficientFundsError
	require.ErrorAs(t, err, &ife)
	assert.Equal(t, core.NewMoney(100), ife.Balance)
	assert.Equal(t, core.NewMoney(150), ife.Requested)
	assert.True(t, reflect.DeepEqual(before, s.Snapshot()))
}

func TestSpendingExactBalanceIsAllowed(t *testing.T) {
	s := New(core.NewMoney(100))
	_, err := s.AddExpense(draft("Rent", 100, core.Utilities, "2024-01-01"))
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Balance.IsZero())
}

func TestRejectedOperationsLeaveStateUnchanged(t *testing.T) {
	s := New(core.NewMoney(200), WithClock(frozenClock(1000)))
	tx, err := s.AddExpense(draft("Dinner", 50, core.Food, "2024-02-01"))
	require.NoError(t, err)

	cases := []struct {
		name string
		op   func() error
		is   error
	}{
		{"income zero", func() error { _, err := s.AddIncome(core.Money{}); return err }, core.ErrInvalidAmount},
		{"add empty title", func() error { _, err := s.AddExpense(draft(" ", 1, core.Food, "d")); return err }, core.ErrEmptyTitle},
		{"add bad category", func() error { _, err := s.AddExpense(draft("x", 1, "pets", "d")); return err }, core.ErrInvalidCategory},
		{"add missing date", func() error { _, err := s.AddExpense(draft("x", 1, core.Food, "")); return err }, core.ErrEmptyDate},
		{"add too much", func() error { _, err := s.AddExpense(draft("x", 151, core.Food, "d")); return err }, core.ErrInsufficientFunds},
		{"edit missing id", func() error { _, err := s.EditExpense(42, draft("x", 1, core.Food, "d")); return err }, core.ErrTransactionNotFound},
		{"edit invalid", func() error { _, err := s.EditExpense(tx.ID, draft("x", 0, core.Food, "d")); return err }, core.ErrInvalidAmount},
		{"edit too much", func() error { _, err := s.EditExpense(tx.ID, draft("x", 201, core.Food, "d")); return err }, core.ErrInsufficientFunds},
		{"delete missing id", func() error { _, err := s.DeleteExpense(42); return err }, core.ErrTransactionNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := s.Snapshot()
			err := tc.op()
			require.ErrorIs(t, err, tc.is)
			assert.Equal(t, before, s.Snapshot())
		})
	}
}

func TestEditCanUseRefundedAmount(t *testing.T) {
	s := New(core.NewMoney(100))
	tx, err := s.AddExpense(draft("Hotel", 80, core.Travel, "2024-03-01"))
	require.NoError(t, err)

	// 20 left, but the 80 is refunded before charging 100.
	_, err = s.EditExpense(tx.ID, draft("Hotel", 100, core.Travel, "2024-03-01"))
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Balance.IsZero())
}

func TestEditKeepsPosition(t *testing.T) {
	s := New(core.NewMoney(1000))
	a, _ := s.AddExpense(draft("a", 1, core.Food, "d"))
	b, _ := s.AddExpense(draft("b", 2, core.Food, "d"))
	c, _ := s.AddExpense(draft("c", 3, core.Food, "d"))

	_, err := s.EditExpense(b.ID, draft("B", 4, core.Health, "d2"))
	require.NoError(t, err)

	txs := s.Snapshot().Transactions
	require.Len(t, txs, 3)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, []int64{txs[0].ID, txs[1].ID, txs[2].ID})
	assert.Equal(t, "B", txs[1].Title)
	assert.Equal(t, core.Health, txs[1].Category)
}

func TestIDsAreUniqueUnderFrozenClock(t *testing.T) {
	s := New(core.NewMoney(1000), WithClock(frozenClock(5000)))
	var ids []int64
	for i := 0; i < 5; i++ {
		tx, err := s.AddExpense(draft("x", 1, core.Other, "d"))
		require.NoError(t, err)
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []int64{5000, 5001, 5002, 5003, 5004}, ids)
}

func TestRestore(t *testing.T) {
	s := New(core.NewMoney(5000), WithClock(frozenClock(10)))
	err := s.Restore(core.Snapshot{
		Version: 7,
		Balance: core.NewMoney(50),
		Transactions: []core.Transaction{
			{ID: 100, Title: "a", Amount: core.NewMoney(5), Category: core.Food, Date: "d"},
		},
	})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, int64(7), snap.Version)
	assert.Equal(t, core.NewMoney(5), snap.TotalExpenses)

	// the clock is behind the restored ids
	tx, err := s.AddExpense(draft("b", 1, core.Food, "d"))
	require.NoError(t, err)
	assert.Equal(t, int64(101), tx.ID)
	assert.Equal(t, int64(8), s.Snapshot().Version)

	err = s.Restore(core.Snapshot{Balance: core.Money{Cents: -1}})
	require.ErrorIs(t, err, core.ErrNegativeBalance)
}

func TestSnapshotDoesNotAlias(t *testing.T) {
	s := New(core.NewMoney(100))
	_, err := s.AddExpense(draft("a", 1, core.Food, "d"))
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Transactions[0].Title = "mutated"
	assert.Equal(t, "a", s.Snapshot().Transactions[0].Title)
}

func TestSubscribe(t *testing.T) {
	s := New(core.NewMoney(100))

	var got []int64
	var order []string
	cancel := s.Subscribe(func(snap core.Snapshot) {
		got = append(got, snap.Version)
		order = append(order, "first")
	})
	s.Subscribe(func(core.Snapshot) { order = append(order, "second") })

	_, err := s.AddIncome(core.NewMoney(1))
	require.NoError(t, err)
	_, err = s.AddExpense(draft("x", 1000, core.Food, "d"))
	require.Error(t, err)

	assert.Equal(t, []int64{1}, got, "rejected operations must not notify")
	assert.Equal(t, []string{"first", "second"}, order)

	cancel()
	cancel()
	_, err = s.AddIncome(core.NewMoney(1))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, got)
}

func TestConcurrentMutationsNotifyInOrder(t *testing.T) {
	s := New(core.NewMoney(0))

	var mu sync.Mutex
	var versions []int64
	s.Subscribe(func(snap core.Snapshot) {
		mu.Lock()
		versions = append(versions, snap.Version)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddIncome(core.NewMoney(1))
		}()
	}
	wg.Wait()

	require.Len(t, versions, 50)
	for i, v := range versions {
		assert.Equal(t, int64(i+1), v)
	}
	assert.Equal(t, core.NewMoney(50), s.Snapshot().Balance)
}

func TestRandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cats := core.Categories()
	s := New(core.NewMoney(5000))

	for i := 0; i < 2000; i++ {
		snap := s.Snapshot()
		amount := core.Money{Cents: 1 + rng.Int63n(300000)}
		d := core.ExpenseDraft{Title: "t", Amount: amount, Category: cats[rng.Intn(len(cats))], Date: "2024-01-01"}

		switch op := rng.Intn(4); {
		case op == 0:
			_, _ = s.AddIncome(core.Money{Cents: 1 + rng.Int63n(50000)})
		case op == 1:
			_, _ = s.AddExpense(d)
		case op == 2 && len(snap.Transactions) > 0:
			id := snap.Transactions[rng.Intn(len(snap.Transactions))].ID
			_, _ = s.EditExpense(id, d)
		case op == 3 && len(snap.Transactions) > 0:
			id := snap.Transactions[rng.Intn(len(snap.Transactions))].ID
			_, err := s.DeleteExpense(id)
			require.NoError(t, err)
		}
		requireConsistent(t, s.Snapshot())
	}
}
