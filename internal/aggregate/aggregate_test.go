package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/core"
)

func tx(id int64, cents int64, c core.Category) core.Transaction {
	return core.Transaction{ID: id, Title: "t", Amount: core.Money{Cents: cents}, Category: c, Date: "2024-01-01"}
}

func sample() []core.Transaction {
	return []core.Transaction{
		tx(1, 1000, core.Food),
		tx(2, 500, core.Travel),
		tx(3, 2500, core.Food),
		tx(4, 3500, core.Shopping),
		tx(5, 500, core.Entertainment),
	}
}

func TestCategoryTotals(t *testing.T) {
	got := CategoryTotals(sample())
	assert.Equal(t, map[core.Category]core.Money{
		core.Food:          {Cents: 3500},
		core.Travel:        {Cents: 500},
		core.Shopping:      {Cents: 3500},
		core.Entertainment: {Cents: 500},
	}, got)
	_, ok := got[core.Health]
	assert.False(t, ok, "categories without transactions are omitted")
}

func TestSortedCategoryTotals(t *testing.T) {
	got := SortedCategoryTotals(sample())
	var order []core.Category
	for _, ct := range got {
		order = append(order, ct.Category)
	}
	assert.Equal(t, []core.Category{core.Food, core.Shopping, core.Entertainment, core.Travel}, order)
	assert.Equal(t, "Food", got[0].Label)
}

func TestChartSeries(t *testing.T) {
	pie, bar := ChartSeries(sample())
	require.Len(t, pie, 4)
	require.Len(t, bar, 4)
	for i := range pie {
		assert.Equal(t, pie[i].Category, bar[i].Category)
		assert.Equal(t, pie[i].Value, bar[i].Amount)
		assert.Equal(t, pie[i].Category.Color(), pie[i].ColorHint)
	}
}

func TestEmptyInput(t *testing.T) {
	for _, in := range [][]core.Transaction{nil, {}} {
		assert.NotNil(t, CategoryTotals(in))
		assert.Empty(t, CategoryTotals(in))
		assert.NotNil(t, SortedCategoryTotals(in))
		assert.Empty(t, SortedCategoryTotals(in))
		pie, bar := ChartSeries(in)
		assert.NotNil(t, pie)
		assert.NotNil(t, bar)
		assert.Empty(t, pie)
		assert.Empty(t, bar)
	}
}

func TestIdempotentAndPure(t *testing.T) {
	in := sample()
	orig := make([]core.Transaction, len(in))
	copy(orig, in)

	assert.Equal(t, CategoryTotals(in), CategoryTotals(in))
	assert.Equal(t, SortedCategoryTotals(in), SortedCategoryTotals(in))
	p1, b1 := ChartSeries(in)
	p2, b2 := ChartSeries(in)
	assert.Equal(t, p1, p2)
	assert.Equal(t, b1, b2)
	assert.Equal(t, orig, in)
}

func TestDeletedTransactionLeavesTotals(t *testing.T) {
	in := sample()
	// drop the 25.00 food expense
	after := append(append([]core.Transaction{}, in[:2]...), in[3:]...)
	assert.Equal(t, core.Money{Cents: 1000}, CategoryTotals(after)[core.Food])
}

func TestTopCategories(t *testing.T) {
	assert.Len(t, TopCategories(sample(), 2), 2)
	assert.Len(t, TopCategories(sample(), 10), 4)
	assert.Empty(t, TopCategories(sample(), -1))
}

func TestSummarize(t *testing.T) {
	s := Summarize(core.Snapshot{Version: 3, Balance: core.NewMoney(10), Transactions: sample()})
	assert.Equal(t, int64(3), s.Version)
	assert.Equal(t, core.Money{Cents: 8000}, s.TotalExpenses)
	assert.Len(t, s.Totals, 4)
	assert.Len(t, s.Pie, 4)
	assert.Len(t, s.Top, SummaryTopCategories)
	assert.Equal(t, s.Totals[0], s.Top[0])
}
