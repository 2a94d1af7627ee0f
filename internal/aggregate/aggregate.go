// Package aggregate derives per-category summaries from a transaction list.
// All functions are pure: they never modify their input and return empty,
// non-nil results for an empty list.
package aggregate

import (
	"sort"

	"wallet/internal/core"
)

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category core.Category `json:"category"`
	Label    string        `json:"label"`
	Total    core.Money    `json:"total"`
}

// PieSlice is one slice of the pie chart.
type PieSlice struct {
	Category  core.Category `json:"category"`
	Label     string        `json:"label"`
	Value     core.Money    `json:"value"`
	ColorHint string        `json:"colorHint"`
}

// BarEntry is one bar of the bar chart.
type BarEntry struct {
	Category core.Category `json:"category"`
	Label    string        `json:"label"`
	Amount   core.Money    `json:"amount"`
}

// CategoryTotals sums amounts per category. Categories without
// transactions are omitted.
func CategoryTotals(txs []core.Transaction) map[core.Category]core.Money {
	totals := make(map[core.Category]core.Money)
	for _, t := range txs {
		totals[t.Category] = totals[t.Category].Add(t.Amount)
	}
	return totals
}

// SortedCategoryTotals orders CategoryTotals by total descending, breaking
// ties by category name ascending.
func SortedCategoryTotals(txs []core.Transaction) []CategoryTotal {
	totals := CategoryTotals(txs)
	out := make([]CategoryTotal, 0, len(totals))
	for c, m := range totals {
		out = append(out, CategoryTotal{Category: c, Label: c.Label(), Total: m})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// ChartSeries returns the pie and bar series, both in sorted order.
func ChartSeries(txs []core.Transaction) ([]PieSlice, []BarEntry) {
	sorted := SortedCategoryTotals(txs)
	pie := make([]PieSlice, 0, len(sorted))
	bar := make([]BarEntry, 0, len(sorted))
	for _, ct := range sorted {
		pie = append(pie, PieSlice{
			Category:  ct.Category,
			Label:     ct.Label,
			Value:     ct.Total,
			ColorHint: ct.Category.Color(),
		})
		bar = append(bar, BarEntry{Category: ct.Category, Label: ct.Label, Amount: ct.Total})
	}
	return pie, bar
}

// TopCategories returns at most n entries of SortedCategoryTotals.
func TopCategories(txs []core.Transaction, n int) []CategoryTotal {
	sorted := SortedCategoryTotals(txs)
	if n < 0 {
		n = 0
	}
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Summary bundles everything the summary view renders.
type Summary struct {
	Version       int64           `json:"version"`
	Balance       core.Money      `json:"balance"`
	TotalExpenses core.Money      `json:"totalExpenses"`
	Totals        []CategoryTotal `json:"totals"`
	Pie           []PieSlice      `json:"pie"`
	Bar           []BarEntry      `json:"bar"`
	Top           []CategoryTotal `json:"top"`
}

// SummaryTopCategories is the size of the "Top Expenses" panel.
const SummaryTopCategories = 3

// Summarize builds the Summary of a snapshot.
func Summarize(s core.Snapshot) Summary {
	pie, bar := ChartSeries(s.Transactions)
	return Summary{
		Version:       s.Version,
		Balance:       s.Balance,
		TotalExpenses: core.SumAmounts(s.Transactions),
		Totals:        SortedCategoryTotals(s.Transactions),
		Pie:           pie,
		Bar:           bar,
		Top:           TopCategories(s.Transactions, SummaryTopCategories),
	}
}
