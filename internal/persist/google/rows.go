package google

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// transactionsToRows renders transactions in ledger order. Values are
// written RAW so ids and amounts keep their exact text.
func transactionsToRows(txs []core.Transaction) [][]any {
	rows := make([][]any, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []any{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			t.Amount.String(),
			string(t.Category),
			t.Date,
		})
	}
	return rows
}

// rowsToTransactions parses rows read back with UNFORMATTED_VALUE, where
// numeric cells may come back as float64. Blank rows are skipped.
func rowsToTransactions(values [][]any) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(values))
	for i, row := range values {
		if isBlank(row) {
			continue
		}
		rowNum := i + 2
		id, err := cellInt64(safeGet(row, 0))
		if err != nil {
			return nil, fmt.Errorf("row %d: id: %w", rowNum, err)
		}
		amount, err := cellMoney(safeGet(row, 2))
		if err != nil {
			return nil, fmt.Errorf("row %d: amount: %w", rowNum, err)
		}
		out = append(out, core.Transaction{
			ID:       id,
			Title:    cellString(safeGet(row, 1)),
			Amount:   amount,
			Category: core.Category(strings.ToLower(cellString(safeGet(row, 3)))),
			Date:     cellString(safeGet(row, 4)),
		})
	}
	return out, nil
}

func safeGet(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func firstCell(values [][]any) string {
	if len(values) == 0 {
		return ""
	}
	return cellString(safeGet(values[0], 0))
}

func isBlank(row []any) bool {
	for _, v := range row {
		if cellString(v) != "" {
			return false
		}
	}
	return true
}

func cellInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	}
	return strconv.ParseInt(cellString(v), 10, 64)
}

func cellMoney(v any) (core.Money, error) {
	if f, ok := v.(float64); ok {
		return core.Money{Cents: decimal.NewFromFloat(f).Round(2).Shift(2).IntPart()}, nil
	}
	cents, err := core.ParseDecimalToCents(cellString(v))
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}
