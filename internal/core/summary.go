package core

import "fmt"

// WalletState is the balance together with the derived expense total.
type WalletState struct {
	Balance       Money `json:"balance"`
	TotalExpenses Money `json:"totalExpenses"`
}

// Snapshot is the full ledger state at a given version. It is what the
// persistence layer stores and what observers receive after a mutation.
type Snapshot struct {
	Version       int64         `json:"version"`
	Balance       Money         `json:"balance"`
	TotalExpenses Money         `json:"totalExpenses"`
	Transactions  []Transaction `json:"transactions"`
}

// DefaultSnapshot is the state of a fresh wallet.
func DefaultSnapshot(balance Money) Snapshot {
	return Snapshot{Balance: balance, Transactions: []Transaction{}}
}

// SumAmounts returns the sum of all transaction amounts.
func SumAmounts(txs []Transaction) Money {
	var total Money
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}

// Wallet returns the balance part of the snapshot.
func (s Snapshot) Wallet() WalletState {
	return WalletState{Balance: s.Balance, TotalExpenses: s.TotalExpenses}
}

// Clone returns a deep copy so callers can never alias ledger storage.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Transactions = make([]Transaction, len(s.Transactions))
	copy(out.Transactions, s.Transactions)
	return out
}

// Validate checks the invariants a restored snapshot must satisfy.
func (s Snapshot) Validate() error {
	if s.Balance.IsNegative() {
		return ErrNegativeBalance
	}
	seen := make(map[int64]struct{}, len(s.Transactions))
	for i, t := range s.Transactions {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("transaction %d: %w", t.ID, ErrDuplicateID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}
