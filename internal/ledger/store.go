// Package ledger holds the wallet balance and the ordered list of expense
// transactions. It is the only place that mutates them.
package ledger

import (
	"sync"
	"time"

	"wallet/internal/core"
)

// Observer receives the snapshot produced by a successful mutation.
// Observers run synchronously, outside the store lock, in registration
// order. They must not call mutating methods on the same Store.
type Observer func(core.Snapshot)

type subscription struct {
	id int
	fn Observer
}

// Store is the single source of truth for the wallet.
type Store struct {
	mu      sync.Mutex
	balance core.Money
	txs     []core.Transaction
	version int64
	lastID  int64
	now     func() time.Time

	// notifyMu is taken before mu is released so observers see
	// snapshots in version order.
	notifyMu sync.Mutex

	subsMu  sync.Mutex
	subs    []subscription
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to derive transaction ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store with the given starting balance and no transactions.
func New(initial core.Money, opts ...Option) *Store {
	s := &Store{
		balance: initial,
		txs:     []core.Transaction{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore replaces the whole state with snap. It is meant for startup,
// before the store is shared, and does not notify observers.
func (s *Store) Restore(snap core.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = snap.Balance
	s.txs = make([]core.Transaction, len(snap.Transactions))
	copy(s.txs, snap.Transactions)
	s.version = snap.Version
	s.lastID = 0
	for _, t := range s.txs {
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every future successful mutation and returns
// a function that removes it.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// AddIncome increases the balance by amount.
func (s *Store) AddIncome(amount core.Money) (core.Snapshot, error) {
	if err := core.ValidateIncome(amount); err != nil {
		return core.Snapshot{}, err
	}
	s.mu.Lock()
	s.balance = s.balance.Add(amount)
	snap := s.commitLocked()
	s.publish(snap)
	return snap, nil
}

// AddExpense appends a new transaction and deducts its amount from the
// balance. Validation failures and insufficient funds leave the state as
// it was.
func (s *Store) AddExpense(d core.ExpenseDraft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	if d.Amount.GreaterThan(s.balance) {
		bal := s.balance
		s.mu.Unlock()
		return core.Transaction{}, &core.InsufficientFundsError{Balance: bal, Requested: d.Amount}
	}
	t := core.Transaction{
		ID:       s.nextIDLocked(),
		Title:    d.Title,
		Amount:   d.Amount,
		Category: d.Category,
		Date:     d.Date,
	}
	s.txs = append(s.txs, t)
	s.balance = s.balance.Sub(d.Amount)
	snap := s.commitLocked()
	s.publish(snap)
	return t, nil
}

// EditExpense replaces the fields of the transaction with the given id in
// place. The old amount is refunded before the new one is charged.
func (s *Store) EditExpense(id int64, d core.ExpenseDraft) (core.Transaction, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err := d.Validate(); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	old := s.txs[idx]
	available := s.balance.Add(old.Amount)
	if d.Amount.GreaterThan(available) {
		s.mu.Unlock()
		return core.Transaction{}, &core.InsufficientFundsError{Balance: available, Requested: d.Amount}
	}
	t := core.Transaction{
		ID:       old.ID,
		Title:    d.Title,
		Amount:   d.Amount,
		Category: d.Category,
		Date:     d.Date,
	}
	s.txs[idx] = t
	s.balance = available.Sub(d.Amount)
	snap := s.commitLocked()
	s.publish(snap)
	return t, nil
}

// DeleteExpense removes the transaction and refunds its amount.
func (s *Store) DeleteExpense(id int64) (core.Transaction, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	removed := s.txs[idx]
	s.txs = append(s.txs[:idx:idx], s.txs[idx+1:]...)
	s.balance = s.balance.Add(removed.Amount)
	snap := s.commitLocked()
	s.publish(snap)
	return removed, nil
}

func (s *Store) indexLocked(id int64) int {
	for i, t := range s.txs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// nextIDLocked derives an id from the clock in milliseconds, bumping past
// the last issued id when the clock has not moved forward.
func (s *Store) nextIDLocked() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) snapshotLocked() core.Snapshot {
	txs := make([]core.Transaction, len(s.txs))
	copy(txs, s.txs)
	return core.Snapshot{
		Version:       s.version,
		Balance:       s.balance,
		TotalExpenses: core.SumAmounts(txs),
		Transactions:  txs,
	}
}

// commitLocked bumps the version, hands the notify lock over and releases
// the state lock. The caller must follow up with publish.
func (s *Store) commitLocked() core.Snapshot {
	s.version++
	snap := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	return snap
}

func (s *Store) publish(snap core.Snapshot) {
	defer s.notifyMu.Unlock()

	s.subsMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.fn(snap.Clone())
	}
}
