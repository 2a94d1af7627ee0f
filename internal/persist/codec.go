package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"wallet/internal/core"
)

// walletRecord is the JSON stored under KeyWallet. TotalExpenses is written
// for readers of the raw data but ignored on decode; it is always derived
// from the transaction list.
type walletRecord struct {
	Version       int64      `json:"version"`
	Balance       core.Money `json:"balance"`
	TotalExpenses core.Money `json:"totalExpenses"`
}

// EncodeWallet returns the KeyWallet value of snap.
func EncodeWallet(snap core.Snapshot) ([]byte, error) {
	return json.Marshal(walletRecord{
		Version:       snap.Version,
		Balance:       snap.Balance,
		TotalExpenses: core.SumAmounts(snap.Transactions),
	})
}

// Encode returns both key values of snap.
func Encode(snap core.Snapshot) (map[string][]byte, error) {
	wallet, err := EncodeWallet(snap)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", KeyWallet, err)
	}
	txs := snap.Transactions
	if txs == nil {
		txs = []core.Transaction{}
	}
	list, err := json.Marshal(txs)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", KeyTransactions, err)
	}
	return map[string][]byte{KeyWallet: wallet, KeyTransactions: list}, nil
}

// DecodeWallet parses a KeyWallet value into a snapshot with no transactions.
func DecodeWallet(wallet []byte) (core.Snapshot, error) {
	var w walletRecord
	if err := json.Unmarshal(wallet, &w); err != nil {
		return core.Snapshot{}, &ReadError{Key: KeyWallet, Err: err}
	}
	return core.Snapshot{Version: w.Version, Balance: w.Balance, Transactions: []core.Transaction{}}, nil
}

// Decode rebuilds a snapshot from the two key values. A nil transactions
// value means the list was never written and decodes as empty.
func Decode(wallet, transactions []byte) (core.Snapshot, error) {
	snap, err := DecodeWallet(wallet)
	if err != nil {
		return core.Snapshot{}, err
	}
	if transactions != nil {
		if err := json.Unmarshal(transactions, &snap.Transactions); err != nil {
			return core.Snapshot{}, &ReadError{Key: KeyTransactions, Err: err}
		}
		if snap.Transactions == nil {
			snap.Transactions = []core.Transaction{}
		}
	}
	snap.TotalExpenses = core.SumAmounts(snap.Transactions)
	return snap, nil
}

// KVStore implements Store on top of a KV backend.
type KVStore struct {
	kv KV
}

func NewKVStore(kv KV) *KVStore {
	return &KVStore{kv: kv}
}

// Load returns ErrNotFound when the wallet key is absent.
func (s *KVStore) Load(ctx context.Context) (core.Snapshot, error) {
	wallet, err := s.kv.Get(ctx, KeyWallet)
	if err != nil {
		return core.Snapshot{}, err
	}
	txs, err := s.kv.Get(ctx, KeyTransactions)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return core.Snapshot{}, err
	}
	return Decode(wallet, txs)
}

func (s *KVStore) Save(ctx context.Context, snap core.Snapshot) error {
	entries, err := Encode(snap)
	if err != nil {
		return err
	}
	return s.kv.PutAll(ctx, entries)
}
