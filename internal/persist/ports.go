// Package persist defines how the ledger snapshot is stored between runs.
//
// The snapshot is kept under two stable keys: KeyWallet holds the balance
// and version, KeyTransactions holds the ordered transaction list. Both are
// JSON. Backends either store raw key/value pairs (see KV) or lay the data
// out their own way (see the google package).
package persist

import (
	"context"
	"errors"
	"fmt"

	"wallet/internal/core"
)

// Stable storage keys.
const (
	KeyWallet       = "wallet"
	KeyTransactions = "transactions"
)

// ErrNotFound is returned by Load when nothing has been stored yet.
var ErrNotFound = errors.New("persist: snapshot not found")

// Ports for outbound adapters.
type (
	Loader interface {
		Load(ctx context.Context) (core.Snapshot, error)
	}

	Saver interface {
		Save(ctx context.Context, snap core.Snapshot) error
	}

	Store interface {
		Loader
		Saver
	}

	// KV is a flat key/value backend. Get returns ErrNotFound for a
	// missing key; PutAll writes all entries atomically.
	KV interface {
		Get(ctx context.Context, key string) ([]byte, error)
		PutAll(ctx context.Context, entries map[string][]byte) error
	}
)

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(ctx context.Context, snap core.Snapshot) error

func (f SaverFunc) Save(ctx context.Context, snap core.Snapshot) error { return f(ctx, snap) }

// ReadError reports a stored value that exists but cannot be used.
type ReadError struct {
	Key string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("persist: unreadable %q: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
