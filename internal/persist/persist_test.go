package persist_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/persist"
	"wallet/internal/persist/memory"
)

func defaults() core.Snapshot {
	return core.DefaultSnapshot(core.NewMoney(5000))
}

func TestDecode(t *testing.T) {
	snap, err := persist.Decode([]byte(`{"version":4,"balance":4850,"totalExpenses":999}`),
		[]byte(`[{"id":1,"title":"Groceries2","amount":150,"category":"food","date":"2023-12-26"}]`))
	require.NoError(t, err)
	assert.Equal(t, int64(4), snap.Version)
	assert.Equal(t, core.NewMoney(4850), snap.Balance)
	// stored totalExpenses is ignored
	assert.Equal(t, core.NewMoney(150), snap.TotalExpenses)

	snap, err = persist.Decode([]byte(`{"balance":10}`), nil)
	require.NoError(t, err)
	assert.NotNil(t, snap.Transactions)
	assert.Empty(t, snap.Transactions)

	_, err = persist.Decode([]byte(`{not json`), nil)
	var re *persist.ReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, persist.KeyWallet, re.Key)

	_, err = persist.Decode([]byte(`{"balance":10}`), []byte(`"nope"`))
	require.ErrorAs(t, err, &re)
	assert.Equal(t, persist.KeyTransactions, re.Key)
}

func TestLoadOrDefault(t *testing.T) {
	ctx := context.Background()
	logger := log.Discard()

	t.Run("absent", func(t *testing.T) {
		store, _ := memory.NewSnapshotStore()
		got := persist.LoadOrDefault(ctx, store, defaults(), logger)
		assert.Equal(t, defaults(), got)
	})

	t.Run("stored", func(t *testing.T) {
		store, _ := memory.NewSnapshotStore()
		want := core.Snapshot{Version: 1, Balance: core.NewMoney(6000), TotalExpenses: core.Money{}, Transactions: []core.Transaction{}}
		require.NoError(t, store.Save(ctx, want))
		assert.Equal(t, want, persist.LoadOrDefault(ctx, store, defaults(), logger))
	})

	corrupt := map[string][2]string{
		"unparsable wallet":       {`garbage`, `[]`},
		"unparsable transactions": {`{"balance":1}`, `{`},
		"negative balance":        {`{"balance":-1}`, `[]`},
		"unknown category":        {`{"balance":1}`, `[{"id":1,"title":"x","amount":1,"category":"pets","date":"d"}]`},
		"duplicate ids": {`{"balance":1}`, `[{"id":1,"title":"x","amount":1,"category":"food","date":"d"},` +
			`{"id":1,"title":"y","amount":1,"category":"food","date":"d"}]`},
	}
	for name, vals := range corrupt {
		t.Run(name, func(t *testing.T) {
			store, kv := memory.NewSnapshotStore()
			kv.Set(persist.KeyWallet, []byte(vals[0]))
			kv.Set(persist.KeyTransactions, []byte(vals[1]))
			assert.Equal(t, defaults(), persist.LoadOrDefault(ctx, store, defaults(), logger))
		})
	}

	t.Run("backend error", func(t *testing.T) {
		failing := loaderFunc(func(context.Context) (core.Snapshot, error) {
			return core.Snapshot{}, errors.New("disk on fire")
		})
		assert.Equal(t, defaults(), persist.LoadOrDefault(ctx, failing, defaults(), logger))
	})
}

type loaderFunc func(context.Context) (core.Snapshot, error)

func (f loaderFunc) Load(ctx context.Context) (core.Snapshot, error) { return f(ctx) }

func TestAsyncWriterSavesLatest(t *testing.T) {
	store, kv := memory.NewSnapshotStore()

	var mu sync.Mutex
	var results []error
	w := persist.NewAsyncWriter(store, log.Discard(), persist.WithName("memory"),
		persist.WithSaveHook(func(name string, err error) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, "memory", name)
			results = append(results, err)
		}))

	for v := int64(1); v <= 20; v++ {
		w.Notify(core.Snapshot{Version: v, Balance: core.NewMoney(v), Transactions: []core.Transaction{}})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Close(ctx))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Version)
	assert.GreaterOrEqual(t, kv.Writes(), 1)

	mu.Lock()
	for _, err := range results {
		assert.NoError(t, err)
	}
	mu.Unlock()

	// closed writers ignore further snapshots
	w.Notify(core.Snapshot{Version: 21})
	require.NoError(t, w.Close(ctx))
	got, _ = store.Load(context.Background())
	assert.Equal(t, int64(20), got.Version)
}

func TestAsyncWriterReportsErrors(t *testing.T) {
	failed := make(chan error, 1)
	saver := persist.SaverFunc(func(context.Context, core.Snapshot) error { return errors.New("boom") })
	w := persist.NewAsyncWriter(saver, log.Discard(), persist.WithSaveHook(func(_ string, err error) {
		select {
		case failed <- err:
		default:
		}
	}))
	w.Notify(core.Snapshot{Version: 1})

	select {
	case err := <-failed:
		assert.EqualError(t, err, "boom")
	case <-time.After(5 * time.Second):
		t.Fatal("save hook not called")
	}
	require.NoError(t, w.Close(context.Background()))
}
