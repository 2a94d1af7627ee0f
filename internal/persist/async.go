package persist

import (
	"context"
	"sync"
	"time"

	"wallet/internal/core"
	"wallet/internal/log"
)

const defaultSaveTimeout = 10 * time.Second

// AsyncWriter saves snapshots on a background goroutine. Notify never
// blocks; when saves fall behind only the newest pending snapshot is kept.
type AsyncWriter struct {
	saver   Saver
	name    string
	logger  *log.Logger
	timeout time.Duration
	onSave  func(name string, err error)

	mu      sync.Mutex
	pending *core.Snapshot
	closed  bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// AsyncOption configures an AsyncWriter.
type AsyncOption func(*AsyncWriter)

// WithName labels log lines and save callbacks, e.g. "sqlite" or "amqp".
func WithName(name string) AsyncOption {
	return func(w *AsyncWriter) { w.name = name }
}

// WithSaveTimeout bounds each Save call.
func WithSaveTimeout(d time.Duration) AsyncOption {
	return func(w *AsyncWriter) { w.timeout = d }
}

// WithSaveHook is called after every save attempt.
func WithSaveHook(fn func(name string, err error)) AsyncOption {
	return func(w *AsyncWriter) { w.onSave = fn }
}

// NewAsyncWriter starts the background goroutine. Call Close to stop it.
func NewAsyncWriter(saver Saver, logger *log.Logger, opts ...AsyncOption) *AsyncWriter {
	w := &AsyncWriter{
		saver:   saver,
		name:    "store",
		timeout: defaultSaveTimeout,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logger.WithComponent(log.ComponentPersist).With(log.FieldBackend, w.name)
	go w.run()
	return w
}

// Notify queues snap for saving. It has the ledger Observer signature.
func (w *AsyncWriter) Notify(snap core.Snapshot) {
	w.mu.Lock()
	if w.closed || (w.pending != nil && w.pending.Version > snap.Version) {
		w.mu.Unlock()
		return
	}
	w.pending = &snap
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *AsyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.flush()
		case <-w.quit:
			w.flush()
			return
		}
	}
}

func (w *AsyncWriter) flush() {
	w.mu.Lock()
	snap := w.pending
	w.pending = nil
	w.mu.Unlock()
	if snap == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	err := w.saver.Save(ctx, *snap)
	if err != nil {
		w.logger.Error("Failed to save snapshot", log.FieldVersion, snap.Version, log.FieldError, err)
	} else {
		w.logger.Debug("Snapshot saved", log.FieldVersion, snap.Version)
	}
	if w.onSave != nil {
		w.onSave(w.name, err)
	}
}

// Close stops accepting snapshots, saves the last pending one and waits
// for the goroutine to exit or ctx to expire.
func (w *AsyncWriter) Close(ctx context.Context) error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.quit)
	})
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
