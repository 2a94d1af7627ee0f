// Package worker mirrors ledger snapshots received over AMQP into a second
// store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wallet/internal/amqp"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/persist"
)

// Mirror outcomes, also used as metric labels.
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// MirrorWorker writes each newer snapshot to the mirror store.
type MirrorWorker struct {
	store  persist.Store
	logger *log.Logger

	mu          sync.Mutex
	lastVersion int64
}

func NewMirrorWorker(store persist.Store, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{store: store, logger: logger.WithComponent(log.ComponentWorker)}
}

// StartupSyncCheck reads the version already held by the mirror so that
// redelivered older snapshots are not written over it.
func (w *MirrorWorker) StartupSyncCheck(ctx context.Context) error {
	snap, err := w.store.Load(ctx)
	switch {
	case errors.Is(err, persist.ErrNotFound):
		w.logger.InfoContext(ctx, "Mirror is empty")
		return nil
	case err != nil:
		return fmt.Errorf("load mirror snapshot: %w", err)
	}

	w.mu.Lock()
	if snap.Version > w.lastVersion {
		w.lastVersion = snap.Version
	}
	w.mu.Unlock()
	w.logger.InfoContext(ctx, "Mirror holds snapshot", log.FieldVersion, snap.Version)
	return nil
}

// LastVersion returns the newest version written to the mirror.
func (w *MirrorWorker) LastVersion() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastVersion
}

// HandleSnapshotMessage processes one message from the snapshot queue.
// Stale and invalid snapshots are acknowledged without writing; a failed
// write returns an error so the message is requeued.
func (w *MirrorWorker) HandleSnapshotMessage(ctx context.Context, msg *amqp.SnapshotMessage) error {
	outcome, err := w.handle(ctx, msg)
	metrics.MirrorApplied.WithLabelValues(outcome).Inc()
	return err
}

func (w *MirrorWorker) handle(ctx context.Context, msg *amqp.SnapshotMessage) (string, error) {
	snap := msg.Snapshot
	logger := w.logger.With(log.FieldVersion, snap.Version, log.FieldOperation, log.OpMirror)

	// Held for the whole write so versions land in order.
	w.mu.Lock()
	defer w.mu.Unlock()

	if snap.Version <= w.lastVersion {
		logger.DebugContext(ctx, "Skipping stale snapshot", "last_version", w.lastVersion)
		return OutcomeSkipped, nil
	}
	if err := snap.Validate(); err != nil {
		logger.WarnContext(ctx, "Dropping invalid snapshot", log.FieldError, err)
		return OutcomeSkipped, nil
	}

	if err := w.store.Save(ctx, snap); err != nil {
		logger.ErrorContext(ctx, "Failed to write mirror snapshot", log.FieldError, err)
		return OutcomeFailed, fmt.Errorf("save mirror snapshot: %w", err)
	}
	w.lastVersion = snap.Version

	logger.InfoContext(ctx, "Mirror updated",
		log.FieldBalanceCents, snap.Balance.Cents,
		"transactions", len(snap.Transactions),
		"published_at", msg.Timestamp)
	return OutcomeApplied, nil
}
