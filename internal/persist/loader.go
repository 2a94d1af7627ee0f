package persist

import (
	"context"
	"errors"

	"wallet/internal/core"
	"wallet/internal/log"
)

// LoadOrDefault reads the stored snapshot once. A missing snapshot, an
// unreadable one or one that fails validation all yield defaults; only the
// latter two are logged as warnings. It never fails.
func LoadOrDefault(ctx context.Context, l Loader, defaults core.Snapshot, logger *log.Logger) core.Snapshot {
	logger = logger.WithComponent(log.ComponentPersist)

	snap, err := l.Load(ctx)
	if err == nil {
		if verr := snap.Validate(); verr != nil {
			err = &ReadError{Key: KeyTransactions, Err: verr}
		}
	}

	switch {
	case err == nil:
		logger.Info("Loaded stored snapshot",
			log.FieldVersion, snap.Version,
			log.FieldBalanceCents, snap.Balance.Cents,
			"transactions", len(snap.Transactions))
		return snap
	case errors.Is(err, ErrNotFound):
		logger.Info("No stored snapshot, starting from defaults", log.FieldBalanceCents, defaults.Balance.Cents)
	default:
		var re *ReadError
		if errors.As(err, &re) {
			logger.Warn("Stored snapshot unreadable, starting from defaults", log.FieldKey, re.Key, log.FieldError, err)
		} else {
			logger.Warn("Failed to load snapshot, starting from defaults", log.FieldError, err)
		}
	}
	return defaults.Clone()
}
