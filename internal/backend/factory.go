package backend

import (
	"context"
	"fmt"

	"wallet/internal/log"
	"wallet/internal/persist/google"
	"wallet/internal/persist/memory"
	"wallet/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

var _ Factory = (*DefaultFactory)(nil)

// Create implements Factory.Create
func (f *DefaultFactory) Create(ctx context.Context, cfg Config) (*Result, error) {
	switch cfg.Type {
	case SQLite:
		return f.createSQLite(cfg)
	case Sheets:
		return f.createSheets(ctx, cfg)
	case Memory:
		return f.createMemory()
	default:
		return nil, fmt.Errorf("unsupported backend type: %q", cfg.Type)
	}
}

func (f *DefaultFactory) createSQLite(cfg Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &Result{
		Store:   repo.SnapshotStore(),
		Cleanup: repo.Close,
		Ping:    repo.Ping,
	}, nil
}

func (f *DefaultFactory) createSheets(ctx context.Context, cfg Config) (*Result, error) {
	client, err := google.New(ctx, google.Config{
		SpreadsheetID:     cfg.GoogleSpreadsheetID,
		WalletSheet:       cfg.GoogleWalletSheet,
		TransactionsSheet: cfg.GoogleTransactionsSheet,
		CredentialsJSON:   cfg.GoogleServiceAccountJSON,
		CredentialsFile:   cfg.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return &Result{Store: client, Cleanup: noop}, nil
}

func (f *DefaultFactory) createMemory() (*Result, error) {
	store, _ := memory.NewSnapshotStore()
	f.logger.Warn("Using in-memory backend, the wallet is lost on restart")
	return &Result{Store: store, Cleanup: noop}, nil
}

func noop() error { return nil }
