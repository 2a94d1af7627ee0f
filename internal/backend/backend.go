// Package backend builds the snapshot store selected by configuration.
package backend

import (
	"context"

	"wallet/internal/config"
	"wallet/internal/persist"
)

// Type names a storage backend.
type Type string

const (
	SQLite Type = config.BackendSQLite
	Sheets Type = config.BackendSheets
	Memory Type = config.BackendMemory
)

func (t Type) String() string { return string(t) }

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLite, Sheets, Memory:
		return true
	default:
		return false
	}
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	SQLiteDBPath string

	GoogleSpreadsheetID      string
	GoogleWalletSheet        string
	GoogleTransactionsSheet  string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is a ready snapshot store with its optional hooks.
type Result struct {
	Store persist.Store
	// Cleanup is never nil.
	Cleanup CleanupFunc
	// Ping checks the backend is reachable; nil when there is nothing to check.
	Ping func(ctx context.Context) error
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, cfg Config) (*Result, error)
}

// FromAppConfig selects the primary store (DATA_BACKEND).
func FromAppConfig(c *config.Config) Config {
	cfg := shared(c)
	cfg.Type = Type(c.DataBackend)
	cfg.SQLiteDBPath = c.SQLiteDBPath
	return cfg
}

// MirrorFromAppConfig selects the mirror worker's store (MIRROR_BACKEND).
func MirrorFromAppConfig(c *config.Config) Config {
	cfg := shared(c)
	cfg.Type = Type(c.MirrorBackend)
	cfg.SQLiteDBPath = c.MirrorSQLiteDBPath
	return cfg
}

func shared(c *config.Config) Config {
	return Config{
		GoogleSpreadsheetID:      c.GoogleSpreadsheetID,
		GoogleWalletSheet:        c.GoogleWalletSheet,
		GoogleTransactionsSheet:  c.GoogleTransactionsSheet,
		GoogleServiceAccountJSON: c.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: c.GoogleServiceAccountFile,
	}
}
