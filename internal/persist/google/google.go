// Package google stores the ledger snapshot in a Google Sheets spreadsheet.
//
// Layout: cell A1 of the wallet sheet holds the wallet JSON, the
// transactions sheet holds a header row and then one row per transaction
// (ID, Title, Amount, Category, Date) in ledger order.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/persist"
)

const (
	DefaultWalletSheet       = "Wallet"
	DefaultTransactionsSheet = "Transactions"
)

var header = []any{"ID", "Title", "Amount", "Category", "Date"}

type Config struct {
	SpreadsheetID     string
	WalletSheet       string
	TransactionsSheet string
	// Service account credentials, inline JSON or a file path.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	walletSheet       string
	transactionsSheet string
	logger            *log.Logger
}

var _ persist.Store = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	logger = logger.WithComponent(log.ComponentSheets)

	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", cfg.SpreadsheetID)

	return &Client{
		svc:               svc,
		spreadsheetID:     cfg.SpreadsheetID,
		walletSheet:       orDefault(cfg.WalletSheet, DefaultWalletSheet),
		transactionsSheet: orDefault(cfg.TransactionsSheet, DefaultTransactionsSheet),
		logger:            logger,
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case cfg.CredentialsJSON != "":
		return []byte(cfg.CredentialsJSON), nil
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (c *Client) walletRange() string       { return fmt.Sprintf("%s!A1", c.walletSheet) }
func (c *Client) transactionsRange() string { return fmt.Sprintf("%s!A2:E", c.transactionsSheet) }

// Load reads both sheets in one batch call.
func (c *Client) Load(ctx context.Context) (core.Snapshot, error) {
	if c.svc == nil {
		return core.Snapshot{}, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.BatchGet(c.spreadsheetID).
		Ranges(c.walletRange(), c.transactionsRange()).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	if len(resp.ValueRanges) != 2 {
		return core.Snapshot{}, fmt.Errorf("read snapshot: expected 2 ranges, got %d", len(resp.ValueRanges))
	}

	walletCell := firstCell(resp.ValueRanges[0].Values)
	if walletCell == "" {
		return core.Snapshot{}, persist.ErrNotFound
	}
	snap, err := persist.DecodeWallet([]byte(walletCell))
	if err != nil {
		return core.Snapshot{}, err
	}
	txs, err := rowsToTransactions(resp.ValueRanges[1].Values)
	if err != nil {
		return core.Snapshot{}, &persist.ReadError{Key: persist.KeyTransactions, Err: err}
	}
	snap.Transactions = txs
	snap.TotalExpenses = core.SumAmounts(txs)
	return snap, nil
}

// Save clears the transaction rows and rewrites the whole snapshot.
func (c *Client) Save(ctx context.Context, snap core.Snapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	wallet, err := persist.EncodeWallet(snap)
	if err != nil {
		return fmt.Errorf("encode wallet: %w", err)
	}

	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.transactionsRange(), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", c.transactionsRange(), err)
	}

	req := &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data: []*gsheet.ValueRange{
			{Range: c.walletRange(), Values: [][]any{{string(wallet)}}},
			{Range: fmt.Sprintf("%s!A1:E1", c.transactionsSheet), Values: [][]any{header}},
		},
	}
	if rows := transactionsToRows(snap.Transactions); len(rows) > 0 {
		req.Data = append(req.Data, &gsheet.ValueRange{
			Range:  fmt.Sprintf("%s!A2:E%d", c.transactionsSheet, len(rows)+1),
			Values: rows,
		})
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	c.logger.DebugContext(ctx, "Snapshot written to sheets",
		log.FieldVersion, snap.Version, "rows", len(snap.Transactions))
	return nil
}
