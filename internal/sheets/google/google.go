package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors ledger rows and issued vouchers to a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
	voucherSheet  string
}

// Ensure interface conformance
var (
	_ ports.LedgerWriter  = (*Client)(nil)
	_ ports.VoucherWriter = (*Client)(nil)
)

// Options configure the spreadsheet target.
type Options struct {
	SpreadsheetID string
	LedgerSheet   string
	VoucherSheet  string
	// CredsFile holds service-account JSON; empty falls back to
	// GOOGLE_APPLICATION_CREDENTIALS and then ADC.
	CredsFile string
}

// New creates a Sheets client for the given spreadsheet.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if opts.LedgerSheet == "" {
		opts.LedgerSheet = "Ledger"
	}
	if opts.VoucherSheet == "" {
		opts.VoucherSheet = "Vouchers"
	}

	svc, err := newSheetsService(ctx, opts.CredsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		ledgerSheet:   opts.LedgerSheet,
		voucherSheet:  opts.VoucherSheet,
	}, nil
}

func newSheetsService(ctx context.Context, credsFile string) (*gsheet.Service, error) {
	if credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	if credsFile != "" {
		credentialsJSON, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return gsheet.NewService(ctx,
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	}

	// Application Default Credentials.
	return gsheet.NewService(ctx, goption.WithScopes(gsheet.SpreadsheetsScope))
}

// AppendTransaction writes one ledger row:
// Date, Code, Type, Description, Category, Amount, Owner.
func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction, categoryName string) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	amount, _ := t.Amount.Float64()
	row := []any{
		t.Date.Format("2006-01-02"),
		t.Code,
		string(t.Type),
		t.Description,
		categoryName,
		amount,
		t.OwnerID,
	}

	return c.appendRow(ctx, c.ledgerSheet, row)
}

// AppendVoucher writes one voucher row:
// Date, Number, Type, Title, Category, Amount, Status, Owner.
func (c *Client) AppendVoucher(ctx context.Context, v core.Voucher) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	amount, _ := v.Amount.Float64()
	row := []any{
		v.Date.Format("2006-01-02"),
		v.VoucherNumber,
		string(v.Type),
		v.Title,
		v.Category,
		amount,
		string(v.Status),
		v.OwnerID,
	}

	return c.appendRow(ctx, c.voucherSheet, row)
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []any) (string, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return fmt.Sprintf("%s!A:A", sheet), nil
}
