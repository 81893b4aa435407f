package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerWriter mirrors a transaction to an external spreadsheet and
	// returns a reference to the written row.
	LedgerWriter interface {
		AppendTransaction(ctx context.Context, t core.Transaction, categoryName string) (rowRef string, err error)
	}

	// VoucherWriter records issued vouchers on a dedicated sheet.
	VoucherWriter interface {
		AppendVoucher(ctx context.Context, v core.Voucher) (rowRef string, err error)
	}
)
