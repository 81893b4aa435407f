package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
)

// Store is an in-memory LedgerWriter and VoucherWriter for tests and
// deployments without a spreadsheet configured.
type Store struct {
	mu       sync.Mutex
	ledger   []LedgerRow
	vouchers []core.Voucher
	// FailNext makes the next append return an error, for retry tests.
	FailNext bool
}

type LedgerRow struct {
	Transaction  core.Transaction
	CategoryName string
}

func New() *Store {
	return &Store{}
}

// AppendTransaction stores the row and returns a synthetic reference.
func (s *Store) AppendTransaction(_ context.Context, t core.Transaction, categoryName string) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNext {
		s.FailNext = false
		return "", fmt.Errorf("append unavailable")
	}
	s.ledger = append(s.ledger, LedgerRow{Transaction: t, CategoryName: categoryName})
	return fmt.Sprintf("mem:ledger:%d", len(s.ledger)), nil
}

// AppendVoucher stores the voucher and returns a synthetic reference.
func (s *Store) AppendVoucher(_ context.Context, v core.Voucher) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNext {
		s.FailNext = false
		return "", fmt.Errorf("append unavailable")
	}
	s.vouchers = append(s.vouchers, v)
	return fmt.Sprintf("mem:voucher:%d", len(s.vouchers)), nil
}

// Ledger returns a copy of the appended ledger rows.
func (s *Store) Ledger() []LedgerRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LedgerRow(nil), s.ledger...)
}

// Vouchers returns a copy of the appended vouchers.
func (s *Store) Vouchers() []core.Voucher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Voucher(nil), s.vouchers...)
}
