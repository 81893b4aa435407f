package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var (
	alice = auth.Identity{UID: "alice", DisplayName: "Alice"}
	nobody = auth.Identity{}
)

func newTestRepo(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newCategory(t *testing.T, repo *storage.Repository, ownerID, name string) core.Category {
	t.Helper()
	c, err := repo.CreateCategory(context.Background(), ownerID, core.Category{Name: name})
	if err != nil {
		t.Fatalf("CreateCategory(%q) error: %v", name, err)
	}
	return c
}

func newTransaction(categoryID, description, amount string, tt core.TransactionType, date time.Time) core.Transaction {
	return core.Transaction{
		Amount:      decimal.RequireFromString(amount),
		CategoryID:  categoryID,
		Description: description,
		Type:        tt,
		Date:        date,
	}
}

// fakePublisher records published messages and optionally fails.
type fakePublisher struct {
	mu            sync.Mutex
	ledgerSyncs   []string
	voucherIssues []string
	goalVouchers  []string
	fail          bool
}

func (p *fakePublisher) PublishVoucherIssue(_ context.Context, _, transactionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("broker unavailable")
	}
	p.voucherIssues = append(p.voucherIssues, transactionID)
	return nil
}

func (p *fakePublisher) PublishGoalVoucher(_ context.Context, _, goalID string, _ decimal.Decimal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("broker unavailable")
	}
	p.goalVouchers = append(p.goalVouchers, goalID)
	return nil
}

func (p *fakePublisher) PublishLedgerSync(_ context.Context, _, transactionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("broker unavailable")
	}
	p.ledgerSyncs = append(p.ledgerSyncs, transactionID)
	return nil
}

func (p *fakePublisher) counts() (ledger, vouchers, goals int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ledgerSyncs), len(p.voucherIssues), len(p.goalVouchers)
}
