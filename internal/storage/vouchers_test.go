package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var voucherNumberRe = regexp.MustCompile(`^VCH-\d{1,6}-[0-9A-Z]{6}$`)

func testVoucher() core.Voucher {
	return core.Voucher{
		Type:        core.VoucherExpense,
		Title:       "Expense Voucher",
		Description: "lunch",
		Amount:      decimal.RequireFromString("12.34"),
		Category:    "food",
		Date:        time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestVoucherNumberFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		n := NewVoucherNumber()
		if !voucherNumberRe.MatchString(n) {
			t.Fatalf("bad voucher number %q", n)
		}
		seen[n] = true
	}
	if len(seen) < 45 {
		t.Fatalf("voucher numbers collide too often: %d distinct of 50", len(seen))
	}
}

func TestVoucherLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	v, err := repo.CreateVoucher(ctx, "u1", testVoucher())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !voucherNumberRe.MatchString(v.VoucherNumber) {
		t.Fatalf("bad generated number %q", v.VoucherNumber)
	}
	if v.Status != core.VoucherActive {
		t.Fatalf("new voucher should be active, got %s", v.Status)
	}

	voided, err := repo.VoidVoucher(ctx, "u1", v.ID)
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if voided.Status != core.VoucherVoid {
		t.Fatalf("expected void status, got %s", voided.Status)
	}

	// voiding someone else's voucher is a not-found
	if _, err := repo.VoidVoucher(ctx, "u2", v.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.DeleteVoucher(ctx, "u1", v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetVoucher(ctx, "u1", v.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestVoucherRelatedReferencesRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	txID := "tx-123"
	v := testVoucher()
	v.RelatedTransactionID = &txID

	created, err := repo.CreateVoucher(ctx, "u1", v)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.GetVoucher(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RelatedTransactionID == nil || *got.RelatedTransactionID != txID {
		t.Fatalf("related transaction lost: %+v", got)
	}
	if got.RelatedGoalID != nil {
		t.Fatalf("unexpected related goal: %+v", got)
	}
}
