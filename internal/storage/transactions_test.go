package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func testTransaction(amount string, date time.Time) core.Transaction {
	return core.Transaction{
		Amount:      decimal.RequireFromString(amount),
		CategoryID:  "food",
		Description: "lunch",
		Type:        core.Expense,
		Date:        date,
	}
}

func TestTransactionCodeSequence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	date := time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC)

	first, err := repo.CreateTransaction(ctx, "u1", testTransaction("50", date))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if want := "20250830-u1-0001"; first.Code != want {
		t.Fatalf("first code expected %s, got %s", want, first.Code)
	}

	second, err := repo.CreateTransaction(ctx, "u1", testTransaction("10", date))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if want := "20250830-u1-0002"; second.Code != want {
		t.Fatalf("second code expected %s, got %s", want, second.Code)
	}

	// other owners and other days start back at 0001
	otherOwner, err := repo.CreateTransaction(ctx, "u2", testTransaction("5", date))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if want := "20250830-u2-0001"; otherOwner.Code != want {
		t.Fatalf("other owner expected %s, got %s", want, otherOwner.Code)
	}

	nextDay, err := repo.CreateTransaction(ctx, "u1", testTransaction("5", date.AddDate(0, 0, 1)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if want := "20250831-u1-0001"; nextDay.Code != want {
		t.Fatalf("next day expected %s, got %s", want, nextDay.Code)
	}
}

func TestTransactionCodeConcurrentUniqueness(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	date := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)

	const n = 20
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[string]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := repo.CreateTransaction(ctx, "u1", testTransaction("1", date))
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			mu.Lock()
			if codes[tr.Code] {
				t.Errorf("duplicate code %s", tr.Code)
			}
			codes[tr.Code] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(codes) != n {
		t.Fatalf("expected %d distinct codes, got %d", n, len(codes))
	}
}

func TestTransactionListSortedByDateDesc(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	// insert out of order
	for _, offset := range []int{3, 0, 7, 1} {
		if _, err := repo.CreateTransaction(ctx, "u1", testTransaction("1", base.AddDate(0, 0, offset))); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	// another owner's record must not appear
	if _, err := repo.CreateTransaction(ctx, "u2", testTransaction("1", base)); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := repo.ListTransactions(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("expected 4 transactions, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].Date.After(list[i-1].Date) {
			t.Fatalf("not sorted descending at %d: %v after %v", i, list[i].Date, list[i-1].Date)
		}
	}
}

func TestTransactionUpdateAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	date := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)

	tr, err := repo.CreateTransaction(ctx, "u1", testTransaction("50", date))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	amount := decimal.RequireFromString("75.50")
	desc := "dinner"
	got, err := repo.UpdateTransaction(ctx, "u1", tr.ID, core.TransactionUpdate{Amount: &amount, Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.Amount.Equal(amount) || got.Description != "dinner" {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.Code != tr.Code || !got.CreatedAt.Equal(tr.CreatedAt) {
		t.Fatalf("immutable fields changed: %+v", got)
	}

	if err := repo.DeleteTransaction(ctx, "u1", tr.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "u1", tr.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTransactionAmountRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	date := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)

	for i, amount := range []string{"0.01", "12.34", "99999.99", "3"} {
		tr, err := repo.CreateTransaction(ctx, "u1", testTransaction(amount, date.AddDate(0, 0, i)))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := repo.GetTransaction(ctx, "u1", tr.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if want := decimal.RequireFromString(amount); !got.Amount.Equal(want) {
			t.Fatalf("amount %s round-tripped to %s", want, got.Amount)
		}
	}
}
