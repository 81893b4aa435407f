package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// VoucherService issues and manages vouchers. Issue operations are
// driven by the worker consuming ledger events, but remain callable
// inline when no broker is configured.
type VoucherService struct {
	repo *storage.Repository
}

func NewVoucherService(repo *storage.Repository) *VoucherService {
	return &VoucherService{repo: repo}
}

func (s *VoucherService) Create(ctx context.Context, id auth.Identity, v core.Voucher) (core.Voucher, error) {
	if err := auth.Require(id); err != nil {
		return core.Voucher{}, err
	}
	if err := v.Validate(); err != nil {
		return core.Voucher{}, err
	}
	return s.repo.CreateVoucher(ctx, id.UID, v)
}

func (s *VoucherService) Get(ctx context.Context, id auth.Identity, voucherID string) (core.Voucher, error) {
	if err := auth.Require(id); err != nil {
		return core.Voucher{}, err
	}
	return s.repo.GetVoucher(ctx, id.UID, voucherID)
}

// List returns the owner's vouchers, newest first.
func (s *VoucherService) List(ctx context.Context, id auth.Identity) ([]core.Voucher, error) {
	if err := auth.Require(id); err != nil {
		return nil, err
	}
	return s.repo.ListVouchers(ctx, id.UID)
}

// Void marks a voucher void without removing it from history.
func (s *VoucherService) Void(ctx context.Context, id auth.Identity, voucherID string) (core.Voucher, error) {
	if err := auth.Require(id); err != nil {
		return core.Voucher{}, err
	}
	return s.repo.VoidVoucher(ctx, id.UID, voucherID)
}

func (s *VoucherService) Delete(ctx context.Context, id auth.Identity, voucherID string) error {
	if err := auth.Require(id); err != nil {
		return err
	}
	return s.repo.DeleteVoucher(ctx, id.UID, voucherID)
}

// IssueForTransaction creates the voucher that documents a ledger
// entry. The voucher mirrors the transaction's type, description and
// amount and links back to it.
func (s *VoucherService) IssueForTransaction(ctx context.Context, id auth.Identity, transactionID string) (core.Voucher, error) {
	if err := auth.Require(id); err != nil {
		return core.Voucher{}, err
	}

	t, err := s.repo.GetTransaction(ctx, id.UID, transactionID)
	if err != nil {
		return core.Voucher{}, fmt.Errorf("load transaction: %w", err)
	}

	vType := core.VoucherExpense
	title := "Expense Voucher"
	if t.Type == core.Income {
		vType = core.VoucherIncome
		title = "Income Voucher"
	}

	category := t.CategoryID
	if cat, err := s.repo.GetCategory(ctx, id.UID, t.CategoryID); err == nil {
		category = cat.Name
	}

	v := core.Voucher{
		Type:                 vType,
		Title:                title,
		Description:          t.Description,
		Amount:               t.Amount,
		Category:             category,
		Date:                 t.Date,
		RelatedTransactionID: &t.ID,
	}
	return s.repo.CreateVoucher(ctx, id.UID, v)
}

// IssueForGoalContribution creates the voucher that documents one goal
// contribution.
func (s *VoucherService) IssueForGoalContribution(ctx context.Context, id auth.Identity, goalID string, amount decimal.Decimal) (core.Voucher, error) {
	if err := auth.Require(id); err != nil {
		return core.Voucher{}, err
	}
	if amount.Sign() <= 0 {
		return core.Voucher{}, core.ErrInvalidAmount
	}

	g, err := s.repo.GetGoal(ctx, id.UID, goalID)
	if err != nil {
		return core.Voucher{}, fmt.Errorf("load goal: %w", err)
	}

	v := core.Voucher{
		Type:          core.VoucherGoalContribution,
		Title:         "Goal Contribution Voucher",
		Description:   fmt.Sprintf("Contribution to %s", g.Title),
		Amount:        amount,
		Category:      g.Category,
		Date:          time.Now(),
		RelatedGoalID: &g.ID,
	}
	return s.repo.CreateVoucher(ctx, id.UID, v)
}
