package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

const (
	PriorityLow    GoalPriority = "low"
	PriorityMedium GoalPriority = "medium"
	PriorityHigh   GoalPriority = "high"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
)

const (
	VoucherExpense          VoucherType = "expense"
	VoucherIncome           VoucherType = "income"
	VoucherLoan             VoucherType = "loan"
	VoucherSettlement       VoucherType = "settlement"
	VoucherGoalContribution VoucherType = "goal_contribution"
)

const (
	VoucherActive VoucherStatus = "active"
	VoucherVoid   VoucherStatus = "void"
)

type (
	TransactionType string
	GoalPriority    string
	GoalStatus      string
	VoucherType     string
	VoucherStatus   string

	// Category is one node of an owner's category forest. A nil
	// ParentID marks a root.
	Category struct {
		ID        string
		OwnerID   string
		Name      string
		Icon      string
		ParentID  *string
		CreatedAt time.Time
	}

	// Transaction is a dated income or expense record. Code is the
	// derived human-readable identifier ({YYYYMMDD}-{owner}-{serial}),
	// distinct from the opaque ID.
	Transaction struct {
		ID          string
		OwnerID     string
		Amount      decimal.Decimal
		CategoryID  string
		ContactID   *string
		Description string
		Type        TransactionType
		Date        time.Time
		Code        string
		CreatedAt   time.Time
	}

	Goal struct {
		ID            string
		OwnerID       string
		Title         string
		Description   string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		Category      string
		Priority      GoalPriority
		Status        GoalStatus
		TargetDate    time.Time
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	Voucher struct {
		ID                   string
		OwnerID              string
		VoucherNumber        string
		Type                 VoucherType
		Title                string
		Description          string
		Amount               decimal.Decimal
		Category             string
		Date                 time.Time
		RelatedTransactionID *string
		RelatedGoalID        *string
		Status               VoucherStatus
		CreatedAt            time.Time
	}

	Contact struct {
		ID         string
		OwnerID    string
		Name       string
		CategoryID string
		Phone      string
		Email      string
		Address    string
		Priority   string
		CreatedAt  time.Time
	}
)

// Typed partial updates. Each enumerates exactly the mutable fields of
// its entity; nil means "leave unchanged".
type (
	CategoryUpdate struct {
		Name *string
		Icon *string
	}

	TransactionUpdate struct {
		Amount      *decimal.Decimal
		CategoryID  *string
		ContactID   *string
		Description *string
		Type        *TransactionType
		Date        *time.Time
	}

	// GoalUpdate deliberately has no Status field: status is derived
	// only inside AddContribution, never set directly.
	GoalUpdate struct {
		Title         *string
		Description   *string
		TargetAmount  *decimal.Decimal
		CurrentAmount *decimal.Decimal
		Category      *string
		Priority      *GoalPriority
		TargetDate    *time.Time
	}

	ContactUpdate struct {
		Name       *string
		CategoryID *string
		Phone      *string
		Email      *string
		Address    *string
		Priority   *string
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyTitle        = errors.New("empty title")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrZeroDate          = errors.New("date cannot be zero")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidGoalTarget = errors.New("goal target amount must be positive")
)

func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

func (p GoalPriority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func (v VoucherType) Valid() bool {
	switch v {
	case VoucherExpense, VoucherIncome, VoucherLoan, VoucherSettlement, VoucherGoalContribution:
		return true
	}
	return false
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if g.TargetAmount.Sign() <= 0 {
		return ErrInvalidGoalTarget
	}
	if g.CurrentAmount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(g.Category) == "" {
		return ErrEmptyCategory
	}
	if !g.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

func (v Voucher) Validate() error {
	if strings.TrimSpace(v.Title) == "" {
		return ErrEmptyTitle
	}
	if err := ValidateAmount(v.Amount); err != nil {
		return err
	}
	if !v.Type.Valid() {
		return errors.New("invalid voucher type")
	}
	if v.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}
