package http

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Wire representations. Amounts travel as decimal strings; dates as
// RFC 3339.
type (
	categoryDTO struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Icon      string    `json:"icon,omitempty"`
		ParentID  *string   `json:"parentId,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}

	transactionDTO struct {
		ID          string    `json:"id"`
		Code        string    `json:"code"`
		Amount      string    `json:"amount"`
		CategoryID  string    `json:"categoryId"`
		ContactID   *string   `json:"contactId,omitempty"`
		Description string    `json:"description"`
		Type        string    `json:"type"`
		Date        time.Time `json:"date"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	goalDTO struct {
		ID            string    `json:"id"`
		Title         string    `json:"title"`
		Description   string    `json:"description,omitempty"`
		TargetAmount  string    `json:"targetAmount"`
		CurrentAmount string    `json:"currentAmount"`
		Category      string    `json:"category"`
		Priority      string    `json:"priority"`
		Status        string    `json:"status"`
		TargetDate    time.Time `json:"targetDate"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	voucherDTO struct {
		ID                   string    `json:"id"`
		VoucherNumber        string    `json:"voucherNumber"`
		Type                 string    `json:"type"`
		Title                string    `json:"title"`
		Description          string    `json:"description,omitempty"`
		Amount               string    `json:"amount"`
		Category             string    `json:"category,omitempty"`
		Date                 time.Time `json:"date"`
		RelatedTransactionID *string   `json:"relatedTransactionId,omitempty"`
		RelatedGoalID        *string   `json:"relatedGoalId,omitempty"`
		Status               string    `json:"status"`
		CreatedAt            time.Time `json:"createdAt"`
	}

	contactDTO struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		CategoryID string    `json:"categoryId"`
		Phone      string    `json:"phone,omitempty"`
		Email      string    `json:"email,omitempty"`
		Address    string    `json:"address,omitempty"`
		Priority   string    `json:"priority,omitempty"`
		CreatedAt  time.Time `json:"createdAt"`
	}
)

func toCategoryDTO(c core.Category) categoryDTO {
	return categoryDTO{
		ID:        c.ID,
		Name:      c.Name,
		Icon:      c.Icon,
		ParentID:  c.ParentID,
		CreatedAt: c.CreatedAt,
	}
}

func toCategoryDTOs(in []core.Category) []categoryDTO {
	out := make([]categoryDTO, len(in))
	for i, c := range in {
		out[i] = toCategoryDTO(c)
	}
	return out
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		Code:        t.Code,
		Amount:      t.Amount.String(),
		CategoryID:  t.CategoryID,
		ContactID:   t.ContactID,
		Description: t.Description,
		Type:        string(t.Type),
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
	}
}

func toTransactionDTOs(in []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, len(in))
	for i, t := range in {
		out[i] = toTransactionDTO(t)
	}
	return out
}

func toGoalDTO(g core.Goal) goalDTO {
	return goalDTO{
		ID:            g.ID,
		Title:         g.Title,
		Description:   g.Description,
		TargetAmount:  g.TargetAmount.String(),
		CurrentAmount: g.CurrentAmount.String(),
		Category:      g.Category,
		Priority:      string(g.Priority),
		Status:        string(g.Status),
		TargetDate:    g.TargetDate,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

func toGoalDTOs(in []core.Goal) []goalDTO {
	out := make([]goalDTO, len(in))
	for i, g := range in {
		out[i] = toGoalDTO(g)
	}
	return out
}

func toVoucherDTO(v core.Voucher) voucherDTO {
	return voucherDTO{
		ID:                   v.ID,
		VoucherNumber:        v.VoucherNumber,
		Type:                 string(v.Type),
		Title:                v.Title,
		Description:          v.Description,
		Amount:               v.Amount.String(),
		Category:             v.Category,
		Date:                 v.Date,
		RelatedTransactionID: v.RelatedTransactionID,
		RelatedGoalID:        v.RelatedGoalID,
		Status:               string(v.Status),
		CreatedAt:            v.CreatedAt,
	}
}

func toVoucherDTOs(in []core.Voucher) []voucherDTO {
	out := make([]voucherDTO, len(in))
	for i, v := range in {
		out[i] = toVoucherDTO(v)
	}
	return out
}

func toContactDTO(c core.Contact) contactDTO {
	return contactDTO{
		ID:         c.ID,
		Name:       c.Name,
		CategoryID: c.CategoryID,
		Phone:      c.Phone,
		Email:      c.Email,
		Address:    c.Address,
		Priority:   c.Priority,
		CreatedAt:  c.CreatedAt,
	}
}

func toContactDTOs(in []core.Contact) []contactDTO {
	out := make([]contactDTO, len(in))
	for i, c := range in {
		out[i] = toContactDTO(c)
	}
	return out
}

// parseOptionalAmount parses a decimal string pointer from a partial
// update payload.
func parseOptionalAmount(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := core.ParseAmount(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseOptionalBalance is parseOptionalAmount for fields where zero is
// a valid value, such as resetting a goal's saved balance.
func parseOptionalBalance(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil || d.IsNegative() {
		return nil, core.ErrInvalidAmount
	}
	return &d, nil
}

// parseOptionalDate parses a date string pointer from a partial update
// payload.
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
