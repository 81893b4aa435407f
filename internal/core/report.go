package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// DateRange is an inclusive [From, To] window. A zero From or To
	// leaves that side open.
	DateRange struct {
		From time.Time
		To   time.Time
	}

	// CategoryTotal is the per-category sum and entry count for one
	// transaction type.
	CategoryTotal struct {
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
		Count    int             `json:"count"`
	}

	// MonthlyTrend is one calendar-month bucket of the trend series.
	MonthlyTrend struct {
		Month    string          `json:"month"` // e.g. "Sep 2025"
		Expenses decimal.Decimal `json:"expenses"`
		Income   decimal.Decimal `json:"income"`
	}

	GoalProgress struct {
		GoalID        string          `json:"goalId"`
		Title         string          `json:"title"`
		Progress      float64         `json:"progress"` // 0..100
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
	}

	Report struct {
		TotalExpenses      decimal.Decimal `json:"totalExpenses"`
		TotalIncome        decimal.Decimal `json:"totalIncome"`
		NetIncome          decimal.Decimal `json:"netIncome"`
		ExpensesByCategory []CategoryTotal `json:"expensesByCategory"`
		IncomeByCategory   []CategoryTotal `json:"incomeByCategory"`
		MonthlyTrends      []MonthlyTrend  `json:"monthlyTrends"`
		GoalProgress       []GoalProgress  `json:"goalProgress"`
	}
)

// trendMonths is the fixed size of the monthly trend series.
const trendMonths = 12

// Contains reports whether t falls inside the range, bounds inclusive.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// Aggregate computes the full report over the given transactions and
// goals, anchored at the current time. See AggregateAt.
func Aggregate(transactions []Transaction, goals []Goal, rng *DateRange) (Report, error) {
	return AggregateAt(transactions, goals, rng, time.Now())
}

// AggregateAt is Aggregate with an explicit anchor instant.
//
// The range filter is applied before any totals are computed. Category
// groups follow first-seen order in the input. The trend series always
// has exactly twelve calendar-month buckets, oldest first, ending with
// the month of the range end when a bounded range is given, else with
// the month of now.
//
// Returns ErrInvalidGoalTarget when any goal has a non-positive
// target.
func AggregateAt(transactions []Transaction, goals []Goal, rng *DateRange, now time.Time) (Report, error) {
	filtered := transactions
	if rng != nil {
		filtered = make([]Transaction, 0, len(transactions))
		for _, t := range transactions {
			if rng.Contains(t.Date) {
				filtered = append(filtered, t)
			}
		}
	}

	rep := Report{
		TotalExpenses: decimal.Zero,
		TotalIncome:   decimal.Zero,
	}

	for _, t := range filtered {
		switch t.Type {
		case Expense:
			rep.TotalExpenses = rep.TotalExpenses.Add(t.Amount)
			rep.ExpensesByCategory = accumulate(rep.ExpensesByCategory, t)
		case Income:
			rep.TotalIncome = rep.TotalIncome.Add(t.Amount)
			rep.IncomeByCategory = accumulate(rep.IncomeByCategory, t)
		}
	}
	rep.NetIncome = rep.TotalIncome.Sub(rep.TotalExpenses)

	anchor := now
	if rng != nil && !rng.To.IsZero() {
		anchor = rng.To
	}
	rep.MonthlyTrends = monthlyTrends(filtered, anchor)

	for _, g := range goals {
		if g.TargetAmount.Sign() <= 0 {
			return Report{}, ErrInvalidGoalTarget
		}
		ratio, _ := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Float64()
		if ratio > 100 {
			ratio = 100
		}
		if ratio < 0 {
			ratio = 0
		}
		rep.GoalProgress = append(rep.GoalProgress, GoalProgress{
			GoalID:        g.ID,
			Title:         g.Title,
			Progress:      ratio,
			TargetAmount:  g.TargetAmount,
			CurrentAmount: g.CurrentAmount,
		})
	}

	return rep, nil
}

// accumulate folds one transaction into its category group, appending
// a new group on first sight so group order follows input order.
func accumulate(groups []CategoryTotal, t Transaction) []CategoryTotal {
	for i := range groups {
		if groups[i].Category == t.CategoryID {
			groups[i].Amount = groups[i].Amount.Add(t.Amount)
			groups[i].Count++
			return groups
		}
	}
	return append(groups, CategoryTotal{Category: t.CategoryID, Amount: t.Amount, Count: 1})
}

func monthlyTrends(transactions []Transaction, anchor time.Time) []MonthlyTrend {
	trends := make([]MonthlyTrend, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		bucket := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location()).AddDate(0, -i, 0)
		trend := MonthlyTrend{
			Month:    bucket.Format("Jan 2006"),
			Expenses: decimal.Zero,
			Income:   decimal.Zero,
		}
		for _, t := range transactions {
			if t.Date.Year() != bucket.Year() || t.Date.Month() != bucket.Month() {
				continue
			}
			switch t.Type {
			case Expense:
				trend.Expenses = trend.Expenses.Add(t.Amount)
			case Income:
				trend.Income = trend.Income.Add(t.Amount)
			}
		}
		trends = append(trends, trend)
	}
	return trends
}

// SpendingSince returns the expense transactions dated on or after the
// start of the given period ("week", "month" or "year") relative to
// now.
func SpendingSince(transactions []Transaction, period string, now time.Time) []Transaction {
	var start time.Time
	switch period {
	case "week":
		start = now.AddDate(0, 0, -7)
	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case "year":
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return nil
	}
	var out []Transaction
	for _, t := range transactions {
		if t.Type == Expense && !t.Date.Before(start) {
			out = append(out, t)
		}
	}
	return out
}
