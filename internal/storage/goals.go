package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (r *Repository) CreateGoal(ctx context.Context, ownerID string, g core.Goal) (core.Goal, error) {
	g.ID = uuid.NewString()
	g.OwnerID = ownerID
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, owner_id, title, description, target_amount, current_amount, category, priority, status, target_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, g.Title, g.Description, g.TargetAmount.String(), g.CurrentAmount.String(),
		g.Category, string(g.Priority), string(g.Status), fmtTime(g.TargetDate), fmtTime(g.CreatedAt), fmtTime(g.UpdatedAt))
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal created",
		"id", g.ID,
		log.FieldOwnerID, g.OwnerID,
		"title", g.Title,
		"target_amount", g.TargetAmount.String())

	return g, nil
}

func (r *Repository) GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description, target_amount, current_amount, category, priority, status, target_date, created_at, updated_at
		 FROM goals WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanGoal(row)
}

// ListGoals returns the owner's goals sorted by creation time
// descending, newest first.
func (r *Repository) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, title, description, target_amount, current_amount, category, priority, status, target_date, created_at, updated_at
		 FROM goals WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateGoal applies a typed partial update. It never touches status,
// even when the update moves currentAmount past the target: only
// AddContribution derives completion.
func (r *Repository) UpdateGoal(ctx context.Context, ownerID, id string, u core.GoalUpdate) (core.Goal, error) {
	set := []string{"updated_at = ?"}
	args := []any{fmtTime(time.Now().UTC())}
	if u.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *u.Title)
	}
	if u.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *u.Description)
	}
	if u.TargetAmount != nil {
		set = append(set, "target_amount = ?")
		args = append(args, u.TargetAmount.String())
	}
	if u.CurrentAmount != nil {
		set = append(set, "current_amount = ?")
		args = append(args, u.CurrentAmount.String())
	}
	if u.Category != nil {
		set = append(set, "category = ?")
		args = append(args, *u.Category)
	}
	if u.Priority != nil {
		set = append(set, "priority = ?")
		args = append(args, string(*u.Priority))
	}
	if u.TargetDate != nil {
		set = append(set, "target_date = ?")
		args = append(args, fmtTime(*u.TargetDate))
	}

	args = append(args, id, ownerID)
	res, err := r.db.ExecContext(ctx,
		"UPDATE goals SET "+joinSet(set)+" WHERE id = ? AND owner_id = ?", args...)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Goal{}, ErrNotFound
	}
	return r.GetGoal(ctx, ownerID, id)
}

// ApplyGoalContribution adds amount to the goal's current amount and
// derives status: completed once current >= target. This is the only
// write path that changes status.
func (r *Repository) ApplyGoalContribution(ctx context.Context, ownerID, id string, amount decimal.Decimal) (core.Goal, error) {
	g, err := r.GetGoal(ctx, ownerID, id)
	if err != nil {
		return core.Goal{}, err
	}

	newAmount := g.CurrentAmount.Add(amount)
	status := core.GoalActive
	if newAmount.GreaterThanOrEqual(g.TargetAmount) {
		status = core.GoalCompleted
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE goals SET current_amount = ?, status = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		newAmount.String(), string(status), fmtTime(time.Now().UTC()), id, ownerID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("apply goal contribution: %w", err)
	}

	slog.InfoContext(ctx, "Goal contribution applied",
		"id", id,
		log.FieldOwnerID, ownerID,
		log.FieldAmount, amount.String(),
		"status", string(status))

	return r.GetGoal(ctx, ownerID, id)
}

func (r *Repository) DeleteGoal(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g                                       core.Goal
		target, current                         string
		priority, status                        string
		targetDate, createdAt, updatedAt string
	)
	err := row.Scan(&g.ID, &g.OwnerID, &g.Title, &g.Description, &target, &current,
		&g.Category, &priority, &status, &targetDate, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	g.Priority = core.GoalPriority(priority)
	g.Status = core.GoalStatus(status)
	if g.TargetAmount, err = parseAmount(target); err != nil {
		return core.Goal{}, err
	}
	if g.CurrentAmount, err = parseAmount(current); err != nil {
		return core.Goal{}, err
	}
	if g.TargetDate, err = parseTime(targetDate); err != nil {
		return core.Goal{}, err
	}
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Goal{}, err
	}
	if g.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}
