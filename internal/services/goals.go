package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// GoalService manages savings goals and their contributions.
type GoalService struct {
	repo      *storage.Repository
	publisher Publisher
	cache     CacheInvalidator
}

func NewGoalService(repo *storage.Repository, publisher Publisher, cache CacheInvalidator) *GoalService {
	return &GoalService{repo: repo, publisher: publisher, cache: cache}
}

func (s *GoalService) Create(ctx context.Context, id auth.Identity, g core.Goal) (core.Goal, error) {
	if err := auth.Require(id); err != nil {
		return core.Goal{}, err
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	saved, err := s.repo.CreateGoal(ctx, id.UID, g)
	if err != nil {
		return core.Goal{}, err
	}
	s.invalidate(id.UID)
	return saved, nil
}

func (s *GoalService) Get(ctx context.Context, id auth.Identity, goalID string) (core.Goal, error) {
	if err := auth.Require(id); err != nil {
		return core.Goal{}, err
	}
	return s.repo.GetGoal(ctx, id.UID, goalID)
}

// List returns the owner's goals, newest first.
func (s *GoalService) List(ctx context.Context, id auth.Identity) ([]core.Goal, error) {
	if err := auth.Require(id); err != nil {
		return nil, err
	}
	return s.repo.ListGoals(ctx, id.UID)
}

// Update applies a partial update. Status is not updatable here; it
// only changes through AddContribution.
func (s *GoalService) Update(ctx context.Context, id auth.Identity, goalID string, u core.GoalUpdate) (core.Goal, error) {
	if err := auth.Require(id); err != nil {
		return core.Goal{}, err
	}
	saved, err := s.repo.UpdateGoal(ctx, id.UID, goalID, u)
	if err != nil {
		return core.Goal{}, err
	}
	s.invalidate(id.UID)
	return saved, nil
}

func (s *GoalService) Delete(ctx context.Context, id auth.Identity, goalID string) error {
	if err := auth.Require(id); err != nil {
		return err
	}
	if err := s.repo.DeleteGoal(ctx, id.UID, goalID); err != nil {
		return err
	}
	s.invalidate(id.UID)
	return nil
}

// AddContribution adds the amount to the goal's saved balance and
// derives the new status: completed when the balance reaches the
// target, active when a later change drops it back below. A voucher
// issue message is published for the contribution; publish failures
// are logged, the contribution stands.
func (s *GoalService) AddContribution(ctx context.Context, id auth.Identity, goalID string, amount decimal.Decimal) (core.Goal, error) {
	if err := auth.Require(id); err != nil {
		return core.Goal{}, err
	}
	if amount.Sign() <= 0 {
		return core.Goal{}, fmt.Errorf("contribution: %w", core.ErrInvalidAmount)
	}

	saved, err := s.repo.ApplyGoalContribution(ctx, id.UID, goalID, amount)
	if err != nil {
		return core.Goal{}, fmt.Errorf("apply contribution: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishGoalVoucher(ctx, id.UID, goalID, amount); err != nil {
			slog.ErrorContext(ctx, "Failed to publish goal voucher message",
				log.FieldGoalID, goalID, log.FieldError, err)
		}
	}

	s.invalidate(id.UID)
	return saved, nil
}

func (s *GoalService) invalidate(ownerID string) {
	if s.cache != nil {
		s.cache.InvalidateOwner(ownerID)
	}
}
