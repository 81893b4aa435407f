package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// defaultCategories are seeded for owners with an empty forest.
var defaultCategories = []core.Category{
	{Name: "Food", Icon: "🍽️"},
	{Name: "Transport", Icon: "🚗"},
	{Name: "Bills", Icon: "💡"},
	{Name: "Entertainment", Icon: "🎬"},
	{Name: "Shopping", Icon: "🛍️"},
	{Name: "Health", Icon: "🏥"},
	{Name: "Education", Icon: "📚"},
	{Name: "Other", Icon: "📝"},
}

// CategoryService manages an owner's category forest.
type CategoryService struct {
	repo  *storage.Repository
	cache CacheInvalidator
}

func NewCategoryService(repo *storage.Repository, cache CacheInvalidator) *CategoryService {
	return &CategoryService{repo: repo, cache: cache}
}

func (s *CategoryService) Create(ctx context.Context, id auth.Identity, c core.Category) (core.Category, error) {
	if err := auth.Require(id); err != nil {
		return core.Category{}, err
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	return s.repo.CreateCategory(ctx, id.UID, c)
}

func (s *CategoryService) Get(ctx context.Context, id auth.Identity, categoryID string) (core.Category, error) {
	if err := auth.Require(id); err != nil {
		return core.Category{}, err
	}
	return s.repo.GetCategory(ctx, id.UID, categoryID)
}

func (s *CategoryService) List(ctx context.Context, id auth.Identity) ([]core.Category, error) {
	if err := auth.Require(id); err != nil {
		return nil, err
	}
	return s.repo.ListCategories(ctx, id.UID)
}

// Children returns the categories under parentID; a nil parentID lists
// the roots.
func (s *CategoryService) Children(ctx context.Context, id auth.Identity, parentID *string) ([]core.Category, error) {
	if err := auth.Require(id); err != nil {
		return nil, err
	}
	return s.repo.CategoryChildren(ctx, id.UID, parentID)
}

func (s *CategoryService) Update(ctx context.Context, id auth.Identity, categoryID string, u core.CategoryUpdate) (core.Category, error) {
	if err := auth.Require(id); err != nil {
		return core.Category{}, err
	}
	c, err := s.repo.UpdateCategory(ctx, id.UID, categoryID, u)
	if err != nil {
		return core.Category{}, err
	}
	// Cached reports embed resolved category names, so a rename must
	// drop them.
	s.invalidate(id.UID)
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id auth.Identity, categoryID string) error {
	if err := auth.Require(id); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id.UID, categoryID); err != nil {
		return err
	}
	s.invalidate(id.UID)
	return nil
}

func (s *CategoryService) invalidate(ownerID string) {
	if s.cache != nil {
		s.cache.InvalidateOwner(ownerID)
	}
}

// EnsureDefaults seeds the starter categories for owners whose forest
// is still empty. Idempotent: a non-empty forest is left alone.
func (s *CategoryService) EnsureDefaults(ctx context.Context, id auth.Identity) ([]core.Category, error) {
	if err := auth.Require(id); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListCategories(ctx, id.UID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	created := make([]core.Category, 0, len(defaultCategories))
	for _, c := range defaultCategories {
		saved, err := s.repo.CreateCategory(ctx, id.UID, c)
		if err != nil {
			return created, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		created = append(created, saved)
	}

	slog.InfoContext(ctx, "Seeded default categories",
		log.FieldOwnerID, id.UID, "count", len(created))
	return created, nil
}
