package storage

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
)

func TestCategoryForest(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	root, err := repo.CreateCategory(ctx, "u1", core.Category{Name: "Food", Icon: "🍽️"})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	if root.ID == "" || root.OwnerID != "u1" || root.ParentID != nil {
		t.Fatalf("unexpected root: %+v", root)
	}

	child, err := repo.CreateCategory(ctx, "u1", core.Category{Name: "Groceries", Icon: "🛒", ParentID: &root.ID})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	roots, err := repo.CategoryChildren(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("roots: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != root.ID {
		t.Fatalf("expected only the root, got %+v", roots)
	}

	children, err := repo.CategoryChildren(ctx, "u1", &root.ID)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 1 || children[0].ID != child.ID {
		t.Fatalf("expected the child, got %+v", children)
	}
}

func TestCategoryOwnershipFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mine, err := repo.CreateCategory(ctx, "userA", core.Category{Name: "Bills", Icon: "💡"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateCategory(ctx, "userB", core.Category{Name: "Bills", Icon: "💡"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// userA sees only their own roots
	roots, err := repo.CategoryChildren(ctx, "userA", nil)
	if err != nil {
		t.Fatalf("roots: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != mine.ID {
		t.Fatalf("ownership leak: %+v", roots)
	}

	// userB cannot read or delete userA's node
	if _, err := repo.GetCategory(ctx, "userB", mine.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteCategory(ctx, "userB", mine.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryParentMustExistAndBeOwned(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	bogus := "no-such-id"
	if _, err := repo.CreateCategory(ctx, "u1", core.Category{Name: "x", ParentID: &bogus}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing parent, got %v", err)
	}

	theirs, err := repo.CreateCategory(ctx, "u2", core.Category{Name: "Travel"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateCategory(ctx, "u1", core.Category{Name: "x", ParentID: &theirs.ID}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign parent, got %v", err)
	}
}

func TestCategoryDeleteRejectedWithChildren(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	root, err := repo.CreateCategory(ctx, "u1", core.Category{Name: "Home"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	child, err := repo.CreateCategory(ctx, "u1", core.Category{Name: "Rent", ParentID: &root.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.DeleteCategory(ctx, "u1", root.ID); !errors.Is(err, ErrCategoryHasChildren) {
		t.Fatalf("expected ErrCategoryHasChildren, got %v", err)
	}

	// leaf first, then the root
	if err := repo.DeleteCategory(ctx, "u1", child.ID); err != nil {
		t.Fatalf("delete child: %v", err)
	}
	if err := repo.DeleteCategory(ctx, "u1", root.ID); err != nil {
		t.Fatalf("delete root: %v", err)
	}
}

func TestCategoryUpdatePartial(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c, err := repo.CreateCategory(ctx, "u1", core.Category{Name: "Helth", Icon: "🏥"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Health"
	got, err := repo.UpdateCategory(ctx, "u1", c.ID, core.CategoryUpdate{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Health" || got.Icon != "🏥" {
		t.Fatalf("partial update clobbered fields: %+v", got)
	}

	if _, err := repo.UpdateCategory(ctx, "u1", "missing", core.CategoryUpdate{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
