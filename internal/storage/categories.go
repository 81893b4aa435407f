package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// CreateCategory appends one node to the owner's forest. A non-nil
// parent must already exist and belong to the same owner.
func (r *Repository) CreateCategory(ctx context.Context, ownerID string, c core.Category) (core.Category, error) {
	if c.ParentID != nil {
		if _, err := r.GetCategory(ctx, ownerID, *c.ParentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return core.Category{}, fmt.Errorf("parent category %s: %w", *c.ParentID, ErrNotFound)
			}
			return core.Category{}, err
		}
	}

	c.ID = uuid.NewString()
	c.OwnerID = ownerID
	c.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, owner_id, name, icon, parent_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Icon, nullable(c.ParentID), fmtTime(c.CreatedAt))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	slog.InfoContext(ctx, "Category created",
		"id", c.ID,
		log.FieldOwnerID, c.OwnerID,
		"name", c.Name,
		"root", c.ParentID == nil)

	return c, nil
}

func (r *Repository) GetCategory(ctx context.Context, ownerID, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, icon, parent_id, created_at
		 FROM categories WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanCategory(row)
}

// CategoryChildren returns the nodes whose parent is parentID, or the
// owner's roots when parentID is nil. Result order is unspecified.
func (r *Repository) CategoryChildren(ctx context.Context, ownerID string, parentID *string) ([]core.Category, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parentID == nil {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, owner_id, name, icon, parent_id, created_at
			 FROM categories WHERE owner_id = ? AND parent_id IS NULL`, ownerID)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, owner_id, name, icon, parent_id, created_at
			 FROM categories WHERE owner_id = ? AND parent_id = ?`, ownerID, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("query category children: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCategories returns the owner's whole forest.
func (r *Repository) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, icon, parent_id, created_at
		 FROM categories WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateCategory(ctx context.Context, ownerID, id string, u core.CategoryUpdate) (core.Category, error) {
	set := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if u.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Icon != nil {
		set = append(set, "icon = ?")
		args = append(args, *u.Icon)
	}
	if len(set) > 0 {
		args = append(args, id, ownerID)
		res, err := r.db.ExecContext(ctx,
			"UPDATE categories SET "+joinSet(set)+" WHERE id = ? AND owner_id = ?", args...)
		if err != nil {
			return core.Category{}, fmt.Errorf("update category: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.Category{}, ErrNotFound
		}
	}
	return r.GetCategory(ctx, ownerID, id)
}

// DeleteCategory removes a node. Deletion is rejected while children
// exist, so the forest never contains orphans.
func (r *Repository) DeleteCategory(ctx context.Context, ownerID, id string) error {
	children, err := r.CategoryChildren(ctx, ownerID, &id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return fmt.Errorf("delete category %s: %w", id, ErrCategoryHasChildren)
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Category deleted", "id", id, log.FieldOwnerID, ownerID)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c         core.Category
		parent    sql.NullString
		createdAt string
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Icon, &parent, &createdAt)
	if err == sql.ErrNoRows {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	c.ParentID = strPtr(parent)
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func joinSet(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}
