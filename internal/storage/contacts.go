package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

func (r *Repository) CreateContact(ctx context.Context, ownerID string, c core.Contact) (core.Contact, error) {
	c.ID = uuid.NewString()
	c.OwnerID = ownerID
	c.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (id, owner_id, name, category_id, phone, email, address, priority, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.CategoryID, c.Phone, c.Email, c.Address, c.Priority, fmtTime(c.CreatedAt))
	if err != nil {
		return core.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return c, nil
}

func (r *Repository) GetContact(ctx context.Context, ownerID, id string) (core.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, category_id, phone, email, address, priority, created_at
		 FROM contacts WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanContact(row)
}

func (r *Repository) ListContacts(ctx context.Context, ownerID string) ([]core.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, category_id, phone, email, address, priority, created_at
		 FROM contacts WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	var out []core.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateContact(ctx context.Context, ownerID, id string, u core.ContactUpdate) (core.Contact, error) {
	set := make([]string, 0, 6)
	args := make([]any, 0, 8)
	if u.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *u.Name)
	}
	if u.CategoryID != nil {
		set = append(set, "category_id = ?")
		args = append(args, *u.CategoryID)
	}
	if u.Phone != nil {
		set = append(set, "phone = ?")
		args = append(args, *u.Phone)
	}
	if u.Email != nil {
		set = append(set, "email = ?")
		args = append(args, *u.Email)
	}
	if u.Address != nil {
		set = append(set, "address = ?")
		args = append(args, *u.Address)
	}
	if u.Priority != nil {
		set = append(set, "priority = ?")
		args = append(args, *u.Priority)
	}
	if len(set) > 0 {
		args = append(args, id, ownerID)
		res, err := r.db.ExecContext(ctx,
			"UPDATE contacts SET "+joinSet(set)+" WHERE id = ? AND owner_id = ?", args...)
		if err != nil {
			return core.Contact{}, fmt.Errorf("update contact: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.Contact{}, ErrNotFound
		}
	}
	return r.GetContact(ctx, ownerID, id)
}

func (r *Repository) DeleteContact(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanContact(row rowScanner) (core.Contact, error) {
	var (
		c       core.Contact
		created string
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.CategoryID, &c.Phone, &c.Email, &c.Address, &c.Priority, &created)
	if err == sql.ErrNoRows {
		return core.Contact{}, ErrNotFound
	}
	if err != nil {
		return core.Contact{}, fmt.Errorf("scan contact: %w", err)
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return core.Contact{}, err
	}
	return c, nil
}
