package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// CreateTransaction persists a new record, assigning the opaque id,
// the creation timestamp, and the human-readable code when unset.
func (r *Repository) CreateTransaction(ctx context.Context, ownerID string, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.OwnerID = ownerID
	t.CreatedAt = time.Now().UTC()

	if t.Code == "" {
		code, err := r.NextTransactionCode(ctx, ownerID, t.Date)
		if err != nil {
			return core.Transaction{}, err
		}
		t.Code = code
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, owner_id, amount, category_id, contact_id, description, type, date, code, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Amount.String(), t.CategoryID, nullable(t.ContactID),
		t.Description, string(t.Type), fmtTime(t.Date), t.Code, fmtTime(t.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", t.ID,
		log.FieldOwnerID, t.OwnerID,
		log.FieldTransactionCode, t.Code,
		"type", string(t.Type),
		log.FieldAmount, t.Amount.String())

	return t, nil
}

// NextTransactionCode allocates the next {YYYYMMDD}-{owner}-{serial}
// display code. The serial comes from an atomic upsert on a per
// (owner, day) counter row, so concurrent creations on the same day
// can never share a serial.
func (r *Repository) NextTransactionCode(ctx context.Context, ownerID string, date time.Time) (string, error) {
	day := date.Format("20060102")

	var serial int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO transaction_serials (owner_id, day, serial) VALUES (?, ?, 1)
		 ON CONFLICT (owner_id, day) DO UPDATE SET serial = serial + 1
		 RETURNING serial`, ownerID, day).Scan(&serial)
	if err != nil {
		return "", fmt.Errorf("allocate transaction serial: %w", err)
	}

	return fmt.Sprintf("%s-%s-%04d", day, ownerID, serial), nil
}

func (r *Repository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, amount, category_id, contact_id, description, type, date, code, created_at
		 FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanTransaction(row)
}

// ListTransactions returns all of the owner's transactions sorted by
// date descending. The sort happens here, after the fetch; the query
// itself promises no order.
func (r *Repository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, amount, category_id, contact_id, description, type, date, code, created_at
		 FROM transactions WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// TransactionsWithoutVouchers returns up to limit transactions, across
// all owners, that no voucher references yet, oldest first. The worker
// uses it to catch entries whose issue message was lost.
func (r *Repository) TransactionsWithoutVouchers(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.owner_id, t.amount, t.category_id, t.contact_id, t.description, t.type, t.date, t.code, t.created_at
		 FROM transactions t
		 LEFT JOIN vouchers v ON v.related_transaction_id = t.id
		 WHERE v.id IS NULL
		 ORDER BY t.created_at
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unvouchered transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateTransaction(ctx context.Context, ownerID, id string, u core.TransactionUpdate) (core.Transaction, error) {
	set := make([]string, 0, 6)
	args := make([]any, 0, 8)
	if u.Amount != nil {
		set = append(set, "amount = ?")
		args = append(args, u.Amount.String())
	}
	if u.CategoryID != nil {
		set = append(set, "category_id = ?")
		args = append(args, *u.CategoryID)
	}
	if u.ContactID != nil {
		set = append(set, "contact_id = ?")
		args = append(args, nullable(u.ContactID))
	}
	if u.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *u.Description)
	}
	if u.Type != nil {
		set = append(set, "type = ?")
		args = append(args, string(*u.Type))
	}
	if u.Date != nil {
		set = append(set, "date = ?")
		args = append(args, fmtTime(*u.Date))
	}
	if len(set) > 0 {
		args = append(args, id, ownerID)
		res, err := r.db.ExecContext(ctx,
			"UPDATE transactions SET "+joinSet(set)+" WHERE id = ? AND owner_id = ?", args...)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.Transaction{}, ErrNotFound
		}
	}
	return r.GetTransaction(ctx, ownerID, id)
}

func (r *Repository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, log.FieldOwnerID, ownerID)
	return nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                      core.Transaction
		amount, date, created  string
		contact                sql.NullString
		typ                    string
	)
	err := row.Scan(&t.ID, &t.OwnerID, &amount, &t.CategoryID, &contact,
		&t.Description, &typ, &date, &t.Code, &created)
	if err == sql.ErrNoRows {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TransactionType(typ)
	t.ContactID = strPtr(contact)
	if t.Amount, err = parseAmount(amount); err != nil {
		return core.Transaction{}, err
	}
	if t.Date, err = parseTime(date); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
