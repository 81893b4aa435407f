package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const voucherNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewVoucherNumber builds a VCH-{ts6}-{rand6} number: the last six
// digits of the unix-millisecond clock plus six random base-36 chars.
func NewVoucherNumber() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}

	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(voucherNumberAlphabet))))
		if err != nil {
			// crypto/rand failing is effectively fatal; fall back to the clock
			suffix[i] = voucherNumberAlphabet[time.Now().UnixNano()%int64(len(voucherNumberAlphabet))]
			continue
		}
		suffix[i] = voucherNumberAlphabet[n.Int64()]
	}

	return "VCH-" + ts + "-" + string(suffix)
}

func (r *Repository) CreateVoucher(ctx context.Context, ownerID string, v core.Voucher) (core.Voucher, error) {
	v.ID = uuid.NewString()
	v.OwnerID = ownerID
	if v.VoucherNumber == "" {
		v.VoucherNumber = NewVoucherNumber()
	}
	if v.Status == "" {
		v.Status = core.VoucherActive
	}
	v.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vouchers (id, owner_id, voucher_number, type, title, description, amount, category, date, related_transaction_id, related_goal_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.OwnerID, v.VoucherNumber, string(v.Type), v.Title, v.Description,
		v.Amount.String(), v.Category, fmtTime(v.Date),
		nullable(v.RelatedTransactionID), nullable(v.RelatedGoalID),
		string(v.Status), fmtTime(v.CreatedAt))
	if err != nil {
		return core.Voucher{}, fmt.Errorf("insert voucher: %w", err)
	}

	slog.InfoContext(ctx, "Voucher created",
		"id", v.ID,
		log.FieldOwnerID, v.OwnerID,
		log.FieldVoucherNumber, v.VoucherNumber,
		"type", string(v.Type))

	return v, nil
}

func (r *Repository) GetVoucher(ctx context.Context, ownerID, id string) (core.Voucher, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, voucher_number, type, title, description, amount, category, date, related_transaction_id, related_goal_id, status, created_at
		 FROM vouchers WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanVoucher(row)
}

func (r *Repository) ListVouchers(ctx context.Context, ownerID string) ([]core.Voucher, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, voucher_number, type, title, description, amount, category, date, related_transaction_id, related_goal_id, status, created_at
		 FROM vouchers WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query vouchers: %w", err)
	}
	defer rows.Close()

	var out []core.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// VoidVoucher flips a voucher to void. Vouchers are never otherwise
// mutated after creation.
func (r *Repository) VoidVoucher(ctx context.Context, ownerID, id string) (core.Voucher, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE vouchers SET status = ? WHERE id = ? AND owner_id = ?`,
		string(core.VoucherVoid), id, ownerID)
	if err != nil {
		return core.Voucher{}, fmt.Errorf("void voucher: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Voucher{}, ErrNotFound
	}

	slog.InfoContext(ctx, "Voucher voided", "id", id, log.FieldOwnerID, ownerID)
	return r.GetVoucher(ctx, ownerID, id)
}

func (r *Repository) DeleteVoucher(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM vouchers WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete voucher: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVoucher(row rowScanner) (core.Voucher, error) {
	var (
		v                     core.Voucher
		typ, status           string
		amount, date, created string
		relTx, relGoal        sql.NullString
	)
	err := row.Scan(&v.ID, &v.OwnerID, &v.VoucherNumber, &typ, &v.Title, &v.Description,
		&amount, &v.Category, &date, &relTx, &relGoal, &status, &created)
	if err == sql.ErrNoRows {
		return core.Voucher{}, ErrNotFound
	}
	if err != nil {
		return core.Voucher{}, fmt.Errorf("scan voucher: %w", err)
	}
	v.Type = core.VoucherType(typ)
	v.Status = core.VoucherStatus(status)
	v.RelatedTransactionID = strPtr(relTx)
	v.RelatedGoalID = strPtr(relGoal)
	if v.Amount, err = parseAmount(amount); err != nil {
		return core.Voucher{}, err
	}
	if v.Date, err = parseTime(date); err != nil {
		return core.Voucher{}, err
	}
	if v.CreatedAt, err = parseTime(created); err != nil {
		return core.Voucher{}, err
	}
	return v, nil
}
