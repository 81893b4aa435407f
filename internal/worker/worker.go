// Package worker consumes ledger events and performs the derived work:
// issuing vouchers and mirroring transactions to the external
// spreadsheet. It also runs a periodic backlog pass that catches
// entries whose messages were lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// Worker processes voucher and ledger-sync messages. Both sheet
// writers are optional; a nil writer disables that mirror.
type Worker struct {
	repo         *storage.Repository
	vouchers     *services.VoucherService
	ledger       sheets.LedgerWriter
	voucherSheet sheets.VoucherWriter
	batchSize    int
}

func New(repo *storage.Repository, vouchers *services.VoucherService, ledger sheets.LedgerWriter, voucherSheet sheets.VoucherWriter, batchSize int) *Worker {
	return &Worker{
		repo:         repo,
		vouchers:     vouchers,
		ledger:       ledger,
		voucherSheet: voucherSheet,
		batchSize:    batchSize,
	}
}

// HandleMessage dispatches one consumed message. A returned error makes
// the consumer nack-requeue, so handlers must stay idempotent.
func (w *Worker) HandleMessage(ctx context.Context, msg *amqp.Message) error {
	switch msg.Kind {
	case amqp.KindVoucherIssue:
		return w.handleVoucherIssue(ctx, msg)
	case amqp.KindGoalVoucher:
		return w.handleGoalVoucher(ctx, msg)
	case amqp.KindLedgerSync:
		return w.handleLedgerSync(ctx, msg)
	default:
		// Unknown kinds are dropped, not requeued: redelivery cannot fix them.
		slog.WarnContext(ctx, "Dropping message of unknown kind", "kind", msg.Kind)
		return nil
	}
}

func (w *Worker) handleVoucherIssue(ctx context.Context, msg *amqp.Message) error {
	id := auth.Identity{UID: msg.OwnerID}

	issued, err := w.hasVoucherForTransaction(ctx, msg.OwnerID, msg.TransactionID)
	if err != nil {
		return err
	}
	if issued {
		slog.InfoContext(ctx, "Voucher already issued, skipping",
			log.FieldTransactionID, msg.TransactionID)
		return nil
	}

	v, err := w.vouchers.IssueForTransaction(ctx, id, msg.TransactionID)
	if err != nil {
		return fmt.Errorf("issue voucher for transaction %s: %w", msg.TransactionID, err)
	}

	slog.InfoContext(ctx, "Voucher issued",
		log.FieldVoucherNumber, v.VoucherNumber,
		log.FieldTransactionID, msg.TransactionID,
		log.FieldOwnerID, msg.OwnerID)

	w.mirrorVoucher(ctx, v)
	return nil
}

func (w *Worker) handleGoalVoucher(ctx context.Context, msg *amqp.Message) error {
	amount, err := decimal.NewFromString(msg.Amount)
	if err != nil {
		slog.ErrorContext(ctx, "Dropping goal voucher message with bad amount",
			log.FieldGoalID, msg.GoalID,
			log.FieldAmount, msg.Amount,
			log.FieldError, err)
		return nil
	}

	v, err := w.vouchers.IssueForGoalContribution(ctx, auth.Identity{UID: msg.OwnerID}, msg.GoalID, amount)
	if err != nil {
		return fmt.Errorf("issue voucher for goal %s: %w", msg.GoalID, err)
	}

	slog.InfoContext(ctx, "Goal contribution voucher issued",
		log.FieldVoucherNumber, v.VoucherNumber,
		log.FieldGoalID, msg.GoalID,
		log.FieldOwnerID, msg.OwnerID)

	w.mirrorVoucher(ctx, v)
	return nil
}

func (w *Worker) handleLedgerSync(ctx context.Context, msg *amqp.Message) error {
	if w.ledger == nil {
		slog.WarnContext(ctx, "No ledger writer configured, skipping sync",
			log.FieldTransactionID, msg.TransactionID)
		return nil
	}

	t, err := w.repo.GetTransaction(ctx, msg.OwnerID, msg.TransactionID)
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", msg.TransactionID, err)
	}

	categoryName := t.CategoryID
	if cat, err := w.repo.GetCategory(ctx, msg.OwnerID, t.CategoryID); err == nil {
		categoryName = cat.Name
	}

	ref, err := w.ledger.AppendTransaction(ctx, t, categoryName)
	if err != nil {
		return fmt.Errorf("append transaction %s to ledger: %w", t.Code, err)
	}

	slog.InfoContext(ctx, "Transaction mirrored to ledger",
		log.FieldTransactionCode, t.Code,
		log.FieldSheetsRef, ref)
	return nil
}

// mirrorVoucher appends an issued voucher to the voucher sheet. Best
// effort: the voucher already exists locally and the message is acked
// either way, so a sheet outage only costs the mirror row.
func (w *Worker) mirrorVoucher(ctx context.Context, v core.Voucher) {
	if w.voucherSheet == nil {
		return
	}

	ref, err := w.voucherSheet.AppendVoucher(ctx, v)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to mirror voucher to sheet",
			log.FieldVoucherNumber, v.VoucherNumber,
			log.FieldError, err)
		return
	}

	slog.InfoContext(ctx, "Voucher mirrored to sheet",
		log.FieldVoucherNumber, v.VoucherNumber,
		log.FieldSheetsRef, ref)
}

// RunBacklog issues vouchers for transactions the message flow missed,
// at most batchSize per pass.
func (w *Worker) RunBacklog(ctx context.Context) error {
	pending, err := w.repo.TransactionsWithoutVouchers(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("scan voucher backlog: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing voucher backlog", "count", len(pending))

	var failures int
	for _, t := range pending {
		v, err := w.vouchers.IssueForTransaction(ctx, auth.Identity{UID: t.OwnerID}, t.ID)
		if err != nil {
			failures++
			slog.ErrorContext(ctx, "Backlog voucher issue failed",
				log.FieldTransactionID, t.ID, log.FieldError, err)
			continue
		}
		w.mirrorVoucher(ctx, v)
	}
	if failures > 0 {
		return fmt.Errorf("voucher backlog: %d of %d failed", failures, len(pending))
	}
	return nil
}

func (w *Worker) hasVoucherForTransaction(ctx context.Context, ownerID, transactionID string) (bool, error) {
	vouchers, err := w.repo.ListVouchers(ctx, ownerID)
	if err != nil {
		return false, fmt.Errorf("list vouchers: %w", err)
	}
	for _, v := range vouchers {
		if v.RelatedTransactionID != nil && *v.RelatedTransactionID == transactionID {
			return true, nil
		}
	}
	return false, nil
}
