package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/stream"
)

// TransactionService orchestrates ledger writes across SQLite, AMQP and
// the live snapshot stream.
type TransactionService struct {
	repo      *storage.Repository
	publisher Publisher
	stream    *stream.Broadcaster[core.Transaction]
	cache     CacheInvalidator
}

func NewTransactionService(repo *storage.Repository, publisher Publisher, bc *stream.Broadcaster[core.Transaction], cache CacheInvalidator) *TransactionService {
	return &TransactionService{
		repo:      repo,
		publisher: publisher,
		stream:    bc,
		cache:     cache,
	}
}

// Create saves the transaction locally, then publishes the ledger sync
// and voucher issue messages. Messaging failures are logged, never
// surfaced: the local write already succeeded.
func (s *TransactionService) Create(ctx context.Context, id auth.Identity, t core.Transaction) (core.Transaction, error) {
	if err := auth.Require(id); err != nil {
		return core.Transaction{}, err
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.repo.CreateTransaction(ctx, id.UID, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishLedgerSync(ctx, id.UID, saved.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish ledger sync message",
				log.FieldTransactionID, saved.ID, log.FieldError, err)
		}
		if err := s.publisher.PublishVoucherIssue(ctx, id.UID, saved.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish voucher issue message",
				log.FieldTransactionID, saved.ID, log.FieldError, err)
		}
	}

	s.afterWrite(ctx, id.UID)
	return saved, nil
}

func (s *TransactionService) Get(ctx context.Context, id auth.Identity, transactionID string) (core.Transaction, error) {
	if err := auth.Require(id); err != nil {
		return core.Transaction{}, err
	}
	return s.repo.GetTransaction(ctx, id.UID, transactionID)
}

// List returns the owner's transactions, newest date first.
func (s *TransactionService) List(ctx context.Context, id auth.Identity) ([]core.Transaction, error) {
	if err := auth.Require(id); err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, id.UID)
}

func (s *TransactionService) Update(ctx context.Context, id auth.Identity, transactionID string, u core.TransactionUpdate) (core.Transaction, error) {
	if err := auth.Require(id); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.repo.UpdateTransaction(ctx, id.UID, transactionID, u)
	if err != nil {
		return core.Transaction{}, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishLedgerSync(ctx, id.UID, saved.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish ledger sync message",
				log.FieldTransactionID, saved.ID, log.FieldError, err)
		}
	}

	s.afterWrite(ctx, id.UID)
	return saved, nil
}

func (s *TransactionService) Delete(ctx context.Context, id auth.Identity, transactionID string) error {
	if err := auth.Require(id); err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, id.UID, transactionID); err != nil {
		return err
	}
	s.afterWrite(ctx, id.UID)
	return nil
}

// Subscribe registers a live listener for the owner's transactions. The
// current snapshot is delivered immediately, then a fresh full snapshot
// after every write. The cancel func must be called on teardown.
func (s *TransactionService) Subscribe(ctx context.Context, id auth.Identity) (<-chan []core.Transaction, func(), error) {
	if err := auth.Require(id); err != nil {
		return nil, nil, err
	}
	if s.stream == nil {
		return nil, nil, fmt.Errorf("snapshot stream not configured")
	}

	ch, cancel := s.stream.Subscribe(id.UID)

	snapshot, err := s.repo.ListTransactions(ctx, id.UID)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("initial snapshot: %w", err)
	}
	s.stream.Publish(id.UID, snapshot)

	return ch, cancel, nil
}

// afterWrite refreshes the owner's live snapshot and drops their cached
// aggregates.
func (s *TransactionService) afterWrite(ctx context.Context, ownerID string) {
	if s.cache != nil {
		s.cache.InvalidateOwner(ownerID)
	}
	if s.stream == nil || s.stream.Subscribers(ownerID) == 0 {
		return
	}
	snapshot, err := s.repo.ListTransactions(ctx, ownerID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to refresh transaction snapshot",
			log.FieldOwnerID, ownerID, log.FieldError, err)
		return
	}
	s.stream.Publish(ownerID, snapshot)
}
