// Package services orchestrates entity operations across storage, AMQP
// and the snapshot stream. Every operation takes the caller identity
// explicitly and scopes storage access to that owner.
package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// Publisher is the outbound message port. *amqp.Client satisfies it; a
// nil Publisher disables messaging without failing requests.
type Publisher interface {
	PublishVoucherIssue(ctx context.Context, ownerID, transactionID string) error
	PublishGoalVoucher(ctx context.Context, ownerID, goalID string, amount decimal.Decimal) error
	PublishLedgerSync(ctx context.Context, ownerID, transactionID string) error
}

// CacheInvalidator drops cached aggregates for one owner after a write.
type CacheInvalidator interface {
	InvalidateOwner(ownerID string) int
}
