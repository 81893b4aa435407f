package amqp

import (
	"encoding/json"
	"time"
)

type Kind string

const (
	// KindVoucherIssue asks the worker to derive a voucher from an
	// already-committed transaction.
	KindVoucherIssue Kind = "voucher_issue"
	// KindGoalVoucher asks the worker to derive a voucher from a goal
	// contribution.
	KindGoalVoucher Kind = "goal_voucher"
	// KindLedgerSync asks the worker to append a transaction to the
	// external spreadsheet ledger.
	KindLedgerSync Kind = "ledger_sync"
)

// Message is the envelope for all worker messages. It carries ids
// only; the worker re-reads the records from storage.
type Message struct {
	Kind          Kind      `json:"kind"`
	OwnerID       string    `json:"ownerId"`
	TransactionID string    `json:"transactionId,omitempty"`
	GoalID        string    `json:"goalId,omitempty"`
	Amount        string    `json:"amount,omitempty"` // decimal string, goal contributions only
	Timestamp     time.Time `json:"timestamp"`
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
