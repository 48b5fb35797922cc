package transaction

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyFinalized    = errors.New("transaction already finalized")
)

type Status string

const (
	StatusInitialized   Status = "initialized"
	StatusApproved      Status = "approved"
	StatusFailed        Status = "failed"
	StatusAbortedByUser Status = "aborted_by_user"
)

type Product string

const (
	ProductWebpayPlus     Product = "webpay_plus"
	ProductWebpayOneclick Product = "webpay_oneclick"
)

// Transaction is one payment attempt for an order, with the gateway's raw
// final response once known.
type Transaction struct {
	ID                uint
	OrderID           uint
	BuyOrder          string
	SessionID         string
	Token             string
	Amount            int64
	Status            Status
	Product           Product
	TransbankResponse json.RawMessage
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (t *Transaction) IsApproved() bool {
	return t != nil && t.Status == StatusApproved
}
