package checkout

import (
	"transbank-webpay/internal/order"
	"transbank-webpay/internal/transaction"
)

// ReturnParams are the fields Webpay posts back to the return URL.
//
//	token_ws only            normal flow, commit it
//	TBK_TOKEN (± token_ws)   shopper aborted or the form failed
//	TBK_ORDEN_COMPRA only    payment form timed out
type ReturnParams struct {
	TokenWS    string
	TBKToken   string
	BuyOrder   string
	TBKSession string
}

type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
	OutcomeAborted  Outcome = "aborted"
	OutcomeTimeout  Outcome = "timeout"
	// OutcomeAlreadyProcessed is a repeated return for a finished transaction.
	OutcomeAlreadyProcessed Outcome = "already_processed"
)

type ReturnResult struct {
	Outcome     Outcome
	Order       *order.Order
	Transaction *transaction.Transaction
}

type Settings struct {
	ChildCommerceCode string
}
