package checkout

import "errors"

var (
	ErrNoToken                  = errors.New("no webpay token in return request")
	ErrUnsupportedPaymentMethod = errors.New("order was not placed with this payment method")
	ErrNotRefundable            = errors.New("order has no approved transbank transaction")
	ErrOrderIDTooLong           = errors.New("order id does not fit in a 26 character buy order")
)
