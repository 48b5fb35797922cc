package order

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidStatus   = errors.New("invalid order status transition")
	ErrOrderNotPayable = errors.New("order is not awaiting payment")
)
