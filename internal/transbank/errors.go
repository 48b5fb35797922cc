package transbank

import (
	"errors"
	"fmt"
)

// Op names the remote operation that failed.
type Op string

const (
	OpCreate            Op = "webpay_plus.create"
	OpCommit            Op = "webpay_plus.commit"
	OpStatus            Op = "webpay_plus.status"
	OpRefund            Op = "webpay_plus.refund"
	OpInscriptionStart  Op = "oneclick.inscription_start"
	OpInscriptionFinish Op = "oneclick.inscription_finish"
	OpInscriptionDelete Op = "oneclick.inscription_delete"
	OpAuthorize         Op = "oneclick.authorize"
	OpMallStatus        Op = "oneclick.status"
	OpMallRefund        Op = "oneclick.refund"
)

var ErrInvalidArgument = errors.New("invalid argument")

const defaultErrorMessage = "Could not obtain a response from Transbank API"

// APIError is returned by every client call that did not produce a usable
// response: invalid input, transport failure or a non-2xx answer.
type APIError struct {
	Op         Op
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transbank %s failed (%d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transbank %s failed: %s", e.Op, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsOp reports whether err is an APIError raised by op.
func IsOp(err error, op Op) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Op == op
}

func invalid(op Op, format string, args ...any) error {
	return &APIError{Op: op, Message: fmt.Sprintf(format, args...), Err: ErrInvalidArgument}
}
