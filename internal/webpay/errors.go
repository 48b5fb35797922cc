package webpay

import (
	"errors"
	"fmt"
)

const (
	msgCreateFailed = "Error al crear la transacción"
	msgCommitFailed = "Error al confirmar la transacción"
)

var ErrTokenRequired = errors.New("el token webpay es requerido")

// Error is the uniform failure shape of create and commit: a static message
// plus the detail reported by the gateway.
type Error struct {
	Message string `json:"error"`
	Detail  string `json:"detail"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }
