package handler

import (
	"errors"
	"net/http"

	"transbank-webpay/internal/checkout"
	"transbank-webpay/internal/logger"
	"transbank-webpay/internal/order"
	"transbank-webpay/internal/transaction"
	"transbank-webpay/internal/transbank"
	"transbank-webpay/internal/utils"
	"transbank-webpay/internal/webpay"

	"go.uber.org/zap"
)

// writeError maps domain and gateway errors to a JSON response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		wErr   *webpay.Error
		apiErr *transbank.APIError
	)

	switch {
	case errors.As(err, &wErr):
		utils.WriteJSON(w, http.StatusBadGateway, wErr)
	case errors.Is(err, transbank.ErrInvalidArgument):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &apiErr):
		utils.WriteJSONError(w, apiErr.Message, http.StatusBadGateway)
	case errors.Is(err, order.ErrOrderNotFound), errors.Is(err, transaction.ErrTransactionNotFound):
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, checkout.ErrNoToken), errors.Is(err, checkout.ErrUnsupportedPaymentMethod), errors.Is(err, checkout.ErrOrderIDTooLong):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, order.ErrOrderNotPayable), errors.Is(err, checkout.ErrNotRefundable):
		utils.WriteJSONError(w, err.Error(), http.StatusConflict)
	default:
		logger.FromCtx(r.Context()).Error("Unhandled request error", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
