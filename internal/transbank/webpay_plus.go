package transbank

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const webpayPlusBasePath = "/rswebpaytransaction/api/webpay/v1.2/transactions"

const (
	maxBuyOrderLength  = 26
	maxSessionIDLength = 61
	maxReturnURLLength = 255
	maxTokenLength     = 64
)

// WebpayPlus is the Webpay Plus REST client.
type WebpayPlus struct {
	requester
}

func NewWebpayPlus(options Options) *WebpayPlus {
	return &WebpayPlus{requester: newRequester(options)}
}

func (w *WebpayPlus) Options() Options { return w.options }

func (w *WebpayPlus) Create(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	switch {
	case req.BuyOrder == "" || len(req.BuyOrder) > maxBuyOrderLength:
		return nil, invalid(OpCreate, "buy_order must be 1 to %d characters", maxBuyOrderLength)
	case len(req.SessionID) > maxSessionIDLength:
		return nil, invalid(OpCreate, "session_id is too long, the maximum length is %d", maxSessionIDLength)
	case req.ReturnURL == "" || len(req.ReturnURL) > maxReturnURLLength:
		return nil, invalid(OpCreate, "return_url must be 1 to %d characters", maxReturnURLLength)
	case req.Amount <= 0:
		return nil, invalid(OpCreate, "amount must be positive")
	}

	var res CreateResponse
	if _, err := w.decode(ctx, OpCreate, http.MethodPost, webpayPlusBasePath, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (w *WebpayPlus) Commit(ctx context.Context, token string) (*CommitResponse, error) {
	if err := validateToken(OpCommit, token); err != nil {
		return nil, err
	}
	return w.transaction(ctx, OpCommit, http.MethodPut, token)
}

func (w *WebpayPlus) Status(ctx context.Context, token string) (*CommitResponse, error) {
	if err := validateToken(OpStatus, token); err != nil {
		return nil, err
	}
	return w.transaction(ctx, OpStatus, http.MethodGet, token)
}

func (w *WebpayPlus) Refund(ctx context.Context, token string, amount int64) (*RefundResponse, error) {
	if err := validateToken(OpRefund, token); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, invalid(OpRefund, "amount must be positive")
	}

	path := fmt.Sprintf("%s/%s/refunds", webpayPlusBasePath, url.PathEscape(token))
	body := map[string]int64{"amount": amount}

	var res RefundResponse
	if _, err := w.decode(ctx, OpRefund, http.MethodPost, path, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (w *WebpayPlus) transaction(ctx context.Context, op Op, method, token string) (*CommitResponse, error) {
	path := webpayPlusBasePath + "/" + url.PathEscape(token)

	var res CommitResponse
	raw, err := w.decode(ctx, op, method, path, nil, &res)
	if err != nil {
		return nil, err
	}
	res.Raw = raw
	return &res, nil
}

func validateToken(op Op, token string) error {
	if token == "" || len(token) > maxTokenLength {
		return invalid(op, "token must be 1 to %d characters", maxTokenLength)
	}
	return nil
}
