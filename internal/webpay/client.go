package webpay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transbank-webpay/internal/config"
	"transbank-webpay/internal/logger"
	"transbank-webpay/internal/metrics"
	"transbank-webpay/internal/transbank"

	"go.uber.org/zap"
)

// TransactionAPI is the remote Webpay Plus surface the client wraps.
type TransactionAPI interface {
	Create(ctx context.Context, req transbank.CreateRequest) (*transbank.CreateResponse, error)
	Commit(ctx context.Context, token string) (*transbank.CommitResponse, error)
	Refund(ctx context.Context, token string, amount int64) (*transbank.RefundResponse, error)
	Status(ctx context.Context, token string) (*transbank.CommitResponse, error)
}

type CreateResult struct {
	URL   string `json:"url"`
	Token string `json:"token_ws"`
}

// Client wraps Webpay Plus calls with logging and error conversion.
// Options are fixed at construction.
type Client struct {
	Options transbank.Options
	api     TransactionAPI
	now     func() time.Time
}

// NewClient builds a client from the store settings. Unless the environment
// is explicitly non-TEST the integration credentials are used.
func NewClient(cfg config.Webpay) *Client {
	return newClient(cfg, nil)
}

func newClient(cfg config.Webpay, api TransactionAPI) *Client {
	options := resolveOptions(cfg)
	if api == nil {
		api = transbank.NewWebpayPlus(options)
	}
	return &Client{Options: options, api: api, now: time.Now}
}

func (c *Client) CreateTransaction(ctx context.Context, amount int64, sessionID, buyOrder, returnURL string) (*CreateResult, error) {
	log := logger.FromCtx(ctx)
	now := c.now()

	log.Info("initTransaction",
		zap.Int64("amount", amount),
		zap.String("session_id", sessionID),
		zap.String("buy_order", buyOrder),
		zap.String("tx_date", now.Format("02-01-2006")),
		zap.String("tx_time", now.Format("15:04:05")),
	)

	res, err := c.api.Create(ctx, transbank.CreateRequest{
		BuyOrder:  buyOrder,
		SessionID: sessionID,
		Amount:    amount,
		ReturnURL: returnURL,
	})
	metrics.ObserveGatewayCall("create", err)
	if err != nil {
		return nil, c.fail(ctx, msgCreateFailed, err)
	}

	log.Info("createTransaction", zap.Any("init_result", res))

	if res == nil || res.URL == "" || res.Token == "" {
		return nil, c.fail(ctx, msgCreateFailed, fmt.Errorf(
			"No se ha creado la transacción para, amount: %d, sessionId: %s, buyOrder: %s",
			amount, sessionID, buyOrder,
		))
	}

	return &CreateResult{URL: res.URL, Token: res.Token}, nil
}

// CommitTransaction finalizes the transaction behind token. Every failure,
// including a missing token, comes back as *Error.
func (c *Client) CommitTransaction(ctx context.Context, token string) (*transbank.CommitResponse, error) {
	logger.FromCtx(ctx).Info("getTransactionResult", zap.String("token_ws", token))

	if token == "" {
		return nil, c.fail(ctx, msgCommitFailed, ErrTokenRequired)
	}

	res, err := c.api.Commit(ctx, token)
	metrics.ObserveGatewayCall("commit", err)
	if err != nil {
		return nil, c.fail(ctx, msgCommitFailed, err)
	}
	return res, nil
}

func (c *Client) Refund(ctx context.Context, token string, amount int64) (*transbank.RefundResponse, error) {
	res, err := c.api.Refund(ctx, token, amount)
	metrics.ObserveGatewayCall("refund", err)
	return res, err
}

func (c *Client) Status(ctx context.Context, token string) (*transbank.CommitResponse, error) {
	res, err := c.api.Status(ctx, token)
	metrics.ObserveGatewayCall("status", err)
	return res, err
}

func (c *Client) fail(ctx context.Context, message string, cause error) *Error {
	detail := cause.Error()
	var apiErr *transbank.APIError
	if errors.As(cause, &apiErr) {
		detail = apiErr.Message
	}

	e := &Error{Message: message, Detail: detail, Err: cause}
	logger.FromCtx(ctx).Error(message,
		zap.String("error", e.Message),
		zap.String("detail", e.Detail),
	)
	return e
}
