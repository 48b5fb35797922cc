package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"transbank-webpay/internal/logger"
	"transbank-webpay/internal/metrics"
	"transbank-webpay/internal/order"
	"transbank-webpay/internal/transaction"
	"transbank-webpay/internal/transbank"
	"transbank-webpay/internal/webpay"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway is the Webpay Plus wrapper used by the checkout flow.
type Gateway interface {
	CreateTransaction(ctx context.Context, amount int64, sessionID, buyOrder, returnURL string) (*webpay.CreateResult, error)
	CommitTransaction(ctx context.Context, token string) (*transbank.CommitResponse, error)
	Refund(ctx context.Context, token string, amount int64) (*transbank.RefundResponse, error)
	Status(ctx context.Context, token string) (*transbank.CommitResponse, error)
}

type OneclickGateway interface {
	Authorize(ctx context.Context, req transbank.AuthorizeRequest) (*transbank.MallTransactionResponse, error)
	Status(ctx context.Context, buyOrder string) (*transbank.MallTransactionResponse, error)
	Refund(ctx context.Context, buyOrder string, req transbank.MallRefundRequest) (*transbank.RefundResponse, error)
}

type Service interface {
	StartWebpay(ctx context.Context, orderID uint, returnURL string) (*webpay.CreateResult, error)
	HandleReturn(ctx context.Context, params ReturnParams) (*ReturnResult, error)
	Refund(ctx context.Context, orderID uint, amount int64) (*transbank.RefundResponse, error)
	Status(ctx context.Context, orderID uint) (json.RawMessage, error)
	AuthorizeOneclick(ctx context.Context, orderID uint, username, tbkUser string) (*ReturnResult, error)
}

type service struct {
	orders       order.Service
	transactions transaction.Repository
	webpay       Gateway
	oneclick     OneclickGateway
	settings     Settings
}

func NewService(
	orders order.Service,
	transactions transaction.Repository,
	webpay Gateway,
	oneclick OneclickGateway,
	settings Settings,
) Service {
	return &service{
		orders:       orders,
		transactions: transactions,
		webpay:       webpay,
		oneclick:     oneclick,
		settings:     settings,
	}
}

func (s *service) StartWebpay(ctx context.Context, orderID uint, returnURL string) (*webpay.CreateResult, error) {
	log := logger.FromCtx(ctx).With(zap.Uint("order_id", orderID))

	o, err := s.payableOrder(ctx, orderID, order.PaymentMethodWebpayPlus)
	if err != nil {
		return nil, err
	}

	buyOrder, err := newBuyOrder(o.ID)
	if err != nil {
		return nil, err
	}
	sessionID := uuid.NewString()

	res, err := s.webpay.CreateTransaction(ctx, o.Total, sessionID, buyOrder, returnURL)
	if err != nil {
		return nil, err
	}

	tx := &transaction.Transaction{
		OrderID:   o.ID,
		BuyOrder:  buyOrder,
		SessionID: sessionID,
		Token:     res.Token,
		Amount:    o.Total,
		Status:    transaction.StatusInitialized,
		Product:   transaction.ProductWebpayPlus,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		log.Error("Failed to persist webpay transaction", zap.Error(err))
		return nil, err
	}

	log.Info("Webpay transaction created", zap.String("buy_order", buyOrder))
	return res, nil
}

func (s *service) HandleReturn(ctx context.Context, params ReturnParams) (*ReturnResult, error) {
	switch {
	case params.TBKToken != "":
		return s.abort(ctx, params.TBKToken)
	case params.TokenWS != "":
		return s.commit(ctx, params.TokenWS)
	case params.BuyOrder != "":
		return s.timeout(ctx, params.BuyOrder)
	default:
		return nil, ErrNoToken
	}
}

func (s *service) commit(ctx context.Context, token string) (*ReturnResult, error) {
	log := logger.FromCtx(ctx).With(zap.String("token_ws", token))

	tx, err := s.transactions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.GetOrder(ctx, tx.OrderID)
	if err != nil {
		return nil, err
	}

	if tx.Status != transaction.StatusInitialized {
		log.Info("Transaction already processed", zap.String("status", string(tx.Status)))
		return &ReturnResult{Outcome: OutcomeAlreadyProcessed, Order: o, Transaction: tx}, nil
	}

	res, err := s.webpay.CommitTransaction(ctx, token)
	if err != nil {
		// The commit error is already logged by the gateway wrapper; the
		// attempt is recorded as failed and the shopper sees the rejection.
		return s.finish(ctx, o, tx, transaction.StatusFailed, nil)
	}

	if !res.IsApproved() || res.Amount != tx.Amount || res.BuyOrder != tx.BuyOrder {
		log.Warn("Webpay transaction rejected",
			zap.String("status", res.Status),
			zap.Int64("amount", res.Amount),
			zap.String("buy_order", res.BuyOrder),
		)
		return s.finish(ctx, o, tx, transaction.StatusFailed, res.Raw)
	}

	return s.finish(ctx, o, tx, transaction.StatusApproved, res.Raw)
}

func (s *service) abort(ctx context.Context, token string) (*ReturnResult, error) {
	tx, err := s.transactions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.GetOrder(ctx, tx.OrderID)
	if err != nil {
		return nil, err
	}

	if tx.Status != transaction.StatusInitialized {
		return &ReturnResult{Outcome: OutcomeAlreadyProcessed, Order: o, Transaction: tx}, nil
	}
	return s.finish(ctx, o, tx, transaction.StatusAbortedByUser, nil)
}

func (s *service) timeout(ctx context.Context, buyOrder string) (*ReturnResult, error) {
	tx, err := s.transactions.GetByBuyOrder(ctx, buyOrder)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.GetOrder(ctx, tx.OrderID)
	if err != nil {
		return nil, err
	}

	if tx.Status != transaction.StatusInitialized {
		return &ReturnResult{Outcome: OutcomeAlreadyProcessed, Order: o, Transaction: tx}, nil
	}

	res, err := s.finish(ctx, o, tx, transaction.StatusFailed, nil)
	if res != nil && res.Outcome == OutcomeRejected {
		res.Outcome = OutcomeTimeout
	}
	return res, err
}

// finish records the final transaction status and moves the order along.
func (s *service) finish(ctx context.Context, o *order.Order, tx *transaction.Transaction, status transaction.Status, raw []byte) (*ReturnResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.Uint("order_id", o.ID),
		zap.String("buy_order", tx.BuyOrder),
		zap.String("status", string(status)),
	)

	err := s.transactions.UpdateByToken(ctx, tx.Token, status, raw)
	if errors.Is(err, transaction.ErrAlreadyFinalized) {
		return s.alreadyFinalized(ctx, o, tx.Token)
	}
	if err != nil {
		log.Error("Failed to update transaction", zap.Error(err))
		return nil, err
	}
	tx.Status = status
	if len(raw) > 0 {
		tx.TransbankResponse = raw
	}
	metrics.ReturnOutcomes.WithLabelValues(string(status)).Inc()

	var outcome Outcome
	switch status {
	case transaction.StatusApproved:
		outcome, err = OutcomeApproved, s.orders.MarkAsPaid(ctx, o.ID)
	case transaction.StatusAbortedByUser:
		outcome, err = OutcomeAborted, s.orders.MarkAsCancelled(ctx, o.ID)
	default:
		outcome, err = OutcomeRejected, s.orders.MarkAsFailed(ctx, o.ID)
	}
	if err != nil {
		log.Error("Failed to update order after payment", zap.Error(err))
		return nil, err
	}

	log.Info("Webpay transaction finished", zap.String("outcome", string(outcome)))
	return &ReturnResult{Outcome: outcome, Order: o, Transaction: tx}, nil
}

// alreadyFinalized reports a transaction another request finished between
// our read and our write. Neither the record nor the order is touched.
func (s *service) alreadyFinalized(ctx context.Context, o *order.Order, token string) (*ReturnResult, error) {
	tx, err := s.transactions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	logger.FromCtx(ctx).Info("Transaction finalized concurrently",
		zap.Uint("order_id", o.ID),
		zap.String("status", string(tx.Status)),
	)
	return &ReturnResult{Outcome: OutcomeAlreadyProcessed, Order: o, Transaction: tx}, nil
}

func (s *service) Refund(ctx context.Context, orderID uint, amount int64) (*transbank.RefundResponse, error) {
	log := logger.FromCtx(ctx).With(zap.Uint("order_id", orderID), zap.Int64("amount", amount))

	tx, err := s.approvedTransaction(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var res *transbank.RefundResponse
	if tx.Product == transaction.ProductWebpayOneclick {
		res, err = s.refundOneclick(ctx, tx, amount)
	} else {
		res, err = s.webpay.Refund(ctx, tx.Token, amount)
	}
	if err != nil {
		log.Error("Transbank refund failed", zap.Error(err))
		return nil, err
	}

	log.Info("Transbank refund processed", zap.String("type", res.Type))

	if fullyRefunded(res, amount, tx.Amount) {
		if err := s.orders.MarkAsRefunded(ctx, orderID); err != nil {
			return res, err
		}
	}
	return res, nil
}

// fullyRefunded reports whether nothing is left to refund on the transaction.
// The gateway's remaining balance covers a run of partial nullifications; a
// reversal always returns the whole amount.
func fullyRefunded(res *transbank.RefundResponse, amount, total int64) bool {
	switch {
	case res.Type == transbank.StatusReversed:
		return true
	case res.Balance != nil:
		return *res.Balance <= 0
	default:
		return amount >= total
	}
}

// refundOneclick refunds the mall detail recorded at authorization.
func (s *service) refundOneclick(ctx context.Context, tx *transaction.Transaction, amount int64) (*transbank.RefundResponse, error) {
	var stored transbank.MallTransactionResponse
	if err := json.Unmarshal(tx.TransbankResponse, &stored); err != nil {
		return nil, fmt.Errorf("decode stored oneclick response: %w", err)
	}

	detail := stored.FirstDetail()
	if detail == nil {
		return nil, ErrNotRefundable
	}

	commerceCode := detail.CommerceCode
	if commerceCode == "" {
		commerceCode = s.settings.ChildCommerceCode
	}

	res, err := s.oneclick.Refund(ctx, tx.BuyOrder, transbank.MallRefundRequest{
		CommerceCode:   commerceCode,
		DetailBuyOrder: detail.BuyOrder,
		Amount:         amount,
	})
	metrics.ObserveGatewayCall("oneclick_refund", err)
	return res, err
}

// Status asks Transbank for the current state of the order's latest
// transaction and returns the gateway payload as is.
func (s *service) Status(ctx context.Context, orderID uint) (json.RawMessage, error) {
	tx, err := s.transactions.GetLatestByOrderID(ctx, orderID)
	if errors.Is(err, transaction.ErrTransactionNotFound) {
		return nil, ErrNotRefundable
	}
	if err != nil {
		return nil, err
	}

	if tx.Product == transaction.ProductWebpayOneclick {
		res, err := s.oneclick.Status(ctx, tx.BuyOrder)
		metrics.ObserveGatewayCall("oneclick_status", err)
		if err != nil {
			return nil, err
		}
		return rawOrMarshal(res.Raw, res)
	}

	res, err := s.webpay.Status(ctx, tx.Token)
	if err != nil {
		return nil, err
	}
	return rawOrMarshal(res.Raw, res)
}

func rawOrMarshal(raw json.RawMessage, v any) (json.RawMessage, error) {
	if len(raw) > 0 {
		return raw, nil
	}
	return json.Marshal(v)
}

func (s *service) AuthorizeOneclick(ctx context.Context, orderID uint, username, tbkUser string) (*ReturnResult, error) {
	log := logger.FromCtx(ctx).With(zap.Uint("order_id", orderID), zap.String("username", username))

	o, err := s.payableOrder(ctx, orderID, order.PaymentMethodOneclickMall)
	if err != nil {
		return nil, err
	}

	buyOrder, err := newBuyOrder(o.ID)
	if err != nil {
		return nil, err
	}
	childBuyOrder, err := newBuyOrder(o.ID)
	if err != nil {
		return nil, err
	}

	res, err := s.oneclick.Authorize(ctx, transbank.AuthorizeRequest{
		Username: username,
		TbkUser:  tbkUser,
		BuyOrder: buyOrder,
		Details: []transbank.AuthorizeDetail{{
			CommerceCode:       s.settings.ChildCommerceCode,
			BuyOrder:           childBuyOrder,
			Amount:             o.Total,
			InstallmentsNumber: 1,
		}},
	})
	metrics.ObserveGatewayCall("oneclick_authorize", err)
	if err != nil {
		log.Error("Oneclick authorization failed", zap.Error(err))
		return nil, err
	}

	status := transaction.StatusFailed
	if res.FirstDetail().IsApproved() {
		status = transaction.StatusApproved
	}

	tx := &transaction.Transaction{
		OrderID:           o.ID,
		BuyOrder:          buyOrder,
		Token:             buyOrder,
		Amount:            o.Total,
		Status:            transaction.StatusInitialized,
		Product:           transaction.ProductWebpayOneclick,
		TransbankResponse: res.Raw,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		log.Error("Failed to persist oneclick transaction", zap.Error(err))
		return nil, err
	}

	return s.finish(ctx, o, tx, status, res.Raw)
}

func (s *service) payableOrder(ctx context.Context, orderID uint, method string) (*order.Order, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != method {
		return nil, ErrUnsupportedPaymentMethod
	}
	if !o.IsPayable() {
		return nil, order.ErrOrderNotPayable
	}
	return o, nil
}

func (s *service) approvedTransaction(ctx context.Context, orderID uint) (*transaction.Transaction, error) {
	tx, err := s.transactions.GetLatestByOrderID(ctx, orderID)
	if errors.Is(err, transaction.ErrTransactionNotFound) {
		return nil, ErrNotRefundable
	}
	if err != nil {
		return nil, err
	}
	if !tx.IsApproved() {
		return nil, ErrNotRefundable
	}
	return tx, nil
}

const maxBuyOrderLen = 26

// newBuyOrder builds a buy order unique per attempt: "wc:" + 8 random hex
// chars + ":" + order id. Ids that would push it past the gateway limit are
// refused rather than truncated.
func newBuyOrder(orderID uint) (string, error) {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	bo := fmt.Sprintf("wc:%s:%d", random, orderID)
	if len(bo) > maxBuyOrderLen {
		return "", fmt.Errorf("%w: order %d", ErrOrderIDTooLong, orderID)
	}
	return bo, nil
}
