package thankyou

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"transbank-webpay/internal/logger"
	"transbank-webpay/internal/order"
	"transbank-webpay/internal/transaction"
	"transbank-webpay/internal/transbank"

	"go.uber.org/zap"
)

const (
	noticeFailed   = "Transacción <strong>fallida</strong>. Puedes volver a intentar el pago"
	noticeApproved = "Transacción aprobada"
)

type OrderFinder interface {
	GetOrder(ctx context.Context, orderID uint) (*order.Order, error)
}

type TransactionFinder interface {
	GetLatestByOrderID(ctx context.Context, orderID uint) (*transaction.Transaction, error)
}

// Controller decides what the order-received page shows for Transbank orders.
type Controller struct {
	orders       OrderFinder
	transactions TransactionFinder
	baseURL      string
	loc          *time.Location
}

func NewController(orders OrderFinder, transactions TransactionFinder, baseURL string, loc *time.Location) *Controller {
	if loc == nil {
		loc = time.UTC
	}
	return &Controller{
		orders:       orders,
		transactions: transactions,
		baseURL:      baseURL,
		loc:          loc,
	}
}

// Show builds the page for orderID. key must be the order key carried by the
// thank-you URL; a mismatch reads as an unknown order.
func (c *Controller) Show(ctx context.Context, orderID uint, key string) (*Page, error) {
	log := logger.FromCtx(ctx).With(zap.Uint("order_id", orderID))

	o, err := c.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !o.KeyMatches(key) {
		log.Warn("Order key mismatch on order-received page")
		return nil, order.ErrOrderNotFound
	}

	if !o.IsTransbank() {
		return &Page{Skipped: true}, nil
	}

	tx, err := c.transactions.GetLatestByOrderID(ctx, orderID)
	if errors.Is(err, transaction.ErrTransactionNotFound) {
		log.Info("No transbank transaction for order")
		return &Page{Notices: []Notice{{Type: NoticeError, Message: noticeFailed}}}, nil
	}
	if err != nil {
		return nil, err
	}

	if !tx.IsApproved() {
		return &Page{RedirectURL: o.CancelURL(c.baseURL)}, nil
	}

	page := &Page{Notices: []Notice{{Type: NoticeSuccess, Message: noticeApproved}}}

	if tx.Product == transaction.ProductWebpayOneclick {
		var res transbank.MallTransactionResponse
		if err := json.Unmarshal(tx.TransbankResponse, &res); err != nil {
			log.Warn("Stored oneclick response is not decodable", zap.Error(err))
		}

		summary := OneclickDetails(&res, c.loc)
		summary.OrderID = o.ID
		page.Template = TemplateOrderSummaryOneclick
		page.Oneclick = &summary
		return page, nil
	}

	var res transbank.CommitResponse
	if err := json.Unmarshal(tx.TransbankResponse, &res); err != nil {
		log.Warn("Stored webpay response is not decodable", zap.Error(err))
	}

	summary := TransactionDetails(&res, c.loc)
	summary.OrderID = o.ID
	page.Template = TemplateOrderSummary
	page.Webpay = &summary
	return page, nil
}
