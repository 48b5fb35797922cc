package order

import (
	"crypto/subtle"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// Payment method ids of the two Transbank gateways.
const (
	PaymentMethodWebpayPlus   = "transbank_webpay_plus_rest"
	PaymentMethodOneclickMall = "transbank_oneclick_mall_rest"
)

type Order struct {
	ID            uint
	OrderKey      string
	PaymentMethod string
	Total         int64
	Currency      string
	Status        Status
	CustomerEmail string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsTransbank reports whether the order was placed with one of the
// Transbank gateways.
func (o *Order) IsTransbank() bool {
	return o.PaymentMethod == PaymentMethodWebpayPlus || o.PaymentMethod == PaymentMethodOneclickMall
}

// IsPayable reports whether a payment attempt may still be started.
func (o *Order) IsPayable() bool {
	return o.Status == StatusPending || o.Status == StatusFailed
}

// CancelURL is where a shopper lands after a rejected payment.
func (o *Order) CancelURL(baseURL string) string {
	q := url.Values{}
	q.Set("cancel_order", "true")
	q.Set("order", o.OrderKey)
	q.Set("order_id", fmt.Sprint(o.ID))
	return strings.TrimRight(baseURL, "/") + "/cart/?" + q.Encode()
}

// KeyMatches compares key with the order key in constant time. An order
// without a key never matches.
func (o *Order) KeyMatches(key string) bool {
	return o.OrderKey != "" && subtle.ConstantTimeCompare([]byte(o.OrderKey), []byte(key)) == 1
}

// ThankYouURL is the order-received page rendered after payment.
func (o *Order) ThankYouURL(baseURL string) string {
	q := url.Values{}
	q.Set("key", o.OrderKey)
	return fmt.Sprintf("%s/checkout/order-received/%d/?%s", strings.TrimRight(baseURL, "/"), o.ID, q.Encode())
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed, StatusCancelled},
	StatusFailed:     {StatusProcessing, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusRefunded},
}

// CanTransition reports whether the order may move from its current status to next.
func (o *Order) CanTransition(next Status) bool {
	for _, s := range transitions[o.Status] {
		if s == next {
			return true
		}
	}
	return false
}
