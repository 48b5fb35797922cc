package thankyou

import (
	"html/template"
	"time"
)

type NoticeType string

const (
	NoticeError   NoticeType = "error"
	NoticeSuccess NoticeType = "success"
)

type Notice struct {
	Type    NoticeType
	Message template.HTML
}

const (
	TemplateOrderSummary         = "order-summary"
	TemplateOrderSummaryOneclick = "order-summary-oneclick"
)

// Page is what the thank-you step produced for an order. At most one of
// RedirectURL or Template is set; Skipped pages carry nothing.
type Page struct {
	Skipped     bool
	Notices     []Notice
	RedirectURL string
	Template    string
	Webpay      *WebpaySummary
	Oneclick    *OneclickSummary
}

// WebpaySummary holds the fields shown for an approved Webpay Plus payment.
type WebpaySummary struct {
	OrderID            uint
	BuyOrder           string
	CardNumber         string
	AuthorizationCode  string
	Amount             int64
	InstallmentsNumber int
	InstallmentsAmount int64
	ResponseTitle      string
	InstallmentType    string
	PaymentType        string
	AcceptedAt         time.Time
}

// OneclickSummary holds the fields shown for an approved Oneclick payment,
// taken from the first mall detail.
type OneclickSummary struct {
	OrderID            uint
	BuyOrder           string
	CardNumber         string
	AuthorizationCode  string
	Amount             int64
	InstallmentsNumber int
	ResponseTitle      string
	InstallmentType    string
	PaymentType        string
	AcceptedAt         time.Time
}
