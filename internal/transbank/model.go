package transbank

import (
	"encoding/json"
	"time"
)

const (
	StatusInitialized = "INITIALIZED"
	StatusAuthorized  = "AUTHORIZED"
	StatusFailed      = "FAILED"
	StatusReversed    = "REVERSED"
	StatusNullified   = "NULLIFIED"
)

type CreateRequest struct {
	BuyOrder  string `json:"buy_order"`
	SessionID string `json:"session_id"`
	Amount    int64  `json:"amount"`
	ReturnURL string `json:"return_url"`
}

type CreateResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type CardDetail struct {
	CardNumber string `json:"card_number"`
}

// CommitResponse is the Webpay Plus transaction schema returned by both
// commit and status. Fields the gateway may omit are pointers.
type CommitResponse struct {
	VCI                string      `json:"vci,omitempty"`
	Amount             int64       `json:"amount"`
	Status             string      `json:"status"`
	BuyOrder           string      `json:"buy_order"`
	SessionID          string      `json:"session_id"`
	CardDetail         *CardDetail `json:"card_detail,omitempty"`
	AccountingDate     string      `json:"accounting_date,omitempty"`
	TransactionDate    string      `json:"transaction_date,omitempty"`
	AuthorizationCode  string      `json:"authorization_code,omitempty"`
	PaymentTypeCode    string      `json:"payment_type_code,omitempty"`
	ResponseCode       *int        `json:"response_code,omitempty"`
	InstallmentsAmount *int64      `json:"installments_amount,omitempty"`
	InstallmentsNumber int         `json:"installments_number"`
	Balance            *int64      `json:"balance,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// IsApproved reports response code 0 with AUTHORIZED status.
func (r *CommitResponse) IsApproved() bool {
	return r != nil && isApproved(r.ResponseCode, r.Status)
}

func (r *CommitResponse) TransactionTime() time.Time {
	if r == nil {
		return time.Time{}
	}
	return ParseDate(r.TransactionDate)
}

type RefundResponse struct {
	Type              string   `json:"type"`
	AuthorizationCode string   `json:"authorization_code,omitempty"`
	AuthorizationDate string   `json:"authorization_date,omitempty"`
	NullifiedAmount   *float64 `json:"nullified_amount,omitempty"`
	Balance           *float64 `json:"balance,omitempty"`
	ResponseCode      *int     `json:"response_code,omitempty"`
}

type InscriptionStartRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	ResponseURL string `json:"response_url"`
}

type InscriptionStartResponse struct {
	Token     string `json:"token"`
	URLWebpay string `json:"url_webpay"`
}

type InscriptionFinishResponse struct {
	ResponseCode      *int   `json:"response_code"`
	TbkUser           string `json:"tbk_user"`
	AuthorizationCode string `json:"authorization_code"`
	CardType          string `json:"card_type"`
	CardNumber        string `json:"card_number"`
}

func (r *InscriptionFinishResponse) IsApproved() bool {
	return r != nil && r.ResponseCode != nil && *r.ResponseCode == 0
}

type AuthorizeDetail struct {
	CommerceCode       string `json:"commerce_code"`
	BuyOrder           string `json:"buy_order"`
	Amount             int64  `json:"amount"`
	InstallmentsNumber int    `json:"installments_number"`
}

type AuthorizeRequest struct {
	Username string            `json:"username"`
	TbkUser  string            `json:"tbk_user"`
	BuyOrder string            `json:"buy_order"`
	Details  []AuthorizeDetail `json:"details"`
}

type MallDetail struct {
	Amount             int64  `json:"amount"`
	Status             string `json:"status"`
	AuthorizationCode  string `json:"authorization_code,omitempty"`
	PaymentTypeCode    string `json:"payment_type_code,omitempty"`
	ResponseCode       *int   `json:"response_code,omitempty"`
	InstallmentsNumber int    `json:"installments_number"`
	InstallmentsAmount *int64 `json:"installments_amount,omitempty"`
	CommerceCode       string `json:"commerce_code"`
	BuyOrder           string `json:"buy_order"`
	Balance            *int64 `json:"balance,omitempty"`
}

func (d *MallDetail) IsApproved() bool {
	return d != nil && isApproved(d.ResponseCode, d.Status)
}

// MallTransactionResponse is the Oneclick Mall schema returned by authorize
// and status.
type MallTransactionResponse struct {
	BuyOrder        string       `json:"buy_order"`
	SessionID       string       `json:"session_id,omitempty"`
	CardDetail      *CardDetail  `json:"card_detail,omitempty"`
	AccountingDate  string       `json:"accounting_date,omitempty"`
	TransactionDate string       `json:"transaction_date,omitempty"`
	Details         []MallDetail `json:"details"`

	Raw json.RawMessage `json:"-"`
}

// FirstDetail returns nil when the response carries no details.
func (r *MallTransactionResponse) FirstDetail() *MallDetail {
	if r == nil || len(r.Details) == 0 {
		return nil
	}
	return &r.Details[0]
}

type MallRefundRequest struct {
	CommerceCode   string `json:"commerce_code"`
	DetailBuyOrder string `json:"detail_buy_order"`
	Amount         int64  `json:"amount"`
}

func isApproved(code *int, status string) bool {
	return code != nil && *code == 0 && status == StatusAuthorized
}

// ParseDate parses a gateway timestamp; unparsable or empty input yields the
// zero time.
func ParseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
