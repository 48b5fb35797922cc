package thankyou

import (
	"time"

	"transbank-webpay/internal/transbank"
)

const (
	TitleApproved = "Transacción Aprobada"
	TitleRejected = "Transacción Rechazada"
)

var installmentTypes = map[string]string{
	"VD": "Venta Débito",
	"VN": "Venta Normal",
	"VC": "Venta en cuotas",
	"SI": "3 cuotas sin interés",
	"S2": "2 cuotas sin interés",
	"NC": "N cuotas sin interés",
	"VP": "Venta Prepago",
}

// PaymentType maps a payment type code to Débito, Prepago or Crédito.
func PaymentType(code string) string {
	switch code {
	case "VD":
		return "Débito"
	case "VP":
		return "Prepago"
	default:
		return "Crédito"
	}
}

// InstallmentType returns the installment description for a payment type
// code, or the code itself when unknown.
func InstallmentType(code string) string {
	if t, ok := installmentTypes[code]; ok {
		return t
	}
	return code
}

func responseTitle(approved bool) string {
	if approved {
		return TitleApproved
	}
	return TitleRejected
}

// TransactionDetails derives the Webpay Plus summary fields. A nil response
// yields zero values; the title is approved only for response code 0.
func TransactionDetails(res *transbank.CommitResponse, loc *time.Location) WebpaySummary {
	if res == nil {
		return WebpaySummary{ResponseTitle: TitleRejected}
	}

	s := WebpaySummary{
		BuyOrder:           res.BuyOrder,
		AuthorizationCode:  res.AuthorizationCode,
		Amount:             res.Amount,
		InstallmentsNumber: res.InstallmentsNumber,
		ResponseTitle:      responseTitle(res.ResponseCode != nil && *res.ResponseCode == 0),
		InstallmentType:    InstallmentType(res.PaymentTypeCode),
		PaymentType:        PaymentType(res.PaymentTypeCode),
		AcceptedAt:         inLocation(res.TransactionTime(), loc),
	}
	if res.InstallmentsAmount != nil {
		s.InstallmentsAmount = *res.InstallmentsAmount
	}
	if res.CardDetail != nil {
		s.CardNumber = res.CardDetail.CardNumber
	}
	return s
}

// OneclickDetails derives the Oneclick summary from the first mall detail.
func OneclickDetails(res *transbank.MallTransactionResponse, loc *time.Location) OneclickSummary {
	if res == nil {
		return OneclickSummary{ResponseTitle: TitleRejected}
	}

	s := OneclickSummary{
		BuyOrder:   res.BuyOrder,
		AcceptedAt: inLocation(transbank.ParseDate(res.TransactionDate), loc),
	}
	if res.CardDetail != nil {
		s.CardNumber = res.CardDetail.CardNumber
	}

	first := res.FirstDetail()
	s.ResponseTitle = responseTitle(first.IsApproved())
	if first == nil {
		s.PaymentType = PaymentType("")
		return s
	}

	s.AuthorizationCode = first.AuthorizationCode
	s.Amount = first.Amount
	s.InstallmentsNumber = first.InstallmentsNumber
	s.PaymentType = PaymentType(first.PaymentTypeCode)
	s.InstallmentType = InstallmentType(first.PaymentTypeCode)
	return s
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() || loc == nil {
		return t
	}
	return t.In(loc)
}
