package transbank

import (
	"context"
	"net/http"
	"net/url"
)

const oneclickBasePath = "/rswebpaytransaction/api/oneclick/v1.2"

const (
	maxUsernameLength = 40
	maxEmailLength    = 100
)

// OneclickMall is the Oneclick Mall REST client: card inscriptions plus
// mall transactions charged against an inscribed card.
type OneclickMall struct {
	requester
}

func NewOneclickMall(options Options) *OneclickMall {
	return &OneclickMall{requester: newRequester(options)}
}

func (o *OneclickMall) Options() Options { return o.options }

func (o *OneclickMall) StartInscription(ctx context.Context, req InscriptionStartRequest) (*InscriptionStartResponse, error) {
	switch {
	case req.Username == "" || len(req.Username) > maxUsernameLength:
		return nil, invalid(OpInscriptionStart, "username must be 1 to %d characters", maxUsernameLength)
	case req.Email == "" || len(req.Email) > maxEmailLength:
		return nil, invalid(OpInscriptionStart, "email must be 1 to %d characters", maxEmailLength)
	case req.ResponseURL == "" || len(req.ResponseURL) > maxReturnURLLength:
		return nil, invalid(OpInscriptionStart, "response_url must be 1 to %d characters", maxReturnURLLength)
	}

	var res InscriptionStartResponse
	if _, err := o.decode(ctx, OpInscriptionStart, http.MethodPost, oneclickBasePath+"/inscriptions", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (o *OneclickMall) FinishInscription(ctx context.Context, token string) (*InscriptionFinishResponse, error) {
	if err := validateToken(OpInscriptionFinish, token); err != nil {
		return nil, err
	}

	var res InscriptionFinishResponse
	path := oneclickBasePath + "/inscriptions/" + url.PathEscape(token)
	if _, err := o.decode(ctx, OpInscriptionFinish, http.MethodPut, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (o *OneclickMall) DeleteInscription(ctx context.Context, tbkUser, username string) error {
	if tbkUser == "" || username == "" {
		return invalid(OpInscriptionDelete, "tbk_user and username are required")
	}

	body := map[string]string{"tbk_user": tbkUser, "username": username}
	_, err := o.send(ctx, OpInscriptionDelete, http.MethodDelete, oneclickBasePath+"/inscriptions", body)
	return err
}

func (o *OneclickMall) Authorize(ctx context.Context, req AuthorizeRequest) (*MallTransactionResponse, error) {
	switch {
	case req.Username == "" || req.TbkUser == "":
		return nil, invalid(OpAuthorize, "username and tbk_user are required")
	case req.BuyOrder == "" || len(req.BuyOrder) > maxBuyOrderLength:
		return nil, invalid(OpAuthorize, "buy_order must be 1 to %d characters", maxBuyOrderLength)
	case len(req.Details) == 0:
		return nil, invalid(OpAuthorize, "at least one detail is required")
	}
	for _, d := range req.Details {
		if d.CommerceCode == "" || d.BuyOrder == "" || len(d.BuyOrder) > maxBuyOrderLength || d.Amount <= 0 {
			return nil, invalid(OpAuthorize, "detail %q is invalid", d.BuyOrder)
		}
	}

	var res MallTransactionResponse
	raw, err := o.decode(ctx, OpAuthorize, http.MethodPost, oneclickBasePath+"/transactions", req, &res)
	if err != nil {
		return nil, err
	}
	res.Raw = raw
	return &res, nil
}

func (o *OneclickMall) Status(ctx context.Context, buyOrder string) (*MallTransactionResponse, error) {
	if buyOrder == "" || len(buyOrder) > maxBuyOrderLength {
		return nil, invalid(OpMallStatus, "buy_order must be 1 to %d characters", maxBuyOrderLength)
	}

	var res MallTransactionResponse
	path := oneclickBasePath + "/transactions/" + url.PathEscape(buyOrder)
	raw, err := o.decode(ctx, OpMallStatus, http.MethodGet, path, nil, &res)
	if err != nil {
		return nil, err
	}
	res.Raw = raw
	return &res, nil
}

func (o *OneclickMall) Refund(ctx context.Context, buyOrder string, req MallRefundRequest) (*RefundResponse, error) {
	switch {
	case buyOrder == "" || len(buyOrder) > maxBuyOrderLength:
		return nil, invalid(OpMallRefund, "buy_order must be 1 to %d characters", maxBuyOrderLength)
	case req.CommerceCode == "" || req.DetailBuyOrder == "":
		return nil, invalid(OpMallRefund, "commerce_code and detail_buy_order are required")
	case req.Amount <= 0:
		return nil, invalid(OpMallRefund, "amount must be positive")
	}

	var res RefundResponse
	path := oneclickBasePath + "/transactions/" + url.PathEscape(buyOrder) + "/refunds"
	if _, err := o.decode(ctx, OpMallRefund, http.MethodPost, path, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
