package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"transbank-webpay/internal/checkout"
	"transbank-webpay/internal/logger"
	"transbank-webpay/internal/metrics"
	"transbank-webpay/internal/thankyou"
	"transbank-webpay/internal/transbank"
	"transbank-webpay/internal/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	returnPath            = "/webpay/return"
	inscriptionReturnPath = "/oneclick/inscriptions/return"
)

type PageBuilder interface {
	Show(ctx context.Context, orderID uint, key string) (*thankyou.Page, error)
}

// Inscriptions enrolls a shopper card for Oneclick payments.
type Inscriptions interface {
	StartInscription(ctx context.Context, req transbank.InscriptionStartRequest) (*transbank.InscriptionStartResponse, error)
	FinishInscription(ctx context.Context, token string) (*transbank.InscriptionFinishResponse, error)
	DeleteInscription(ctx context.Context, tbkUser, username string) error
}

type Handler struct {
	thankYou     PageBuilder
	checkout     checkout.Service
	inscriptions Inscriptions
	baseURL      string
}

func NewHandler(thankYou PageBuilder, checkout checkout.Service, inscriptions Inscriptions, baseURL string) *Handler {
	return &Handler{
		thankYou:     thankYou,
		checkout:     checkout,
		inscriptions: inscriptions,
		baseURL:      baseURL,
	}
}

func orderID(r *http.Request) (uint, bool) {
	id, err := utils.ToUint(mux.Vars(r)["id"])
	return id, err == nil && id > 0
}

// OrderReceived renders the thank-you page of a Transbank order.
func (h *Handler) OrderReceived(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	page, err := h.thankYou.Show(r.Context(), id, r.URL.Query().Get("key"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch {
	case page.Skipped:
		w.WriteHeader(http.StatusNoContent)
	case page.RedirectURL != "":
		http.Redirect(w, r, page.RedirectURL, http.StatusFound)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := renderThankYou(w, page); err != nil {
			logger.FromCtx(r.Context()).Error("Failed to render thank-you page", zap.Error(err))
		}
	}
}

// StartWebpay creates the Webpay transaction and sends the shopper to pay.
func (h *Handler) StartWebpay(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	res, err := h.checkout.StartWebpay(r.Context(), id, h.baseURL+returnPath)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderWebpayRedirect(w, redirectForm{URL: res.URL, Field: "token_ws", Token: res.Token}); err != nil {
		logger.FromCtx(r.Context()).Error("Failed to render webpay form", zap.Error(err))
	}
}

// WebpayReturn receives the shopper back from Webpay, by GET or POST.
func (h *Handler) WebpayReturn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.WriteJSONError(w, "invalid form", http.StatusBadRequest)
		return
	}

	params := checkout.ReturnParams{
		TokenWS:    r.Form.Get("token_ws"),
		TBKToken:   r.Form.Get("TBK_TOKEN"),
		BuyOrder:   r.Form.Get("TBK_ORDEN_COMPRA"),
		TBKSession: r.Form.Get("TBK_ID_SESION"),
	}

	res, err := h.checkout.HandleReturn(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.Redirect(w, r, res.Order.ThankYouURL(h.baseURL), http.StatusSeeOther)
}

type oneclickRequest struct {
	Username string `json:"username"`
	TbkUser  string `json:"tbk_user"`
}

type paymentResponse struct {
	Outcome     checkout.Outcome `json:"outcome"`
	RedirectURL string           `json:"redirect_url"`
}

// AuthorizeOneclick charges the order against the shopper's inscribed card.
func (h *Handler) AuthorizeOneclick(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req oneclickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.TbkUser == "" {
		utils.WriteJSONError(w, "username and tbk_user are required", http.StatusBadRequest)
		return
	}

	res, err := h.checkout.AuthorizeOneclick(r.Context(), id, req.Username, req.TbkUser)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, paymentResponse{
		Outcome:     res.Outcome,
		RedirectURL: res.Order.ThankYouURL(h.baseURL),
	})
}

type refundRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		utils.WriteJSONError(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	res, err := h.checkout.Refund(r.Context(), id, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromCtx(r.Context()).Info("Refund requested",
		zap.Uint("order_id", id),
		zap.Uint("admin_id", adminID(r)),
		zap.String("admin_email", utils.GetUserEmailFromContext(r.Context())),
		zap.Int64("amount", req.Amount),
	)
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	res, err := h.checkout.Status(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(res)
}

func adminID(r *http.Request) uint {
	id, _ := utils.GetUserIDFromContext(r.Context())
	return id
}

type inscriptionRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// StartInscription sends the shopper to Webpay to enroll a card.
func (h *Handler) StartInscription(w http.ResponseWriter, r *http.Request) {
	var req inscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Email == "" {
		utils.WriteJSONError(w, "username and email are required", http.StatusBadRequest)
		return
	}

	res, err := h.inscriptions.StartInscription(r.Context(), transbank.InscriptionStartRequest{
		Username:    req.Username,
		Email:       req.Email,
		ResponseURL: h.baseURL + inscriptionReturnPath,
	})
	metrics.ObserveGatewayCall("oneclick_inscription_start", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderWebpayRedirect(w, redirectForm{URL: res.URLWebpay, Field: "TBK_TOKEN", Token: res.Token}); err != nil {
		logger.FromCtx(r.Context()).Error("Failed to render inscription form", zap.Error(err))
	}
}

type inscriptionResponse struct {
	Approved   bool   `json:"approved"`
	TbkUser    string `json:"tbk_user,omitempty"`
	CardType   string `json:"card_type,omitempty"`
	CardNumber string `json:"card_number,omitempty"`
}

// FinishInscription confirms the enrollment when Webpay sends the shopper back.
func (h *Handler) FinishInscription(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.WriteJSONError(w, "invalid form", http.StatusBadRequest)
		return
	}

	token := r.Form.Get("TBK_TOKEN")
	if token == "" {
		utils.WriteJSONError(w, checkout.ErrNoToken.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.inscriptions.FinishInscription(r.Context(), token)
	metrics.ObserveGatewayCall("oneclick_inscription_finish", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !res.IsApproved() {
		logger.FromCtx(r.Context()).Warn("Oneclick inscription rejected")
		utils.WriteJSON(w, http.StatusOK, inscriptionResponse{Approved: false})
		return
	}

	utils.WriteJSON(w, http.StatusOK, inscriptionResponse{
		Approved:   true,
		TbkUser:    res.TbkUser,
		CardType:   res.CardType,
		CardNumber: res.CardNumber,
	})
}

type deleteInscriptionRequest struct {
	TbkUser  string `json:"tbk_user"`
	Username string `json:"username"`
}

// DeleteInscription removes a shopper's enrolled card.
func (h *Handler) DeleteInscription(w http.ResponseWriter, r *http.Request) {
	var req deleteInscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TbkUser == "" || req.Username == "" {
		utils.WriteJSONError(w, "tbk_user and username are required", http.StatusBadRequest)
		return
	}

	err := h.inscriptions.DeleteInscription(r.Context(), req.TbkUser, req.Username)
	metrics.ObserveGatewayCall("oneclick_inscription_delete", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromCtx(r.Context()).Info("Oneclick inscription deleted",
		zap.String("username", req.Username),
		zap.Uint("admin_id", adminID(r)),
		zap.String("admin_email", utils.GetUserEmailFromContext(r.Context())),
	)
	w.WriteHeader(http.StatusNoContent)
}
