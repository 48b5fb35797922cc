package handler

import (
	"net/http"

	"transbank-webpay/internal/logger"
	"transbank-webpay/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler, auth *middleware.Auth, limiter *middleware.Limiter) *mux.Router {
	r := mux.NewRouter().StrictSlash(true)
	r.Use(logger.RequestIDMiddleware, logger.LoggingMiddleware, limiter.Middleware)

	r.HandleFunc("/checkout/order-received/{id:[0-9]+}/", h.OrderReceived).Methods(http.MethodGet)
	r.HandleFunc("/checkout/webpay/{id:[0-9]+}", h.StartWebpay).Methods(http.MethodPost)
	r.HandleFunc("/checkout/oneclick/{id:[0-9]+}", h.AuthorizeOneclick).Methods(http.MethodPost)
	r.HandleFunc(returnPath, h.WebpayReturn).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/oneclick/inscriptions", h.StartInscription).Methods(http.MethodPost)
	r.HandleFunc(inscriptionReturnPath, h.FinishInscription).Methods(http.MethodGet, http.MethodPost)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.RequireAdmin)
	admin.HandleFunc("/orders/{id:[0-9]+}/refund", h.Refund).Methods(http.MethodPost)
	admin.HandleFunc("/orders/{id:[0-9]+}/status", h.Status).Methods(http.MethodGet)
	admin.HandleFunc("/oneclick/inscriptions", h.DeleteInscription).Methods(http.MethodDelete)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	return r
}
