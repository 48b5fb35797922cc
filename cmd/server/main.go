package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"transbank-webpay/internal/checkout"
	"transbank-webpay/internal/config"
	"transbank-webpay/internal/db"
	"transbank-webpay/internal/handler"
	"transbank-webpay/internal/logger"
	"transbank-webpay/internal/middleware"
	"transbank-webpay/internal/order"
	"transbank-webpay/internal/thankyou"
	"transbank-webpay/internal/transaction"
	"transbank-webpay/internal/transbank"
	"transbank-webpay/internal/webpay"

	"go.uber.org/zap"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewLimiter("")
	go limiter.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(cfg, database, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.L().Info("Webpay server running",
		zap.String("addr", srv.Addr),
		zap.String("webpay_environment", cfg.Webpay.Environment),
	)

	if err := startServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newServer(cfg *config.Config, database *sql.DB, limiter *middleware.Limiter) http.Handler {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.L().Warn("Unknown store timezone, using UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo)
	txRepo := transaction.NewRepository(database)

	webpayClient := webpay.NewClient(cfg.Webpay)
	oneclickOptions, childCommerceCode := webpay.OneclickOptions(cfg.Oneclick)
	oneclick := transbank.NewOneclickMall(oneclickOptions)

	checkoutSvc := checkout.NewService(orderSvc, txRepo, webpayClient, oneclick, checkout.Settings{
		ChildCommerceCode: childCommerceCode,
	})
	thankYou := thankyou.NewController(orderSvc, txRepo, cfg.BaseURL, loc)

	h := handler.NewHandler(thankYou, checkoutSvc, oneclick, cfg.BaseURL)
	return handler.NewRouter(h, middleware.NewAuth(cfg.JWTSecret), limiter)
}
