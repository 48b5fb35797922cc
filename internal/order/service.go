package order

import (
	"context"
	"fmt"

	"transbank-webpay/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	GetOrder(ctx context.Context, orderID uint) (*Order, error)
	MarkAsPaid(ctx context.Context, orderID uint) error
	MarkAsFailed(ctx context.Context, orderID uint) error
	MarkAsCancelled(ctx context.Context, orderID uint) error
	MarkAsRefunded(ctx context.Context, orderID uint) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetOrder(ctx context.Context, orderID uint) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *service) MarkAsPaid(ctx context.Context, orderID uint) error {
	return s.transition(ctx, orderID, StatusProcessing)
}

func (s *service) MarkAsFailed(ctx context.Context, orderID uint) error {
	return s.transition(ctx, orderID, StatusFailed)
}

func (s *service) MarkAsCancelled(ctx context.Context, orderID uint) error {
	return s.transition(ctx, orderID, StatusCancelled)
}

func (s *service) MarkAsRefunded(ctx context.Context, orderID uint) error {
	return s.transition(ctx, orderID, StatusRefunded)
}

func (s *service) transition(ctx context.Context, orderID uint, next Status) error {
	log := logger.FromCtx(ctx).With(
		zap.Uint("order_id", orderID),
		zap.String("next_status", string(next)),
	)

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if o.Status == next {
		return nil
	}

	if !o.CanTransition(next) {
		log.Warn("Rejected order status transition", zap.String("status", string(o.Status)))
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, o.Status, next)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, next); err != nil {
		log.Error("Failed to update order status", zap.Error(err))
		return err
	}

	log.Info("Order status updated", zap.String("previous_status", string(o.Status)))
	return nil
}
