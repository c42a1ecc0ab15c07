package lifecycle

import (
	"context"

	"mallpay-be/internal/logger"
	"mallpay-be/internal/payment"

	"go.uber.org/zap"
)

// Coordinator is the entry point callers use to drive a payment from
// the outside: it pairs each gateway call with the matching lifecycle
// transition so the local record never drifts ahead of the gateway.
type Coordinator struct {
	gateway payment.Gateway
	tracker Service
}

func NewCoordinator(gw payment.Gateway, tracker Service) *Coordinator {
	return &Coordinator{gateway: gw, tracker: tracker}
}

// CreatePayment creates the payment upstream, then records it locally
// in PENDING. A gateway failure leaves no local record behind.
func (c *Coordinator) CreatePayment(ctx context.Context, intent payment.PaymentIntent) (*payment.Result, error) {
	res, err := c.gateway.CreatePayment(ctx, intent)
	if err != nil {
		return nil, err
	}
	if err := c.tracker.StartPayment(ctx, intent.OutTradeNo, payment.MinorUnits(intent.Amount)); err != nil {
		logger.FromCtx(ctx).Error("payment created upstream but not recorded",
			zap.String("out_trade_no", intent.OutTradeNo),
			zap.Error(err),
		)
		return nil, err
	}
	return res, nil
}

// CancelPayment closes the order upstream and marks the local record
// cancelled. The local transition only happens once the gateway has
// accepted the close.
func (c *Coordinator) CancelPayment(ctx context.Context, outTradeNo string) error {
	if _, err := c.gateway.ClosePayment(ctx, outTradeNo); err != nil {
		return err
	}
	return c.tracker.CancelPayment(ctx, outTradeNo)
}

// SyncPayment queries the gateway for the current trade state and folds
// it into the local record, returning the state after the fold. Callers
// use it when they cannot wait for the callback or the reconciler.
func (c *Coordinator) SyncPayment(ctx context.Context, outTradeNo string) (PaymentState, error) {
	res, err := c.gateway.QueryPayment(ctx, outTradeNo)
	if err != nil {
		return "", err
	}
	return c.tracker.ApplyPaymentQuery(ctx, outTradeNo, res)
}

// RequestRefund creates the refund upstream and records it locally in
// REQUESTED. Progress past REQUESTED comes from refund queries.
func (c *Coordinator) RequestRefund(ctx context.Context, req payment.RefundRequest) (*payment.Result, error) {
	res, err := c.gateway.CreateRefund(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.tracker.StartRefund(ctx, req.OutRefundNo, req.OutTradeNo, payment.MinorUnits(req.Amount)); err != nil {
		logger.FromCtx(ctx).Error("refund created upstream but not recorded",
			zap.String("out_refund_no", req.OutRefundNo),
			zap.Error(err),
		)
		return nil, err
	}
	return res, nil
}

// SyncRefund queries the gateway for the refund status and folds it
// into the local record.
func (c *Coordinator) SyncRefund(ctx context.Context, outRefundNo string) (RefundState, error) {
	res, err := c.gateway.QueryRefund(ctx, outRefundNo)
	if err != nil {
		return "", err
	}
	return c.tracker.ApplyRefundQuery(ctx, outRefundNo, res)
}
