package lifecycle

import (
	"context"
	"time"

	"mallpay-be/internal/logger"
	"mallpay-be/internal/payment"

	"go.uber.org/zap"
)

const reconcileBatch = 50

// Reconciler resolves records the callback never reached. After a
// timeout the true state of a payment is unknown and must be settled by
// an explicit query, never assumed; this loop does that for payments
// stuck in PENDING and refunds still open.
type Reconciler struct {
	gateway  payment.Gateway
	svc      Service
	store    Store
	interval time.Duration
	minAge   time.Duration
}

func NewReconciler(gateway payment.Gateway, svc Service, store Store, interval, minAge time.Duration) *Reconciler {
	return &Reconciler{
		gateway:  gateway,
		svc:      svc,
		store:    store,
		interval: interval,
		minAge:   minAge,
	}
}

// Run loops until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Reconciler) runOnce(ctx context.Context) {
	log := logger.L()

	cutoff := time.Now().Add(-r.minAge)
	payments, err := r.store.ListPendingPayments(ctx, cutoff, reconcileBatch)
	if err != nil {
		log.Error("listing pending payments", zap.Error(err))
	}
	for _, p := range payments {
		r.reconcilePayment(ctx, p)
	}

	refunds, err := r.store.ListOpenRefunds(ctx, reconcileBatch)
	if err != nil {
		log.Error("listing open refunds", zap.Error(err))
	}
	for _, rf := range refunds {
		r.reconcileRefund(ctx, rf)
	}
}

func (r *Reconciler) reconcilePayment(ctx context.Context, rec PaymentRecord) {
	log := logger.L().With(zap.String("out_trade_no", rec.OutTradeNo))

	res, err := r.gateway.QueryPayment(ctx, rec.OutTradeNo)
	if err != nil {
		// Rejection is a definitive answer; transport and codec
		// failures leave the state unknown, so just try again next
		// tick.
		if payment.CategoryOf(err) == payment.CategoryRejected {
			if ferr := r.svc.FailPayment(ctx, rec.OutTradeNo, err.Error()); ferr != nil {
				log.Error("failing payment after rejection", zap.Error(ferr))
			}
			return
		}
		log.Warn("payment query failed, will retry", zap.Error(err))
		return
	}

	if _, err := r.svc.ApplyPaymentQuery(ctx, rec.OutTradeNo, res); err != nil {
		log.Error("applying payment query result", zap.Error(err))
	}
}

func (r *Reconciler) reconcileRefund(ctx context.Context, rec RefundRecord) {
	log := logger.L().With(zap.String("out_refund_no", rec.OutRefundNo))

	res, err := r.gateway.QueryRefund(ctx, rec.OutRefundNo)
	if err != nil {
		log.Warn("refund query failed, will retry", zap.Error(err))
		return
	}

	if _, err := r.svc.ApplyRefundQuery(ctx, rec.OutRefundNo, res); err != nil {
		log.Error("applying refund query result", zap.Error(err))
	}
}
