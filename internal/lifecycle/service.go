package lifecycle

import (
	"context"
	"errors"

	"mallpay-be/internal/logger"
	"mallpay-be/internal/metrics"
	"mallpay-be/internal/payment"

	"go.uber.org/zap"
)

var (
	// ErrTerminalState means the record already reached a terminal
	// state and the requested transition conflicts with it. Repeating
	// the transition the record already took is not an error.
	ErrTerminalState = errors.New("record is in a terminal state")
	// ErrInvalidTransition means the requested move is not in the
	// state machine.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Service owns the payment and refund lifecycles. It interprets parsed
// gateway responses and authenticated callbacks into transitions and
// applies them through the store's compare-and-set primitives, so
// duplicate deliveries collapse into no-ops.
type Service interface {
	StartPayment(ctx context.Context, outTradeNo string, totalFee int64) error
	ApplyPaymentQuery(ctx context.Context, outTradeNo string, res *payment.Result) (PaymentState, error)
	ApplyPaymentNotification(ctx context.Context, params payment.Params) (PaymentState, error)
	FailPayment(ctx context.Context, outTradeNo, reason string) error
	CancelPayment(ctx context.Context, outTradeNo string) error

	StartRefund(ctx context.Context, outRefundNo, outTradeNo string, refundFee int64) error
	ApplyRefundQuery(ctx context.Context, outRefundNo string, res *payment.Result) (RefundState, error)
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{store: store}
}

// StartPayment records a payment whose create call just succeeded. The
// record begins in CREATED and immediately moves to PENDING.
func (s *service) StartPayment(ctx context.Context, outTradeNo string, totalFee int64) error {
	rec := &PaymentRecord{
		OutTradeNo: outTradeNo,
		State:      PaymentCreated,
		TotalFee:   totalFee,
	}
	if err := s.store.CreatePayment(ctx, rec); err != nil {
		return err
	}
	_, err := s.movePayment(ctx, outTradeNo, PaymentPending, "")
	return err
}

// ApplyPaymentQuery folds a successful query-payment response into the
// record. A still-pending trade state leaves the record untouched.
func (s *service) ApplyPaymentQuery(ctx context.Context, outTradeNo string, res *payment.Result) (PaymentState, error) {
	target := MapTradeState(res.TradeState())
	if target == PaymentPending {
		rec, err := s.store.GetPayment(ctx, outTradeNo)
		if err != nil {
			return "", err
		}
		return rec.State, nil
	}
	return s.movePayment(ctx, outTradeNo, target, res.TransactionID())
}

// ApplyPaymentNotification folds an authenticated callback into the
// record. Signature verification is the caller's job; params here are
// already trusted.
func (s *service) ApplyPaymentNotification(ctx context.Context, params payment.Params) (PaymentState, error) {
	outTradeNo := params.Get("out_trade_no")
	if outTradeNo == "" {
		return "", ErrNotFound
	}

	target := PaymentFailed
	if params.Get("result_code") == "SUCCESS" {
		target = PaymentPaid
	}
	return s.movePayment(ctx, outTradeNo, target, params.Get("transaction_id"))
}

// FailPayment marks a payment failed after an explicit gateway error on
// query.
func (s *service) FailPayment(ctx context.Context, outTradeNo, reason string) error {
	logger.L().Warn("failing payment on gateway rejection",
		zap.String("out_trade_no", outTradeNo),
		zap.String("reason", reason),
	)
	_, err := s.movePayment(ctx, outTradeNo, PaymentFailed, "")
	return err
}

// CancelPayment marks a payment cancelled, explicit or timeout-driven.
func (s *service) CancelPayment(ctx context.Context, outTradeNo string) error {
	_, err := s.movePayment(ctx, outTradeNo, PaymentCancelled, "")
	return err
}

// movePayment is the single transition path for payments. Repeating a
// transition the record already took is an acknowledged no-op; moving a
// terminal record anywhere else is rejected and logged, since double
// processing a payment is a financial-correctness hazard.
func (s *service) movePayment(ctx context.Context, outTradeNo string, to PaymentState, transactionID string) (PaymentState, error) {
	rec, err := s.store.GetPayment(ctx, outTradeNo)
	if err != nil {
		return "", err
	}

	if rec.State == to {
		return rec.State, nil
	}

	if rec.State.Terminal() {
		logger.L().Warn("rejected transition out of terminal payment state",
			zap.String("out_trade_no", outTradeNo),
			zap.String("current", string(rec.State)),
			zap.String("requested", string(to)),
		)
		return rec.State, ErrTerminalState
	}

	// A query result may arrive for a record still in CREATED when the
	// create call crashed between gateway success and the PENDING move.
	if rec.State == PaymentCreated && to != PaymentPending && paymentCanMove(PaymentPending, to) {
		if _, err := s.movePayment(ctx, outTradeNo, PaymentPending, ""); err != nil {
			return rec.State, err
		}
		rec.State = PaymentPending
	}

	if !paymentCanMove(rec.State, to) {
		return rec.State, ErrInvalidTransition
	}

	applied, err := s.store.TransitionPayment(ctx, outTradeNo, rec.State, to, transactionID)
	if err != nil {
		return rec.State, err
	}
	if !applied {
		// Lost a race with a concurrent callback or query. If the
		// record landed where we were headed anyway, that is success.
		cur, err := s.store.GetPayment(ctx, outTradeNo)
		if err != nil {
			return rec.State, err
		}
		if cur.State == to {
			return cur.State, nil
		}
		logger.L().Warn("payment transition lost race",
			zap.String("out_trade_no", outTradeNo),
			zap.String("current", string(cur.State)),
			zap.String("requested", string(to)),
		)
		return cur.State, ErrInvalidTransition
	}

	metrics.RecordTransition("payment", string(to))
	logger.FromCtx(ctx).Info("payment transitioned",
		zap.String("out_trade_no", outTradeNo),
		zap.String("from", string(rec.State)),
		zap.String("to", string(to)),
	)
	return to, nil
}

// StartRefund records a refund whose create call just succeeded.
func (s *service) StartRefund(ctx context.Context, outRefundNo, outTradeNo string, refundFee int64) error {
	rec := &RefundRecord{
		OutRefundNo: outRefundNo,
		OutTradeNo:  outTradeNo,
		State:       RefundRequested,
		RefundFee:   refundFee,
	}
	return s.store.CreateRefund(ctx, rec)
}

// ApplyRefundQuery folds a refund-query response into the record.
func (s *service) ApplyRefundQuery(ctx context.Context, outRefundNo string, res *payment.Result) (RefundState, error) {
	target := MapRefundStatus(res.RefundStatus())
	return s.moveRefund(ctx, outRefundNo, target, res.RefundID())
}

func (s *service) moveRefund(ctx context.Context, outRefundNo string, to RefundState, refundID string) (RefundState, error) {
	rec, err := s.store.GetRefund(ctx, outRefundNo)
	if err != nil {
		return "", err
	}

	if rec.State == to {
		return rec.State, nil
	}

	if rec.State.Terminal() {
		logger.L().Warn("rejected transition out of terminal refund state",
			zap.String("out_refund_no", outRefundNo),
			zap.String("current", string(rec.State)),
			zap.String("requested", string(to)),
		)
		return rec.State, ErrTerminalState
	}

	if !refundCanMove(rec.State, to) {
		return rec.State, ErrInvalidTransition
	}

	applied, err := s.store.TransitionRefund(ctx, outRefundNo, rec.State, to, refundID)
	if err != nil {
		return rec.State, err
	}
	if !applied {
		cur, err := s.store.GetRefund(ctx, outRefundNo)
		if err != nil {
			return rec.State, err
		}
		if cur.State == to {
			return cur.State, nil
		}
		return cur.State, ErrInvalidTransition
	}

	metrics.RecordTransition("refund", string(to))
	logger.FromCtx(ctx).Info("refund transitioned",
		zap.String("out_refund_no", outRefundNo),
		zap.String("from", string(rec.State)),
		zap.String("to", string(to)),
	)
	return to, nil
}
