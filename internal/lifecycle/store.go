package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

// Store is the persistence collaborator. The transition methods are
// compare-and-set: they apply the change only while the record is still
// in the expected state, which is what keeps concurrent callback and
// query paths from losing updates.
type Store interface {
	CreatePayment(ctx context.Context, rec *PaymentRecord) error
	GetPayment(ctx context.Context, outTradeNo string) (*PaymentRecord, error)
	TransitionPayment(ctx context.Context, outTradeNo string, from, to PaymentState, transactionID string) (bool, error)
	ListPendingPayments(ctx context.Context, updatedBefore time.Time, limit int) ([]PaymentRecord, error)

	CreateRefund(ctx context.Context, rec *RefundRecord) error
	GetRefund(ctx context.Context, outRefundNo string) (*RefundRecord, error)
	TransitionRefund(ctx context.Context, outRefundNo string, from, to RefundState, refundID string) (bool, error)
	ListOpenRefunds(ctx context.Context, limit int) ([]RefundRecord, error)
}

type store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return &store{db: db}
}

func (s *store) CreatePayment(ctx context.Context, rec *PaymentRecord) error {
	// The unique key on out_trade_no is what makes create idempotent;
	// a duplicate insert is a no-op, not an error.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (out_trade_no, state, transaction_id, total_fee, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (out_trade_no) DO NOTHING
	`, rec.OutTradeNo, rec.State, rec.TransactionID, rec.TotalFee)
	return err
}

func (s *store) GetPayment(ctx context.Context, outTradeNo string) (*PaymentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT out_trade_no, state, transaction_id, total_fee, updated_at
		FROM payments WHERE out_trade_no = $1
	`, outTradeNo)

	var rec PaymentRecord
	err := row.Scan(&rec.OutTradeNo, &rec.State, &rec.TransactionID, &rec.TotalFee, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *store) TransitionPayment(ctx context.Context, outTradeNo string, from, to PaymentState, transactionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payments
		SET state = $1,
		    transaction_id = COALESCE(NULLIF($2, ''), transaction_id),
		    updated_at = now()
		WHERE out_trade_no = $3 AND state = $4
	`, to, transactionID, outTradeNo, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *store) ListPendingPayments(ctx context.Context, updatedBefore time.Time, limit int) ([]PaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT out_trade_no, state, transaction_id, total_fee, updated_at
		FROM payments
		WHERE state = $1 AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3
	`, PaymentPending, updatedBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PaymentRecord
	for rows.Next() {
		var rec PaymentRecord
		if err := rows.Scan(&rec.OutTradeNo, &rec.State, &rec.TransactionID, &rec.TotalFee, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *store) CreateRefund(ctx context.Context, rec *RefundRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refunds (out_refund_no, out_trade_no, state, refund_id, refund_fee, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (out_refund_no) DO NOTHING
	`, rec.OutRefundNo, rec.OutTradeNo, rec.State, rec.RefundID, rec.RefundFee)
	return err
}

func (s *store) GetRefund(ctx context.Context, outRefundNo string) (*RefundRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT out_refund_no, out_trade_no, state, refund_id, refund_fee, updated_at
		FROM refunds WHERE out_refund_no = $1
	`, outRefundNo)

	var rec RefundRecord
	err := row.Scan(&rec.OutRefundNo, &rec.OutTradeNo, &rec.State, &rec.RefundID, &rec.RefundFee, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *store) TransitionRefund(ctx context.Context, outRefundNo string, from, to RefundState, refundID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE refunds
		SET state = $1,
		    refund_id = COALESCE(NULLIF($2, ''), refund_id),
		    updated_at = now()
		WHERE out_refund_no = $3 AND state = $4
	`, to, refundID, outRefundNo, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *store) ListOpenRefunds(ctx context.Context, limit int) ([]RefundRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT out_refund_no, out_trade_no, state, refund_id, refund_fee, updated_at
		FROM refunds
		WHERE state IN ($1, $2)
		ORDER BY updated_at ASC
		LIMIT $3
	`, RefundRequested, RefundProcessing, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RefundRecord
	for rows.Next() {
		var rec RefundRecord
		if err := rows.Scan(&rec.OutRefundNo, &rec.OutTradeNo, &rec.State, &rec.RefundID, &rec.RefundFee, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
