package lifecycle

import "time"

type PaymentState string

const (
	PaymentCreated   PaymentState = "CREATED"
	PaymentPending   PaymentState = "PENDING"
	PaymentPaid      PaymentState = "PAID"
	PaymentFailed    PaymentState = "FAILED"
	PaymentCancelled PaymentState = "CANCELLED"
)

// Terminal reports whether no further transition is permitted.
func (s PaymentState) Terminal() bool {
	switch s {
	case PaymentPaid, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

type RefundState string

const (
	RefundRequested  RefundState = "REQUESTED"
	RefundProcessing RefundState = "PROCESSING"
	RefundCompleted  RefundState = "COMPLETED"
	RefundCancelled  RefundState = "CANCELLED"
	RefundFailed     RefundState = "FAILED"
)

func (s RefundState) Terminal() bool {
	switch s {
	case RefundCompleted, RefundCancelled, RefundFailed:
		return true
	}
	return false
}

// PaymentRecord is the state-machine subject for one payment, keyed by
// the caller-chosen serial number. Long-term storage belongs to the
// store; this package owns only the transition logic.
type PaymentRecord struct {
	OutTradeNo    string
	State         PaymentState
	TransactionID string
	TotalFee      int64
	UpdatedAt     time.Time
}

// RefundRecord is the state-machine subject for one refund.
type RefundRecord struct {
	OutRefundNo string
	OutTradeNo  string
	State       RefundState
	RefundID    string
	RefundFee   int64
	UpdatedAt   time.Time
}
