package lifecycle

// The gateway's status strings form an open, loosely documented
// vocabulary. Both maps below are the complete translation onto our
// closed enums; anything unrecognized falls back to FAILED so callers
// never see a passthrough value.

var tradeStateToPayment = map[string]PaymentState{
	"SUCCESS":    PaymentPaid,
	"REFUND":     PaymentPaid, // a refund in flight implies the payment went through
	"NOTPAY":     PaymentPending,
	"USERPAYING": PaymentPending,
	"ACCEPT":     PaymentPending,
	"CLOSED":     PaymentCancelled,
	"REVOKED":    PaymentCancelled,
	"PAYERROR":   PaymentFailed,
}

// MapTradeState translates a query-payment trade state.
func MapTradeState(s string) PaymentState {
	if st, ok := tradeStateToPayment[s]; ok {
		return st
	}
	return PaymentFailed
}

var refundStatusToState = map[string]RefundState{
	"SUCCESS":     RefundCompleted,
	"PROCESSING":  RefundProcessing,
	"REFUNDCLOSE": RefundCancelled,
	"CHANGE":      RefundFailed, // refund bounced, needs manual handling
}

// MapRefundStatus translates a refund-query status.
func MapRefundStatus(s string) RefundState {
	if st, ok := refundStatusToState[s]; ok {
		return st
	}
	return RefundFailed
}

var paymentMoves = map[PaymentState][]PaymentState{
	PaymentCreated: {PaymentPending, PaymentCancelled},
	PaymentPending: {PaymentPaid, PaymentFailed, PaymentCancelled},
}

func paymentCanMove(from, to PaymentState) bool {
	for _, s := range paymentMoves[from] {
		if s == to {
			return true
		}
	}
	return false
}

var refundMoves = map[RefundState][]RefundState{
	RefundRequested:  {RefundProcessing, RefundCompleted, RefundCancelled, RefundFailed},
	RefundProcessing: {RefundCompleted, RefundCancelled, RefundFailed},
}

func refundCanMove(from, to RefundState) bool {
	for _, s := range refundMoves[from] {
		if s == to {
			return true
		}
	}
	return false
}
