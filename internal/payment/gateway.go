package payment

import "context"

// Gateway is the outbound protocol client. Every call is an independent
// synchronous exchange; implementations hold no mutable state beyond
// the read-only credential set, so concurrent use needs no locking.
type Gateway interface {
	CreatePayment(ctx context.Context, intent PaymentIntent) (*Result, error)
	QueryPayment(ctx context.Context, outTradeNo string) (*Result, error)
	ClosePayment(ctx context.Context, outTradeNo string) (*Result, error)
	CreateRefund(ctx context.Context, req RefundRequest) (*Result, error)
	QueryRefund(ctx context.Context, outRefundNo string) (*Result, error)
}
