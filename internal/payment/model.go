package payment

import (
	"math"
	"strconv"
)

// MinorUnits converts a decimal currency amount into integer minor
// units. The protocol has no concept of fractional minor units.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Params is the flat key/value body of a gateway request or response,
// before it is signed and wrapped into the XML envelope.
type Params map[string]string

// Set stores a value, coercing non-string inputs at the call site.
func (p Params) Set(key, value string) {
	p[key] = value
}

// SetInt64 stores a numeric value in its decimal string form.
func (p Params) SetInt64(key string, value int64) {
	p[key] = strconv.FormatInt(value, 10)
}

// Get returns the value for key, or "" when absent.
func (p Params) Get(key string) string {
	return p[key]
}

// Clone returns an independent copy of the parameter set.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Credentials is the per-merchant configuration. Loaded once at startup
// and never mutated afterwards, so it is safe to share across goroutines.
type Credentials struct {
	AppID     string
	MchID     string
	APIKey    string
	NotifyURL string
	BaseURL   string
}

// PaymentIntent describes one outbound payment creation.
type PaymentIntent struct {
	OutTradeNo  string  `validate:"required,max=32"`
	Amount      float64 `validate:"required,gt=0"`
	Description string  `validate:"required,max=128"`
	OpenID      string  `validate:"max=128"`
	TradeType   string  `validate:"required,oneof=JSAPI NATIVE APP H5"`
}

// RefundRequest describes one outbound refund creation against an
// earlier payment.
type RefundRequest struct {
	OutRefundNo string  `validate:"required,max=32"`
	OutTradeNo  string  `validate:"required,max=32"`
	Amount      float64 `validate:"required,gt=0"`
	Reason      string  `validate:"max=80"`
}

// Result is the parsed outcome of a gateway call whose transport and
// business status both reported success. The full parameter set is kept
// for field-specific extraction.
type Result struct {
	Params Params
}

// TransactionID returns the gateway-assigned transaction identifier.
func (r *Result) TransactionID() string {
	return r.Params.Get("transaction_id")
}

// TradeState returns the raw trade state string from a query response.
func (r *Result) TradeState() string {
	return r.Params.Get("trade_state")
}

// PrepayID returns the prepay identifier from a create-payment response.
func (r *Result) PrepayID() string {
	return r.Params.Get("prepay_id")
}

// RefundID returns the gateway-assigned refund identifier.
func (r *Result) RefundID() string {
	return r.Params.Get("refund_id")
}

// RefundStatus returns the raw refund status from a refund-query
// response. The gateway indexes it per refund; the first entry is the
// one keyed by our out_refund_no.
func (r *Result) RefundStatus() string {
	return r.Params.Get("refund_status_0")
}
