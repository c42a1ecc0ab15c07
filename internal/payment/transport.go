package payment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mallpay-be/internal/logger"

	"go.uber.org/zap"
)

// Gateway operation paths.
const (
	pathUnifiedOrder = "/pay/unifiedorder"
	pathOrderQuery   = "/pay/orderquery"
	pathCloseOrder   = "/pay/closeorder"
	pathRefund       = "/secapi/pay/refund"
	pathRefundQuery  = "/pay/refundquery"
)

// Transport performs one request/response exchange with the gateway and
// returns the raw envelope text. The variant is chosen once at
// construction time so the request builder never branches on
// environment.
type Transport interface {
	RoundTrip(ctx context.Context, path string, body string) (string, error)
}

type liveTransport struct {
	baseURL    string
	httpClient *http.Client
}

// NewLiveTransport talks to the real gateway. Transport failures
// (network errors, timeouts, non-2xx status) come back as
// CategoryTransport so callers can tell "could not reach gateway" from
// "gateway rejected the request".
func NewLiveTransport(baseURL string) Transport {
	return &liveTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (t *liveTransport) RoundTrip(ctx context.Context, path string, body string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, strings.NewReader(body))
	if err != nil {
		return "", transportError("building request", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", transportError("gateway unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError("reading response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.L().Error("gateway returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path),
		)
		return "", transportError(fmt.Sprintf("http status %d", resp.StatusCode), nil)
	}

	return string(respBody), nil
}

type sandboxTransport struct{}

// NewSandboxTransport returns canned success envelopes shaped like real
// gateway responses, so integration tests and local runs never hit the
// live gateway. Serial numbers from the request are echoed back.
func NewSandboxTransport() Transport {
	return &sandboxTransport{}
}

func (t *sandboxTransport) RoundTrip(_ context.Context, path string, body string) (string, error) {
	req := DecodeEnvelope(body)

	resp := Params{
		"return_code": "SUCCESS",
		"return_msg":  "OK",
		"result_code": "SUCCESS",
		"appid":       req.Get("appid"),
		"mch_id":      req.Get("mch_id"),
		"nonce_str":   req.Get("nonce_str"),
	}

	switch path {
	case pathUnifiedOrder:
		resp["prepay_id"] = "sandbox-prepay-" + req.Get("out_trade_no")
		resp["trade_type"] = req.Get("trade_type")
	case pathOrderQuery:
		resp["out_trade_no"] = req.Get("out_trade_no")
		resp["transaction_id"] = "sandbox-txn-" + req.Get("out_trade_no")
		resp["trade_state"] = "SUCCESS"
		resp["total_fee"] = req.Get("total_fee")
	case pathCloseOrder:
		resp["out_trade_no"] = req.Get("out_trade_no")
	case pathRefund:
		resp["out_trade_no"] = req.Get("out_trade_no")
		resp["out_refund_no"] = req.Get("out_refund_no")
		resp["refund_id"] = "sandbox-refund-" + req.Get("out_refund_no")
		resp["refund_fee"] = req.Get("refund_fee")
	case pathRefundQuery:
		resp["out_refund_no_0"] = req.Get("out_refund_no")
		resp["refund_status_0"] = "SUCCESS"
	default:
		return "", transportError("unknown sandbox path "+path, nil)
	}

	out, err := EncodeEnvelope(resp)
	if err != nil {
		return "", err
	}
	return out, nil
}
