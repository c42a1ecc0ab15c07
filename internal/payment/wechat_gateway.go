package payment

import (
	"context"
	"strings"
	"time"

	"mallpay-be/internal/logger"
	"mallpay-be/internal/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type wechatGateway struct {
	creds     Credentials
	transport Transport
	validate  *validator.Validate
}

// ----------------- Constructor -----------------

// NewWechatGateway builds the gateway client. When sandbox is true the
// canned transport is used instead of the live one; nothing else in the
// client changes between the two modes.
func NewWechatGateway(creds Credentials, sandbox bool) Gateway {
	if creds.APIKey == "" {
		logger.L().Warn("gateway API key is empty")
	}

	var t Transport
	if sandbox {
		t = NewSandboxTransport()
	} else {
		t = NewLiveTransport(creds.BaseURL)
	}

	return &wechatGateway{
		creds:     creds,
		transport: t,
		validate:  validator.New(),
	}
}

// nonce returns a fresh random token. Regenerated per call; the gateway
// treats nonce reuse as a replay signal.
func nonce() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// ----------------- CreatePayment -----------------

func (g *wechatGateway) CreatePayment(ctx context.Context, intent PaymentIntent) (*Result, error) {
	if err := g.validate.Struct(intent); err != nil {
		return nil, rejectedError("invalid payment intent: " + err.Error())
	}

	log := logger.FromCtx(ctx).With(
		zap.String("out_trade_no", intent.OutTradeNo),
		zap.Float64("amount", intent.Amount),
		zap.String("trade_type", intent.TradeType),
	)

	params := Params{
		"appid":        g.creds.AppID,
		"mch_id":       g.creds.MchID,
		"nonce_str":    nonce(),
		"body":         intent.Description,
		"out_trade_no": intent.OutTradeNo,
		"trade_type":   intent.TradeType,
		"notify_url":   g.creds.NotifyURL,
		"openid":       intent.OpenID,
	}
	params.SetInt64("total_fee", MinorUnits(intent.Amount))

	log.Info("creating payment")

	res, err := g.do(ctx, "create_payment", pathUnifiedOrder, params)
	if err != nil {
		log.Error("create payment failed", zap.Error(err))
		return nil, err
	}

	log.Info("payment created", zap.String("prepay_id", res.PrepayID()))
	return res, nil
}

// ----------------- QueryPayment -----------------

func (g *wechatGateway) QueryPayment(ctx context.Context, outTradeNo string) (*Result, error) {
	log := logger.FromCtx(ctx).With(zap.String("out_trade_no", outTradeNo))

	params := Params{
		"appid":        g.creds.AppID,
		"mch_id":       g.creds.MchID,
		"nonce_str":    nonce(),
		"out_trade_no": outTradeNo,
	}

	res, err := g.do(ctx, "query_payment", pathOrderQuery, params)
	if err != nil {
		log.Error("query payment failed", zap.Error(err))
		return nil, err
	}

	log.Info("payment queried",
		zap.String("trade_state", res.TradeState()),
		zap.String("transaction_id", res.TransactionID()),
	)
	return res, nil
}

// ----------------- ClosePayment -----------------

func (g *wechatGateway) ClosePayment(ctx context.Context, outTradeNo string) (*Result, error) {
	log := logger.FromCtx(ctx).With(zap.String("out_trade_no", outTradeNo))

	params := Params{
		"appid":        g.creds.AppID,
		"mch_id":       g.creds.MchID,
		"nonce_str":    nonce(),
		"out_trade_no": outTradeNo,
	}

	res, err := g.do(ctx, "close_payment", pathCloseOrder, params)
	if err != nil {
		log.Error("close payment failed", zap.Error(err))
		return nil, err
	}

	log.Info("payment closed")
	return res, nil
}

// ----------------- CreateRefund -----------------

func (g *wechatGateway) CreateRefund(ctx context.Context, req RefundRequest) (*Result, error) {
	if err := g.validate.Struct(req); err != nil {
		return nil, rejectedError("invalid refund request: " + err.Error())
	}

	log := logger.FromCtx(ctx).With(
		zap.String("out_refund_no", req.OutRefundNo),
		zap.String("out_trade_no", req.OutTradeNo),
		zap.Float64("amount", req.Amount),
	)

	fee := MinorUnits(req.Amount)
	params := Params{
		"appid":         g.creds.AppID,
		"mch_id":        g.creds.MchID,
		"nonce_str":     nonce(),
		"out_trade_no":  req.OutTradeNo,
		"out_refund_no": req.OutRefundNo,
		"refund_desc":   req.Reason,
	}
	// The protocol wants the original order total alongside the refund
	// amount; full refunds are the only supported shape here.
	params.SetInt64("total_fee", fee)
	params.SetInt64("refund_fee", fee)

	log.Info("creating refund")

	res, err := g.do(ctx, "create_refund", pathRefund, params)
	if err != nil {
		log.Error("create refund failed", zap.Error(err))
		return nil, err
	}

	log.Info("refund created", zap.String("refund_id", res.RefundID()))
	return res, nil
}

// ----------------- QueryRefund -----------------

func (g *wechatGateway) QueryRefund(ctx context.Context, outRefundNo string) (*Result, error) {
	log := logger.FromCtx(ctx).With(zap.String("out_refund_no", outRefundNo))

	params := Params{
		"appid":         g.creds.AppID,
		"mch_id":        g.creds.MchID,
		"nonce_str":     nonce(),
		"out_refund_no": outRefundNo,
	}

	res, err := g.do(ctx, "query_refund", pathRefundQuery, params)
	if err != nil {
		log.Error("query refund failed", zap.Error(err))
		return nil, err
	}

	log.Info("refund queried", zap.String("refund_status", res.RefundStatus()))
	return res, nil
}

// ----------------- Shared exchange -----------------

// do signs, encodes, dispatches and decodes one operation, then checks
// both outcome dimensions: return_code says whether the gateway
// processed the request at all, result_code whether the action itself
// succeeded. Only both together are success.
func (g *wechatGateway) do(ctx context.Context, op, path string, params Params) (*Result, error) {
	start := time.Now()
	res, err := g.exchange(ctx, path, params)
	metrics.ObserveGatewayCall(op, outcomeLabel(err), time.Since(start))
	return res, err
}

func (g *wechatGateway) exchange(ctx context.Context, path string, params Params) (*Result, error) {
	params[FieldSign] = Sign(params, g.creds.APIKey)

	body, err := EncodeEnvelope(params)
	if err != nil {
		return nil, codecError("encoding request", err)
	}

	raw, err := g.transport.RoundTrip(ctx, path, body)
	if err != nil {
		if CategoryOf(err) != "" {
			return nil, err
		}
		return nil, transportError("dispatching request", err)
	}

	resp := DecodeEnvelope(raw)
	if resp.Get("return_code") == "" {
		return nil, codecError("response missing return_code", nil)
	}

	if resp.Get("return_code") != "SUCCESS" {
		return nil, rejectedError(firstNonEmpty(resp.Get("return_msg"), "gateway refused request"))
	}

	if resp.Get("result_code") != "SUCCESS" {
		return nil, rejectedError(firstNonEmpty(resp.Get("err_code_des"), resp.Get("err_code"), "gateway reported failure"))
	}

	return &Result{Params: resp}, nil
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if c := CategoryOf(err); c != "" {
		return strings.ToLower(string(c))
	}
	return "error"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
