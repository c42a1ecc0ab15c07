package notify

import (
	"errors"
	"io"
	"net/http"

	"mallpay-be/internal/lifecycle"
	"mallpay-be/internal/logger"
	"mallpay-be/internal/metrics"
	"mallpay-be/internal/payment"

	"go.uber.org/zap"
)

// Handler receives the gateway's asynchronous payment notifications.
// The flow is fixed: decode the envelope, verify the signature before
// trusting any field, then hand the parameter set to the tracker.
type Handler struct {
	apiKey  string
	tracker lifecycle.Service
}

func NewHandler(apiKey string, tracker lifecycle.Service) *Handler {
	return &Handler{
		apiKey:  apiKey,
		tracker: tracker,
	}
}

// PaymentNotify is the route handler for the gateway callback. The
// gateway retries until it reads a SUCCESS envelope, so duplicate
// deliveries are expected and must be acknowledged without re-applying
// the transition.
func (h *Handler) PaymentNotify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("reading callback body", zap.Error(err))
		metrics.RecordCallback("error")
		h.respond(w, "FAIL", "failed to read body")
		return
	}
	defer r.Body.Close()

	params := payment.DecodeEnvelope(string(body))

	if !payment.Verify(params, h.apiKey) {
		// Security-relevant: an unverifiable callback is either
		// misconfiguration or someone probing the endpoint.
		log.Warn("rejected callback with invalid signature",
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("out_trade_no", params.Get("out_trade_no")),
		)
		metrics.RecordCallback("rejected")
		h.respond(w, "FAIL", "invalid signature")
		return
	}

	if params.Get("return_code") != "SUCCESS" {
		// Not an outcome notification; acknowledge and ignore.
		metrics.RecordCallback("verified")
		h.respond(w, "SUCCESS", "OK")
		return
	}

	state, err := h.tracker.ApplyPaymentNotification(ctx, params)
	switch {
	case err == nil:
		metrics.RecordCallback("verified")
		h.respond(w, "SUCCESS", "OK")
	case errors.Is(err, lifecycle.ErrTerminalState):
		// Conflicting notification for a settled record. Acknowledge
		// so the gateway stops retrying, but keep the record as is.
		log.Warn("callback conflicts with terminal state",
			zap.String("out_trade_no", params.Get("out_trade_no")),
			zap.String("current_state", string(state)),
		)
		metrics.RecordCallback("duplicate")
		h.respond(w, "SUCCESS", "OK")
	case errors.Is(err, lifecycle.ErrNotFound):
		log.Warn("callback for unknown payment",
			zap.String("out_trade_no", params.Get("out_trade_no")),
		)
		metrics.RecordCallback("error")
		h.respond(w, "FAIL", "unknown payment")
	default:
		log.Error("applying callback", zap.Error(err))
		metrics.RecordCallback("error")
		h.respond(w, "FAIL", "internal error")
	}
}

// respond answers the gateway in its own envelope format. The gateway
// only looks at the body, so the HTTP status is always 200.
func (h *Handler) respond(w http.ResponseWriter, code, msg string) {
	body, err := payment.EncodeEnvelope(payment.Params{
		"return_code": code,
		"return_msg":  msg,
	})
	if err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}
