package payment

import (
	"errors"
	"fmt"
)

// ErrorCategory tells callers which class of failure occurred so they
// can pick a retry policy. Transport and codec failures mean the true
// gateway state is unknown; rejections are definitive answers.
type ErrorCategory string

const (
	// CategoryTransport covers network errors, timeouts and non-2xx
	// HTTP responses obtained before any gateway-level answer.
	CategoryTransport ErrorCategory = "TRANSPORT"
	// CategoryRejected covers syntactically valid responses whose
	// business status reports failure.
	CategoryRejected ErrorCategory = "REJECTED"
	// CategoryCodec covers responses that cannot be parsed into the
	// minimally required fields. Retry-equivalent to transport errors.
	CategoryCodec ErrorCategory = "CODEC"
	// CategoryVerification covers inbound callbacks whose signature
	// does not match. Always fatal for that callback.
	CategoryVerification ErrorCategory = "VERIFICATION"
)

// GatewayError is the structured failure returned by every outbound
// operation and by callback verification.
type GatewayError struct {
	Category ErrorCategory
	Message  string
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s", e.Category, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// CategoryOf extracts the error category, or "" when err is not a
// gateway error.
func CategoryOf(err error) ErrorCategory {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Category
	}
	return ""
}

func transportError(msg string, err error) *GatewayError {
	return &GatewayError{Category: CategoryTransport, Message: msg, Err: err}
}

func rejectedError(msg string) *GatewayError {
	return &GatewayError{Category: CategoryRejected, Message: msg}
}

func codecError(msg string, err error) *GatewayError {
	return &GatewayError{Category: CategoryCodec, Message: msg, Err: err}
}
