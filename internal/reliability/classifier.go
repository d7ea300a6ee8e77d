// Package reliability classifies remote agent failures.
package reliability

import (
	"context"
	"errors"
	"net"

	"github.com/ent0n29/contactcenter/internal/agentcore"
)

// Cause labels why a remote call failed.
type Cause string

const (
	CauseTimeout     Cause = "timeout"
	CauseCanceled    Cause = "canceled"
	CauseDisabled    Cause = "disabled"
	CauseRateLimited Cause = "rate_limited"
	CauseUpstream    Cause = "upstream"
	CauseRejected    Cause = "rejected"
	CauseNetwork     Cause = "network"
	CauseOther       Cause = "other"
)

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Classify maps err to a bounded set of causes suitable for metric labels.
func Classify(err error) Cause {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CauseTimeout
	}
	if errors.Is(err, context.Canceled) {
		return CauseCanceled
	}
	if errors.Is(err, agentcore.ErrDisabled) {
		return CauseDisabled
	}

	var statusErr *agentcore.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == 429:
			return CauseRateLimited
		case IsRetryableHTTPStatus(statusErr.StatusCode), statusErr.StatusCode >= 500:
			return CauseUpstream
		default:
			return CauseRejected
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CauseTimeout
		}
		return CauseNetwork
	}
	return CauseOther
}

// Transient reports whether the same call could succeed on a later turn.
func Transient(cause Cause) bool {
	switch cause {
	case CauseTimeout, CauseRateLimited, CauseUpstream, CauseNetwork:
		return true
	default:
		return false
	}
}
