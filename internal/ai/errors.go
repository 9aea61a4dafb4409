// errors.go - Error taxonomy for upstream model calls

package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrCredentialMissing is returned when the provider API key is absent.
// Operator-fixable; surfaced as HTTP 500, never retried.
var ErrCredentialMissing = errors.New("ai: provider api key is not configured")

// UpstreamError wraps a non-success response from the model provider so the
// handler can attach status and body for diagnosis.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai: upstream returned status %d: %s", e.StatusCode, e.Body)
}

// IsTimeout reports whether an upstream call failed because the bounded
// per-call timeout expired.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
