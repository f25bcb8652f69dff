package todo

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Transport retry policy: connection failures and retryable server statuses
// get a small fixed retry budget with exponential backoff. Only these
// statuses are safe to retry blindly.
const (
	maxRetries           = 3
	retryInitialInterval = 250 * time.Millisecond
	retryMaxInterval     = 2 * time.Second
)

func retryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// RetryTransport is an http.RoundTripper that retries connection errors and
// retryable 5xx responses with bounded exponential backoff. Requests whose
// body cannot be replayed are passed through without retrying.
//
// A failure that survives the whole budget is returned as a *TransientError
// so callers can tell "retry the operation later" apart from a provider
// rejection.
type RetryTransport struct {
	// Base is the underlying transport; http.DefaultTransport when nil.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if req.Body != nil && req.GetBody == nil {
		return base.RoundTrip(req)
	}

	attempt := func() (*http.Response, error) {
		r := req
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, backoff.Permanent(fmt.Errorf("failed to rewind request body: %w", err))
			}
			r = req.Clone(req.Context())
			r.Body = body
		}

		resp, err := base.RoundTrip(r)
		if err != nil {
			// Connection-level failure; retryable.
			return nil, err
		}
		if retryableStatus(resp.StatusCode) {
			status := resp.Status
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("server returned %s", status)
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	bo.MaxInterval = retryMaxInterval

	resp, err := backoff.Retry(req.Context(), attempt,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(maxRetries+1))
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	return resp, nil
}
