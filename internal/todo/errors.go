package todo

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ValidationError reports caller-supplied parameters rejected before any
// network call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Msg
}

// NotFoundError reports a list lookup miss.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no task list named %q", e.Name)
}

// TransientError marks a failure that exhausted the transport's retry
// budget (connection errors and retryable 5xx statuses). The operation may
// succeed if retried later as a whole.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient failure: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx provider response that is not classified as
// transient. Code and Message come from the Graph error body when it is
// parseable; Body always holds the raw payload for logging.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, string(e.Body))
}

// InvalidAuthentication reports whether the provider rejected the
// credentials themselves, as opposed to a generic failure. Callers use this
// to trigger re-authorization instead of a blind retry.
func (e *APIError) InvalidAuthentication() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// graphErrorBody mirrors the Graph API error envelope.
type graphErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newAPIError classifies a non-2xx response body into an *APIError.
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Body: body}
	var parsed graphErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Code = parsed.Error.Code
		apiErr.Message = parsed.Error.Message
	}
	return apiErr
}
