package auth

import (
	"errors"
	"fmt"
)

// ErrAuthorizationPending indicates no usable token exists yet. The caller
// should surface the authorization URL to the user instead of failing hard.
var ErrAuthorizationPending = errors.New("no authorization yet, please link your Microsoft account")

// ErrReauthRequired indicates the stored refresh token was rejected by the
// provider and a fresh authorization-code flow is required.
var ErrReauthRequired = errors.New("authorization is no longer valid, re-authorization required")

// TokenExchangeError reports a rejected grant at the token endpoint.
// Grant names the grant type that failed ("authorization_code" or
// "refresh_token").
type TokenExchangeError struct {
	Grant string
	Err   error
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("%s grant rejected: %v", e.Grant, e.Err)
}

func (e *TokenExchangeError) Unwrap() error {
	return e.Err
}
