package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
	"golang.org/x/sync/singleflight"

	"github.com/hausops/mstodo/internal/logging"
)

// State describes where the session is in the credential lifecycle.
type State int

const (
	// StateUnauthenticated means no token has ever been stored.
	StateUnauthenticated State = iota
	// StateAuthenticated means a token is held; validity is verified lazily
	// on the first real request.
	StateAuthenticated
	// StateReauthRequired means the provider rejected the refresh token and
	// the user must run the authorization flow again.
	StateReauthRequired
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateReauthRequired:
		return "reauth_required"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Scopes is the narrow operational scope set used for routine API calls.
var Scopes = []string{"Tasks.ReadWrite", "Tasks.ReadWrite.Shared"}

// AuthRequestScopes is the broad scope set used when building the
// authorization URL. offline_access is requested only here: the provider
// grants a refresh token only when it is asked for explicitly, while routine
// calls should request no more than they need.
var AuthRequestScopes = []string{"Tasks.ReadWrite", "Tasks.ReadWrite.Shared", "offline_access"}

const (
	// refreshThreshold is how long before expiry a token is refreshed.
	refreshThreshold = 5 * time.Minute

	// defaultRequestTimeout bounds authenticated API requests. The provider
	// specifies no timeout; an unbounded wait would be a correctness gap.
	defaultRequestTimeout = 30 * time.Second
)

// Config carries the OAuth client registration for the session.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient sets the HTTP client used for token-endpoint calls and as
// the base for authenticated clients. This is where the retrying transport
// gets wired in.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithEndpoint overrides the provider endpoints. Used by tests.
func WithEndpoint(e oauth2.Endpoint) Option {
	return func(s *Session) { s.endpoint = e }
}

// Session owns the OAuth token for the integration. It exchanges
// authorization codes, refreshes access tokens transparently before expiry,
// persists every new token through the store, and demotes itself to
// StateReauthRequired when the provider reports an invalid grant.
//
// Refresh is single-flight: concurrent callers needing a fresh token share
// one round trip to the token endpoint and receive the same result. Racing
// refreshes could otherwise invalidate the refresh token mid-flight.
type Session struct {
	conf     *oauth2.Config // operational scopes
	authConf *oauth2.Config // authorization-request scopes (incl. offline_access)
	store    *Store
	endpoint oauth2.Endpoint

	httpClient *http.Client
	log        *slog.Logger

	mu    sync.Mutex
	state State
	token *oauth2.Token

	group singleflight.Group
}

// NewSession builds a session from the client registration and the token
// store. If the store holds a token the session starts authenticated; the
// token's validity is only verified when it is first used.
func NewSession(cfg Config, store *Store, opts ...Option) (*Session, error) {
	s := &Session{
		store:    store,
		endpoint: microsoft.AzureADEndpoint("common"),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.conf = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     s.endpoint,
		Scopes:       Scopes,
	}
	s.authConf = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     s.endpoint,
		Scopes:       AuthRequestScopes,
	}

	tok, err := store.Load()
	if err != nil {
		return nil, err
	}
	if tok != nil {
		s.state = StateAuthenticated
		s.token = tok.OAuth2Token()
	}
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AuthCodeURL returns the URL the user must visit to authorize the
// integration. It requests the broad scope set so a refresh token is granted.
func (s *Session) AuthCodeURL() string {
	return s.authConf.AuthCodeURL("state")
}

// Exchange trades an authorization code for a token, persists it, and moves
// the session to StateAuthenticated. Nothing is persisted when the exchange
// fails.
func (s *Session) Exchange(ctx context.Context, code string) error {
	tok, err := s.authConf.Exchange(s.withHTTPClient(ctx), code)
	if err != nil {
		return &TokenExchangeError{Grant: "authorization_code", Err: err}
	}
	if err := s.store.Save(FromOAuth2Token(tok)); err != nil {
		return fmt.Errorf("authorization succeeded but token could not be persisted: %w", err)
	}

	s.mu.Lock()
	s.token = tok
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.log.Info("authorization completed",
		logging.Operation("authorize"),
		slog.Time("expiry", tok.Expiry))
	return nil
}

// Token returns a valid access token, refreshing it first when it is within
// the expiry threshold. Returns ErrAuthorizationPending before the first
// authorization and ErrReauthRequired after an invalid-grant rejection.
func (s *Session) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	state, tok := s.state, s.token
	s.mu.Unlock()

	switch state {
	case StateUnauthenticated:
		return nil, ErrAuthorizationPending
	case StateReauthRequired:
		return nil, ErrReauthRequired
	}

	if tok != nil && tok.AccessToken != "" && !nearExpiry(tok) {
		return tok, nil
	}

	v, err, _ := s.group.Do("refresh", func() (interface{}, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

// Invalidate discards the stored token and forces a fresh authorization
// flow. Called when the task API rejects the credentials outside of a
// refresh attempt.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.state = StateReauthRequired
	s.token = nil
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		s.log.Error("failed to discard stored token", logging.Err(err))
	}
	s.log.Warn("credentials invalidated, re-authorization required",
		logging.Operation("invalidate"))
}

// Client returns an HTTP client that injects bearer tokens from this session
// into every request. Token refresh stays transparent to callers.
func (s *Session) Client(ctx context.Context) *http.Client {
	var base http.RoundTripper
	timeout := defaultRequestTimeout
	if s.httpClient != nil {
		base = s.httpClient.Transport
		if s.httpClient.Timeout > 0 {
			timeout = s.httpClient.Timeout
		}
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: sessionTokenSource{ctx: ctx, session: s},
			Base:   base,
		},
		Timeout: timeout,
	}
}

func (s *Session) refresh(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	tok := s.token
	s.mu.Unlock()

	// A call that queued behind a finished flight may find a fresh token.
	if tok != nil && tok.AccessToken != "" && !nearExpiry(tok) {
		return tok, nil
	}

	if tok == nil || tok.RefreshToken == "" {
		s.Invalidate()
		return nil, fmt.Errorf("no refresh token available: %w", ErrReauthRequired)
	}

	// Hand the token source only the refresh token; a near-expiry access
	// token would otherwise be considered still valid and returned as-is.
	src := s.conf.TokenSource(s.withHTTPClient(ctx), &oauth2.Token{RefreshToken: tok.RefreshToken})
	newTok, err := src.Token()
	if err != nil {
		if isInvalidGrant(err) {
			s.Invalidate()
			tokenRefreshes.WithLabelValues("invalid_grant").Inc()
			return nil, &TokenExchangeError{
				Grant: "refresh_token",
				Err:   fmt.Errorf("%w: %w", ErrReauthRequired, err),
			}
		}
		tokenRefreshes.WithLabelValues(logging.StatusError).Inc()
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if newTok.RefreshToken == "" {
		// The provider may omit the refresh token on renewal; keep the old one.
		newTok.RefreshToken = tok.RefreshToken
	}

	if err := s.store.Save(FromOAuth2Token(newTok)); err != nil {
		return nil, fmt.Errorf("refreshed token could not be persisted: %w", err)
	}

	s.mu.Lock()
	s.token = newTok
	s.mu.Unlock()

	tokenRefreshes.WithLabelValues(logging.StatusSuccess).Inc()
	s.log.Debug("access token refreshed",
		logging.Operation("token_refresh"),
		slog.Time("expiry", newTok.Expiry))
	return newTok, nil
}

func (s *Session) withHTTPClient(ctx context.Context) context.Context {
	if s.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	return ctx
}

// nearExpiry reports whether the token is expired or will expire within the
// refresh threshold. Tokens without expiry never report near-expiry.
func nearExpiry(tok *oauth2.Token) bool {
	if tok.Expiry.IsZero() {
		return false
	}
	return time.Now().Add(refreshThreshold).After(tok.Expiry)
}

// isInvalidGrant reports whether a token-endpoint error means the refresh
// token itself is no longer usable.
func isInvalidGrant(err error) bool {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return false
	}
	if re.ErrorCode == "invalid_grant" {
		return true
	}
	// Older deployments omit the structured error code.
	return strings.Contains(string(re.Body), "invalid_grant")
}

type sessionTokenSource struct {
	ctx     context.Context
	session *Session
}

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	return ts.session.Token(ts.ctx)
}
