package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/hausops/mstodo/internal/logging"
)

const callbackPage = `<html><head><title>Microsoft To Do authorization</title></head><body><h1>%s</h1></body></html>`

// CallbackHandler receives the OAuth2 authorization-code redirect. The
// endpoint is unauthenticated and reachable from outside, so it is rate
// limited to blunt code-guessing attempts.
type CallbackHandler struct {
	session Authorizer
	bridge  Bridge
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewCallbackHandler creates the handler. bridge may be nil when no
// entities need rebuilding after authorization.
func NewCallbackHandler(session Authorizer, bridge Bridge, log *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		session: session,
		bridge:  bridge,
		limiter: rate.NewLimiter(rate.Limit(1), 5),
		log:     log,
	}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	log := logging.WithOperation(h.log, "authorize_callback")

	code := r.URL.Query().Get("code")
	if code == "" {
		log.Warn("callback received without an authorization code",
			logging.Status(logging.StatusError))
		h.page(w, http.StatusBadRequest, "Something went wrong, could not authorize Microsoft To Do.")
		return
	}

	if err := h.session.Exchange(r.Context(), code); err != nil {
		log.Error("authorization code exchange failed",
			logging.Status(logging.StatusError),
			logging.Err(err))
		h.page(w, http.StatusBadGateway, "Something went wrong, could not authorize Microsoft To Do.")
		return
	}

	log.Info("account authorized", logging.Status(logging.StatusSuccess))
	if h.bridge != nil {
		h.bridge.NotifyAuthorized()
	}
	h.page(w, http.StatusOK, "Microsoft To Do is authorized, you can close this window.")
}

func (h *CallbackHandler) page(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, callbackPage, msg)
}
