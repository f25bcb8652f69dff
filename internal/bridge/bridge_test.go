package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/hausops/mstodo/internal/auth"
	"github.com/hausops/mstodo/internal/todo"
)

// fakeProvider serves both the token endpoint and the task API from one
// test server.
type fakeProvider struct {
	srv          *httptest.Server
	lists        []todo.TaskList
	tasks        map[string][]todo.Task
	unauthorized bool
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{tasks: make(map[string][]todo.Task)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"token_type":    "Bearer",
			"access_token":  "test-access",
			"refresh_token": "test-refresh",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("GET /taskFolders", func(w http.ResponseWriter, _ *http.Request) {
		if p.unauthorized {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"InvalidAuthenticationToken","message":"expired"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"value": p.lists})
	})
	mux.HandleFunc("GET /taskFolders/{id}/tasks", func(w http.ResponseWriter, r *http.Request) {
		if p.unauthorized {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"InvalidAuthenticationToken","message":"expired"}}`))
			return
		}
		tasks := p.tasks[r.PathValue("id")]
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"@odata.count": len(tasks),
			"value":        tasks,
		})
	})

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeProvider) session(t *testing.T, seed *auth.Token) (*auth.Session, *auth.Store) {
	t.Helper()
	store := auth.NewStore(filepath.Join(t.TempDir(), "token.json"))
	if seed != nil {
		require.NoError(t, store.Save(seed))
	}
	session, err := auth.NewSession(
		auth.Config{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/api/microsoft-todo"},
		store,
		auth.WithEndpoint(oauth2.Endpoint{
			AuthURL:   p.srv.URL + "/authorize",
			TokenURL:  p.srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}),
		auth.WithHTTPClient(p.srv.Client()),
	)
	require.NoError(t, err)
	return session, store
}

func (p *fakeProvider) bridge(session *auth.Session, sensorLists ...string) *Bridge {
	return New(Config{
		Session:     session,
		Interval:    25 * time.Millisecond,
		SensorLists: sensorLists,
		ClientOptions: []todo.ClientOption{
			todo.WithBaseURL(p.srv.URL),
		},
	})
}

func validToken() *auth.Token {
	return &auth.Token{
		AccessToken:  "seed-access",
		RefreshToken: "seed-refresh",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func TestBridgePublishesEntities(t *testing.T) {
	provider := newFakeProvider(t)
	provider.lists = []todo.TaskList{{ID: "l1", Name: "📌 Groceries"}}
	provider.tasks["l1"] = []todo.Task{{Subject: "Buy milk"}, {Subject: "Buy eggs"}}

	session, _ := provider.session(t, validToken())
	b := provider.bridge(session, "Groceries")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(b.States()) == 2
	}, 2*time.Second, 10*time.Millisecond, "calendar and sensor entities should be published")

	cal, ok := b.State("calendar.mstodo_groceries")
	require.True(t, ok)
	assert.Equal(t, "on", cal.State)
	assert.False(t, cal.LastUpdated.IsZero())

	sensor, ok := b.State("sensor.mstodo_groceries")
	require.True(t, ok)
	assert.Equal(t, "2", sensor.State)
}

func TestBridgeWaitsForAuthorizationThenInitializes(t *testing.T) {
	provider := newFakeProvider(t)
	provider.lists = []todo.TaskList{{ID: "l1", Name: "Tasks"}}

	session, _ := provider.session(t, nil)
	b := provider.bridge(session)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Run(ctx) }()

	// Without authorization no entities may appear and task creation is
	// rejected with a "please authorize" error.
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, b.States())

	_, err := b.CreateTask(ctx, todo.NewTask{Subject: "Buy milk"})
	assert.ErrorIs(t, err, auth.ErrAuthorizationPending)

	// The callback flow completes the authorization and pokes the bridge.
	require.NoError(t, session.Exchange(ctx, "auth-code"))
	b.NotifyAuthorized()

	require.Eventually(t, func() bool {
		return len(b.States()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBridgeInvalidAuthenticationForcesReauth(t *testing.T) {
	provider := newFakeProvider(t)
	provider.lists = []todo.TaskList{{ID: "l1", Name: "Tasks"}}

	session, store := provider.session(t, validToken())
	b := provider.bridge(session)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(b.States()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The provider starts rejecting the credentials.
	provider.unauthorized = true

	require.Eventually(t, func() bool {
		return session.State() == auth.StateReauthRequired
	}, 2*time.Second, 10*time.Millisecond, "401 from the task API must invalidate the session")

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, saved, "stored token must be discarded on invalid authentication")
}
