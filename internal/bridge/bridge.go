package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hausops/mstodo/internal/auth"
	"github.com/hausops/mstodo/internal/logging"
	"github.com/hausops/mstodo/internal/todo"
)

// Config assembles the bridge's collaborators and settings.
type Config struct {
	// Session supplies authentication state and authenticated transports.
	Session *auth.Session

	// Interval is how often entities are polled.
	Interval time.Duration

	// Location is the zone used for due-date comparisons.
	Location *time.Location

	// SensorLists are list names that get a count sensor entity.
	SensorLists []string

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// ClientOptions are applied to every task client the bridge creates.
	// Tests use this to point at a fake provider.
	ClientOptions []todo.ClientOption
}

// Bridge connects the task API to the entity registry: it discovers lists
// once authenticated, polls them on the interval, and rebuilds everything
// when a new authorization completes.
type Bridge struct {
	session     *auth.Session
	registry    *Registry
	interval    time.Duration
	loc         *time.Location
	sensorLists []string
	log         *slog.Logger
	clientOpts  []todo.ClientOption

	mu       sync.Mutex
	client   *todo.Client
	entities []Entity

	reinit chan struct{}
}

// New creates a Bridge. Run must be called to start polling.
func New(cfg Config) *Bridge {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Bridge{
		session:     cfg.Session,
		registry:    NewRegistry(),
		interval:    interval,
		loc:         loc,
		sensorLists: cfg.SensorLists,
		log:         logging.WithService(log, "bridge"),
		clientOpts:  cfg.ClientOptions,
		reinit:      make(chan struct{}, 1),
	}
}

// Run drives the bridge until the context is canceled. It initializes
// immediately, then polls on the interval, and re-initializes whenever
// NotifyAuthorized fires.
func (b *Bridge) Run(ctx context.Context) error {
	b.initialize(ctx)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.reinit:
			b.initialize(ctx)
		case <-ticker.C:
			b.poll(ctx)
		}
	}
}

// NotifyAuthorized asks the bridge to rebuild its entities against a fresh
// authorization. Safe to call from any goroutine; signals are coalesced.
func (b *Bridge) NotifyAuthorized() {
	select {
	case b.reinit <- struct{}{}:
	default:
	}
}

// CreateTask creates a remote task through the current client. Before the
// first authorization it fails with auth.ErrAuthorizationPending.
func (b *Bridge) CreateTask(ctx context.Context, nt todo.NewTask) (*todo.Task, error) {
	b.mu.Lock()
	client := b.client
	b.mu.Unlock()

	if client == nil {
		if b.session.State() == auth.StateReauthRequired {
			return nil, auth.ErrReauthRequired
		}
		return nil, auth.ErrAuthorizationPending
	}
	return client.CreateTask(ctx, nt)
}

// States returns all published entity states.
func (b *Bridge) States() []State {
	return b.registry.All()
}

// State returns one entity state by ID.
func (b *Bridge) State(entityID string) (State, bool) {
	return b.registry.Get(entityID)
}

func (b *Bridge) initialize(ctx context.Context) {
	if state := b.session.State(); state != auth.StateAuthenticated {
		b.log.Info("waiting for authorization, open the link to connect your Microsoft account",
			slog.String("auth_state", state.String()),
			slog.String("url", b.session.AuthCodeURL()))
		return
	}

	client := todo.NewClient(b.session.Client(ctx), b.clientOpts...)

	lists, err := client.GetLists(ctx)
	if err != nil {
		b.handleUpdateError(err)
		return
	}

	var entities []Entity
	for _, list := range lists {
		name := todo.StripIconPrefix(list.Name)
		entities = append(entities, NewListCalendar(client, list.ID, name, b.loc, b.log))
	}
	for _, want := range b.sensorLists {
		listID, name, ok := matchList(lists, want)
		if !ok {
			b.log.Warn("configured sensor list does not exist", logging.List(want))
			continue
		}
		entities = append(entities, NewListSensor(client, listID, name, b.log))
	}

	b.mu.Lock()
	b.client = client
	b.entities = entities
	b.mu.Unlock()

	b.log.Info("entities initialized",
		slog.Int("lists", len(lists)),
		slog.Int("entities", len(entities)))

	b.poll(ctx)
}

func (b *Bridge) poll(ctx context.Context) {
	b.mu.Lock()
	entities := make([]Entity, len(b.entities))
	copy(entities, b.entities)
	b.mu.Unlock()

	if len(entities) == 0 {
		return
	}

	status := logging.StatusSuccess
	for _, entity := range entities {
		st, err := entity.Update(ctx)
		if err != nil {
			status = logging.StatusError
			entityUpdates.WithLabelValues(logging.StatusError).Inc()
			if b.handleUpdateError(err) {
				// Credentials are gone; the rest of the cycle would fail too.
				break
			}
			b.log.Error("entity update failed",
				logging.Entity(entity.EntityID()),
				logging.Err(err))
			continue
		}
		st.LastUpdated = time.Now()
		b.registry.Set(st)
		entityUpdates.WithLabelValues(logging.StatusSuccess).Inc()
	}
	pollCycles.WithLabelValues(status).Inc()
}

// handleUpdateError reacts to credential failures by discarding the stored
// token and surfacing a fresh authorization URL; every other error is left
// for the caller to log. Reports whether the error was a credential failure.
func (b *Bridge) handleUpdateError(err error) bool {
	var apiErr *todo.APIError
	switch {
	case errors.Is(err, auth.ErrReauthRequired):
		// The session already invalidated itself during refresh.
	case errors.As(err, &apiErr) && apiErr.InvalidAuthentication():
		b.session.Invalidate()
	case errors.Is(err, auth.ErrAuthorizationPending):
		b.log.Info("not authorized yet", slog.String("url", b.session.AuthCodeURL()))
		return true
	default:
		return false
	}

	b.mu.Lock()
	b.client = nil
	b.entities = nil
	b.mu.Unlock()

	b.log.Warn("authorization no longer valid, open the link to re-connect your Microsoft account",
		slog.String("url", b.session.AuthCodeURL()))
	return true
}

func matchList(lists []todo.TaskList, want string) (id, name string, ok bool) {
	stripped := todo.StripIconPrefix(want)
	for _, list := range lists {
		if name := todo.StripIconPrefix(list.Name); name == stripped {
			return list.ID, name, true
		}
	}
	return "", "", false
}
