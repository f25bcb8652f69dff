package bridge

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
)

// State is a published entity state as served to the host.
type State struct {
	EntityID    string                 `json:"entity_id"`
	State       string                 `json:"state"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	LastUpdated time.Time              `json:"last_updated"`
}

// Entity is anything that can refresh itself into a State.
type Entity interface {
	// EntityID returns the stable identifier, e.g. "sensor.mstodo_groceries".
	EntityID() string

	// Update fetches fresh data and returns the resulting state.
	Update(ctx context.Context) (State, error)
}

// Registry holds the latest state of every entity. It is safe for
// concurrent use; pollers write while HTTP handlers read.
type Registry struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{states: make(map[string]State)}
}

// Set stores the state, replacing any previous state of the same entity.
func (r *Registry) Set(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[st.EntityID] = st
}

// Get returns the state of one entity.
func (r *Registry) Get(entityID string) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.states[entityID]
	return st, ok
}

// All returns every known state ordered by entity ID.
func (r *Registry) All() []State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]State, 0, len(r.states))
	for _, st := range r.states {
		all = append(all, st)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EntityID < all[j].EntityID })
	return all
}

// Slugify turns a list name into an entity-ID-safe suffix: lowercase, with
// every run of other characters collapsed into a single underscore.
func Slugify(name string) string {
	var b strings.Builder
	lastUnderscore := true // swallow leading separators
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}
