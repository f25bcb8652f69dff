package bridge

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/hausops/mstodo/internal/logging"
	"github.com/hausops/mstodo/internal/todo"
)

// ListSensor is a count sensor for one task folder: its state is the number
// of uncompleted tasks.
type ListSensor struct {
	client *todo.Client
	listID string
	name   string
	log    *slog.Logger
}

// NewListSensor creates a sensor entity for a task folder.
func NewListSensor(client *todo.Client, listID, name string, log *slog.Logger) *ListSensor {
	return &ListSensor{
		client: client,
		listID: listID,
		name:   name,
		log:    log,
	}
}

// EntityID implements Entity.
func (s *ListSensor) EntityID() string {
	return "sensor.mstodo_" + Slugify(s.name)
}

// Name returns the display name of the backing list.
func (s *ListSensor) Name() string {
	return s.name
}

// Update implements Entity.
func (s *ListSensor) Update(ctx context.Context) (State, error) {
	page, err := s.client.GetUncompletedTasks(ctx, s.listID)
	if err != nil {
		return State{}, err
	}

	count := page.TotalCount()
	s.log.Debug("sensor updated", logging.Entity(s.EntityID()), slog.Int("count", count))

	return State{
		EntityID: s.EntityID(),
		State:    strconv.Itoa(count),
		Attributes: map[string]interface{}{
			"friendly_name": s.name,
			"icon":          "mdi:counter",
		},
	}, nil
}
