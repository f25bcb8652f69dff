package bridge

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hausops/mstodo/internal/logging"
	"github.com/hausops/mstodo/internal/todo"
)

// ListCalendar is a calendar-style entity for one task folder. Its
// attributes expose the uncompleted task subjects grouped into all,
// due-today and overdue.
type ListCalendar struct {
	client *todo.Client
	listID string
	name   string
	loc    *time.Location
	log    *slog.Logger
}

// NewListCalendar creates a calendar entity for a task folder. The name
// should already have its icon prefix stripped.
func NewListCalendar(client *todo.Client, listID, name string, loc *time.Location, log *slog.Logger) *ListCalendar {
	return &ListCalendar{
		client: client,
		listID: listID,
		name:   name,
		loc:    loc,
		log:    log,
	}
}

// EntityID implements Entity.
func (c *ListCalendar) EntityID() string {
	return "calendar.mstodo_" + Slugify(c.name)
}

// Name returns the display name of the backing list.
func (c *ListCalendar) Name() string {
	return c.name
}

// Update implements Entity.
func (c *ListCalendar) Update(ctx context.Context) (State, error) {
	page, err := c.client.GetUncompletedTasks(ctx, c.listID)
	if err != nil {
		return State{}, err
	}

	today := dateOf(time.Now().In(c.loc))
	all := make([]string, 0, len(page.Value))
	dueToday := []string{}
	overdue := []string{}

	for _, task := range page.Value {
		all = append(all, task.Subject)

		due, ok := dueDate(task, c.loc)
		if !ok {
			continue
		}
		switch {
		case due.Equal(today):
			dueToday = append(dueToday, task.Subject)
		case due.Before(today):
			overdue = append(overdue, task.Subject)
		}
	}

	c.log.Debug("calendar updated",
		logging.Entity(c.EntityID()),
		slog.Int("tasks", len(all)),
		slog.Int("due_today", len(dueToday)),
		slog.Int("overdue", len(overdue)))

	state := "off"
	if len(all) > 0 {
		state = "on"
	}
	return State{
		EntityID: c.EntityID(),
		State:    state,
		Attributes: map[string]interface{}{
			"friendly_name":  c.name,
			"all_tasks":      all,
			"duetoday_tasks": dueToday,
			"overdue_tasks":  overdue,
		},
	}, nil
}

// dueDate extracts the calendar date of a task's due timestamp. The
// provider sends the date part as "2006-01-02" before the "T" separator.
func dueDate(task todo.Task, loc *time.Location) (time.Time, bool) {
	if task.DueDateTime == nil || task.DueDateTime.DateTime == "" {
		return time.Time{}, false
	}
	datePart, _, _ := strings.Cut(task.DueDateTime.DateTime, "T")
	due, err := time.ParseInLocation("2006-01-02", datePart, loc)
	if err != nil {
		return time.Time{}, false
	}
	return due, true
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
