package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hausops/mstodo/internal/todo"
)

func taskServer(t *testing.T, tasks []todo.Task) *todo.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"@odata.count": len(tasks),
			"value":        tasks,
		})
	}))
	t.Cleanup(srv.Close)
	return todo.NewClient(srv.Client(), todo.WithBaseURL(srv.URL))
}

func dueOn(day time.Time) *todo.DateTimeTimeZone {
	return &todo.DateTimeTimeZone{
		DateTime: day.Format("2006-01-02T15:04:05"),
		TimeZone: "UTC",
	}
}

func TestListCalendarUpdate(t *testing.T) {
	now := time.Now().UTC()
	tasks := []todo.Task{
		{Subject: "Water plants"},
		{Subject: "Pay rent", DueDateTime: dueOn(now)},
		{Subject: "Return parcel", DueDateTime: dueOn(now.AddDate(0, 0, -2))},
		{Subject: "Plan trip", DueDateTime: dueOn(now.AddDate(0, 0, 7))},
	}
	client := taskServer(t, tasks)

	cal := NewListCalendar(client, "l1", "Groceries", time.UTC, slog.Default())
	assert.Equal(t, "calendar.mstodo_groceries", cal.EntityID())

	st, err := cal.Update(context.Background())
	require.NoError(t, err)

	assert.Equal(t, cal.EntityID(), st.EntityID)
	assert.Equal(t, "on", st.State)
	assert.Equal(t,
		[]string{"Water plants", "Pay rent", "Return parcel", "Plan trip"},
		st.Attributes["all_tasks"])
	assert.Equal(t, []string{"Pay rent"}, st.Attributes["duetoday_tasks"])
	assert.Equal(t, []string{"Return parcel"}, st.Attributes["overdue_tasks"])
	assert.Equal(t, "Groceries", st.Attributes["friendly_name"])
}

func TestListCalendarUpdateEmpty(t *testing.T) {
	client := taskServer(t, nil)

	cal := NewListCalendar(client, "l1", "Groceries", time.UTC, slog.Default())
	st, err := cal.Update(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "off", st.State)
	assert.Empty(t, st.Attributes["all_tasks"])
}

func TestListSensorUpdate(t *testing.T) {
	tasks := []todo.Task{
		{Subject: "Buy milk"},
		{Subject: "Buy bread"},
		{Subject: "Buy eggs"},
	}
	client := taskServer(t, tasks)

	sensor := NewListSensor(client, "l1", "Groceries", slog.Default())
	assert.Equal(t, "sensor.mstodo_groceries", sensor.EntityID())

	st, err := sensor.Update(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "3", st.State)
	assert.Equal(t, "Groceries", st.Attributes["friendly_name"])
	assert.Equal(t, "mdi:counter", st.Attributes["icon"])
}
