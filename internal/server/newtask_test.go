package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hausops/mstodo/internal/auth"
	"github.com/hausops/mstodo/internal/todo"
)

func postNewTask(t *testing.T, fb *fakeBridge, body string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewTaskHandler(fb, slog.Default())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/services/new_task", strings.NewReader(body))
	handler.ServeHTTP(rec, req)
	return rec
}

func TestNewTaskCreates(t *testing.T) {
	fb := &fakeBridge{}
	rec := postNewTask(t, fb, `{
		"subject": "Buy milk",
		"list_name": "Groceries",
		"note": "2 liters",
		"due_date": "2026-09-01",
		"reminder_date_time": "2026-08-31T18:00:00Z"
	}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "Buy milk")

	require.Len(t, fb.created, 1)
	nt := fb.created[0]
	assert.Equal(t, "Buy milk", nt.Subject)
	assert.Equal(t, "Groceries", nt.ListName)
	assert.Equal(t, "2 liters", nt.Note)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), nt.DueDate)
	assert.Equal(t, time.Date(2026, 8, 31, 18, 0, 0, 0, time.UTC), nt.ReminderDateTime)
}

func TestNewTaskBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"subject": `},
		{"bad due date", `{"subject": "x", "due_date": "01.09.2026"}`},
		{"bad reminder", `{"subject": "x", "reminder_date_time": "tomorrow"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeBridge{}
			rec := postNewTask(t, fb, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, fb.created, "invalid requests must not reach the bridge")
		})
	}
}

func TestNewTaskErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &todo.ValidationError{Msg: "subject must not be empty"}, http.StatusBadRequest},
		{"unknown list", &todo.NotFoundError{Name: "Groceries"}, http.StatusNotFound},
		{"not authorized yet", auth.ErrAuthorizationPending, http.StatusConflict},
		{"reauth required", auth.ErrReauthRequired, http.StatusConflict},
		{"provider error", &todo.APIError{StatusCode: 503, Code: "ServiceUnavailable"}, http.StatusBadGateway},
		{"transient", &todo.TransientError{Err: assert.AnError}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeBridge{createErr: tt.err}
			rec := postNewTask(t, fb, `{"subject": "Buy milk"}`)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
