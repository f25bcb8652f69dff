package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hausops/mstodo/internal/auth"
	"github.com/hausops/mstodo/internal/logging"
	"github.com/hausops/mstodo/internal/todo"
)

// dueDateLayout is the wire format for the new-task due date.
const dueDateLayout = "2006-01-02"

// NewTaskRequest is the JSON body of the new-task service call.
type NewTaskRequest struct {
	Subject          string `json:"subject"`
	ListName         string `json:"list_name,omitempty"`
	ListID           string `json:"list_id,omitempty"`
	Note             string `json:"note,omitempty"`
	DueDate          string `json:"due_date,omitempty"`
	ReminderDateTime string `json:"reminder_date_time,omitempty"`
}

// TaskHandler exposes task creation as an HTTP service.
type TaskHandler struct {
	bridge Bridge
	log    *slog.Logger
}

// NewTaskHandler creates the handler.
func NewTaskHandler(bridge Bridge, log *slog.Logger) *TaskHandler {
	return &TaskHandler{bridge: bridge, log: log}
}

func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logging.WithOperation(h.log, "new_task")

	var req NewTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	nt, err := req.toNewTask()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.bridge.CreateTask(r.Context(), nt)
	if err != nil {
		log.Error("task creation failed",
			logging.List(req.ListName),
			logging.Err(err))
		h.writeError(w, err)
		return
	}

	log.Info("task created",
		logging.Status(logging.StatusSuccess),
		slog.String("subject", task.Subject))
	writeJSON(w, http.StatusCreated, task)
}

func (req *NewTaskRequest) toNewTask() (todo.NewTask, error) {
	nt := todo.NewTask{
		Subject:  req.Subject,
		ListName: req.ListName,
		ListID:   req.ListID,
		Note:     req.Note,
	}
	if req.DueDate != "" {
		due, err := time.Parse(dueDateLayout, req.DueDate)
		if err != nil {
			return todo.NewTask{}, errors.New("due_date must be formatted as YYYY-MM-DD")
		}
		nt.DueDate = due
	}
	if req.ReminderDateTime != "" {
		reminder, err := time.Parse(time.RFC3339, req.ReminderDateTime)
		if err != nil {
			return todo.NewTask{}, errors.New("reminder_date_time must be an RFC 3339 timestamp")
		}
		nt.ReminderDateTime = reminder
	}
	return nt, nil
}

// writeError maps domain errors onto HTTP status codes.
func (h *TaskHandler) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *todo.ValidationError
		notFoundErr   *todo.NotFoundError
		apiErr        *todo.APIError
	)
	switch {
	case errors.As(err, &validationErr):
		writeJSONError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &notFoundErr):
		writeJSONError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.Is(err, auth.ErrAuthorizationPending), errors.Is(err, auth.ErrReauthRequired):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.As(err, &apiErr):
		writeJSONError(w, http.StatusBadGateway, apiErr.Error())
	default:
		writeJSONError(w, http.StatusBadGateway, "task creation failed")
	}
}
