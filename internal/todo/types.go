package todo

import "time"

// TaskList is a task folder as returned by the provider.
type TaskList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ItemBody is the rich-text body of a task.
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// DateTimeTimeZone is the provider's timestamp representation: a local
// ISO-8601 timestamp paired with an explicit time-zone identifier.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Task is an outlook task. Only the fields the bridge reads or writes are
// modeled; unknown provider fields are ignored on decode and omitted on
// encode.
type Task struct {
	ID               string            `json:"id,omitempty"`
	Subject          string            `json:"subject"`
	Status           string            `json:"status,omitempty"`
	Body             *ItemBody         `json:"body,omitempty"`
	DueDateTime      *DateTimeTimeZone `json:"dueDateTime,omitempty"`
	ReminderDateTime *DateTimeTimeZone `json:"reminderDateTime,omitempty"`
	IsReminderOn     bool              `json:"isReminderOn,omitempty"`
}

// TaskPage is one page of tasks. NextLink being set means the collection
// exceeds the page cap; the client does not follow it.
type TaskPage struct {
	Count    int    `json:"@odata.count"`
	NextLink string `json:"@odata.nextLink,omitempty"`
	Value    []Task `json:"value"`
}

// TotalCount returns the server-side collection count when present,
// falling back to the number of returned tasks.
func (p *TaskPage) TotalCount() int {
	if p.Count > 0 {
		return p.Count
	}
	return len(p.Value)
}

type listPage struct {
	Value []TaskList `json:"value"`
}

// NewTask describes a task to create. Exactly one of ListName and ListID may
// be set; with neither, the task goes to the provider's default folder.
type NewTask struct {
	Subject          string
	ListName         string
	ListID           string
	Note             string
	DueDate          time.Time // date-only; time of day is ignored
	ReminderDateTime time.Time
}
