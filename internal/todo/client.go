package todo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hausops/mstodo/internal/logging"
)

const (
	// DefaultBaseURL is the Graph beta outlook surface backing To Do.
	DefaultBaseURL = "https://graph.microsoft.com/beta/me/outlook"

	// DefaultPageSize caps every collection request via $top. The client
	// never follows @odata.nextLink, so callers must not assume a
	// collection at the cap is complete.
	DefaultPageSize = 100
)

// Client is a thin REST client for task folders and tasks. The HTTP client
// it is given must already handle authentication.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeZone   string
	pageSize   int
	log        *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeZone sets the IANA zone identifier attached to due dates and
// reminders. Defaults to UTC.
func WithTimeZone(tz string) ClientOption {
	return func(c *Client) { c.timeZone = tz }
}

// WithPageSize overrides the collection page cap.
func WithPageSize(n int) ClientOption {
	return func(c *Client) { c.pageSize = n }
}

// WithClientLogger sets the logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient creates a task API client on top of an authenticated HTTP client.
func NewClient(httpClient *http.Client, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
		timeZone:   "UTC",
		pageSize:   DefaultPageSize,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetLists returns the user's task folders, capped at the page size.
func (c *Client) GetLists(ctx context.Context) ([]TaskList, error) {
	q := url.Values{}
	q.Set("$top", fmt.Sprint(c.pageSize))

	var page listPage
	if err := c.get(ctx, "/taskFolders", q, &page); err != nil {
		return nil, fmt.Errorf("failed to get task lists: %w", err)
	}
	return page.Value, nil
}

// GetListIDByName resolves a task folder ID from its display name. Names are
// compared case-sensitively after stripping icon-glyph prefixes from both
// sides. A miss returns a *NotFoundError.
func (c *Client) GetListIDByName(ctx context.Context, name string) (string, error) {
	lists, err := c.GetLists(ctx)
	if err != nil {
		return "", err
	}

	want := StripIconPrefix(name)
	for _, list := range lists {
		if StripIconPrefix(list.Name) == want {
			return list.ID, nil
		}
	}
	return "", &NotFoundError{Name: name}
}

// GetUncompletedTasks returns one page of non-completed tasks for a folder.
// The response may indicate more results via NextLink; the client does not
// follow it.
func (c *Client) GetUncompletedTasks(ctx context.Context, listID string) (*TaskPage, error) {
	q := url.Values{}
	q.Set("$filter", "status ne 'completed'")
	q.Set("$top", fmt.Sprint(c.pageSize))
	q.Set("$count", "true")

	var page TaskPage
	path := "/taskFolders/" + url.PathEscape(listID) + "/tasks"
	if err := c.get(ctx, path, q, &page); err != nil {
		return nil, fmt.Errorf("failed to get uncompleted tasks: %w", err)
	}
	return &page, nil
}

// CreateTask creates a task. Validation happens before any network call;
// when a list name is given it is resolved to an ID first, and with neither
// name nor ID the task goes to the default folder.
func (c *Client) CreateTask(ctx context.Context, nt NewTask) (*Task, error) {
	if err := validateNewTask(nt); err != nil {
		return nil, err
	}

	listID := nt.ListID
	if nt.ListName != "" {
		id, err := c.GetListIDByName(ctx, nt.ListName)
		if err != nil {
			return nil, err
		}
		listID = id
	}

	task := Task{Subject: nt.Subject}
	if nt.Note != "" {
		task.Body = &ItemBody{ContentType: "Text", Content: nt.Note}
	}
	if !nt.DueDate.IsZero() {
		task.DueDateTime = c.dateTimeZone(startOfDay(nt.DueDate))
	}
	if !nt.ReminderDateTime.IsZero() {
		task.ReminderDateTime = c.dateTimeZone(nt.ReminderDateTime)
		task.IsReminderOn = true
	}

	path := "/tasks"
	if listID != "" {
		path = "/taskFolders/" + url.PathEscape(listID) + "/tasks"
	}

	var created Task
	if err := c.post(ctx, path, task, &created); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	c.log.Info("task created",
		logging.Operation("create_task"),
		slog.String("subject", nt.Subject),
		logging.List(nt.ListName))
	return &created, nil
}

func validateNewTask(nt NewTask) error {
	if nt.Subject == "" {
		return &ValidationError{Msg: "subject must not be empty"}
	}
	if nt.ListName != "" && nt.ListID != "" {
		return &ValidationError{Msg: "list_name and list_id are mutually exclusive"}
	}
	return nil
}

// dateTimeLayout is the local ISO-8601 form the provider expects inside
// dateTimeTimeZone objects; the zone travels separately.
const dateTimeLayout = "2006-01-02T15:04:05"

func (c *Client) dateTimeZone(t time.Time) *DateTimeTimeZone {
	return &DateTimeTimeZone{
		DateTime: t.Format(dateTimeLayout),
		TimeZone: c.timeZone,
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = query.Encode()
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", fmt.Sprintf("outlook.timezone=%q", c.timeZone))
	return c.do(req, out)
}

// do executes the request and decodes a 2xx response into out. Error bodies
// are always read fully so they can be logged and classified.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, body)
		c.log.Warn("api request failed",
			logging.Operation(req.Method+" "+req.URL.Path),
			slog.Int("status_code", resp.StatusCode),
			logging.Err(apiErr))
		return apiErr
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
