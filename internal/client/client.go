// Package client is a Go client for the status board API. It
// implements the board session's store surface over HTTP and exposes
// the websocket change feed, so terminal tools can hold a live board
// session against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	apierrors "github.com/devtrackhq/statusboard/internal/errors"
	"github.com/devtrackhq/statusboard/internal/events"
	"github.com/devtrackhq/statusboard/internal/models"
	"github.com/devtrackhq/statusboard/internal/sync"
)

// Client talks to one status board server. The session cookie from
// Login lives in the underlying cookie jar, so a single client serves
// both the REST calls and the websocket feed.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ sync.Store = (*Client)(nil)

// New creates a client for the server at baseURL.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar},
	}, nil
}

// Login authenticates and stores the session cookie for later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(ctx, http.MethodPost, "/api/auth/login", body, nil)
}

// TasksByProject fetches one project's tasks with assignee views.
func (c *Client) TasksByProject(ctx context.Context, projectID uint64) ([]models.Task, error) {
	var resp struct {
		Tasks []models.Task `json:"tasks"`
	}
	path := fmt.Sprintf("/api/projects/%d/tasks", projectID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// AllTasks fetches the unscoped task set with assignee views.
func (c *Client) AllTasks(ctx context.Context) ([]models.Task, error) {
	var resp struct {
		Tasks []models.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tasks/all", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// SubmitBatch sends a flushed ledger to the bulk update endpoint as
// sparse per-row updates.
func (c *Client) SubmitBatch(ctx context.Context, records []sync.BatchRecord) error {
	body := map[string]interface{}{"tasks": records}
	return c.do(ctx, http.MethodPut, "/api/tasks/bulk", body, nil)
}

type createTaskRequest struct {
	ProjectID   uint64            `json:"projectId"`
	Title       string            `json:"title"`
	Phase       string            `json:"phase,omitempty"`
	Weight      models.TaskWeight `json:"weight,omitempty"`
	Status      models.TaskStatus `json:"status,omitempty"`
	StartDate   models.Date       `json:"startDate"`
	TargetDate  models.Date       `json:"targetDate"`
	EndDate     *models.Date      `json:"endDate,omitempty"`
	Color       string            `json:"color,omitempty"`
	AssigneeIDs []uint64          `json:"assigneeIds,omitempty"`
}

// CreateTask persists a new task outside the batch path.
func (c *Client) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	body := createTaskRequest{
		ProjectID:   task.ProjectID,
		Title:       task.Title,
		Phase:       task.Phase,
		Weight:      task.Weight,
		Status:      task.Status,
		StartDate:   task.StartDate,
		TargetDate:  task.TargetDate,
		EndDate:     task.EndDate,
		Color:       task.Color,
		AssigneeIDs: task.AssigneeIDs,
	}
	var created models.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", body, &created); err != nil {
		return models.Task{}, err
	}
	return created, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, nil)
}

// StreamEvents dials the websocket change feed and republishes every
// decoded event onto the bus until the context is cancelled or the
// connection drops. Presence notices are transport chatter and are
// not republished.
func (c *Client) StreamEvents(ctx context.Context, bus *events.Bus) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = "/api/ws"

	dialer := websocket.Dialer{Jar: c.http.Jar}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial change feed: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial change feed: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var env events.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read change feed: %w", err)
		}
		switch env.Event {
		case events.NamePresenceOnline, events.NamePresenceOffline:
			continue
		}
		e, err := events.Decode(env)
		if err != nil {
			log.Printf("client: skipping feed event: %v", err)
			continue
		}
		bus.Publish(e)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apierrors.APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: %w", method, path, &apiErr)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
