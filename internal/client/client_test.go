package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devtrackhq/statusboard/internal/events"
	"github.com/devtrackhq/statusboard/internal/models"
	"github.com/devtrackhq/statusboard/internal/sync"
)

func boardTask(id uint64, title string) models.Task {
	return models.Task{
		ID:         id,
		ProjectID:  1,
		Title:      title,
		Status:     models.TaskStatusPending,
		Weight:     models.TaskWeightLight,
		Color:      "#4E79A7",
		StartDate:  models.NewDate(2026, time.March, 2),
		TargetDate: models.NewDate(2026, time.March, 16),
	}
}

func TestLoginStoresSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "lead", body.Username)
		assert.Equal(t, "hunter22", body.Password)

		http.SetCookie(w, &http.Cookie{Name: "board_session", Value: "abc", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":1,"username":"lead"}`))
	})
	mux.HandleFunc("/api/tasks/all", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("board_session")
		if err != nil || cookie.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":"UNAUTHORIZED","message":"Not authenticated"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"tasks": []models.Task{boardTask(1, "Design review")},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	// Before login the feed endpoint rejects us.
	_, err = c.AllTasks(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not authenticated")

	require.NoError(t, c.Login(ctx, "lead", "hunter22"))

	tasks, err := c.AllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Design review", tasks[0].Title)
}

func TestTasksByProjectDecodesList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects/7/tasks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"tasks": []models.Task{boardTask(1, "One"), boardTask(2, "Two")},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	tasks, err := c.TasksByProject(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, uint64(2), tasks[1].ID)
}

func TestSubmitBatchSendsSparseRows(t *testing.T) {
	var rows []map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks/bulk", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body struct {
			Tasks []map[string]interface{} `json:"tasks"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		rows = body.Tasks
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"updated":1,"tasks":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	title := "Renamed"
	err = c.SubmitBatch(context.Background(), []sync.BatchRecord{
		{ID: 3, TaskPatch: models.TaskPatch{Title: &title}},
	})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	// Only the id and the single set field go over the wire.
	assert.Len(t, rows[0], 2)
	assert.Equal(t, float64(3), rows[0]["id"])
	assert.Equal(t, "Renamed", rows[0]["title"])
}

func TestErrorResponsesSurfaceAPIMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks/42", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"NOT_FOUND","message":"task not found"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	err = c.DeleteTask(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task not found")
}

func TestSessionFlushesThroughBulkEndpoint(t *testing.T) {
	var rows []map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects/1/tasks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"tasks": []models.Task{boardTask(1, "One"), boardTask(2, "Two")},
		})
	})
	mux.HandleFunc("/api/tasks/bulk", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Tasks []map[string]interface{} `json:"tasks"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		rows = body.Tasks
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"updated":2,"tasks":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	session := sync.NewSession(c, sync.Options{})
	require.NoError(t, session.LoadProject(ctx, 1))

	title := "One, renamed"
	status := models.TaskStatusInProgress
	session.UpdateTaskLocally(1, models.TaskPatch{Title: &title})
	session.UpdateTaskLocally(2, models.TaskPatch{Status: &status})
	require.NoError(t, session.SaveAllChanges(ctx))

	require.Len(t, rows, 2)
	assert.Equal(t, float64(1), rows[0]["id"])
	assert.Equal(t, "One, renamed", rows[0]["title"])
	assert.Equal(t, float64(2), rows[1]["id"])
	assert.Equal(t, "inprogress", rows[1]["status"])
	assert.False(t, session.HasPendingChanges())
}

func TestStreamEventsRepublishesDecodedEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Presence chatter first, then a real change event.
		conn.WriteJSON(events.Envelope{
			Event:   events.NamePresenceOnline,
			Payload: json.RawMessage(`{"client_id":"x","developer":"lead"}`),
		})
		env, err := events.Encode(events.TaskDeleted{TaskID: 7})
		if err != nil {
			return
		}
		conn.WriteJSON(env)

		// Hold the connection open until the client hangs up.
		conn.ReadMessage()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	bus := events.NewBus()
	sub := bus.Subscribe(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.StreamEvents(ctx, bus)

	select {
	case e := <-sub.C:
		deleted, ok := e.(events.TaskDeleted)
		require.True(t, ok, "expected a task deletion, got %T", e)
		assert.Equal(t, uint64(7), deleted.TaskID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event republished from the feed")
	}
}
