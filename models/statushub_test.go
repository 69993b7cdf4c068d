package models

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// fakeJobSource serves a fixed set of jobs for snapshot replay
type fakeJobSource struct {
	jobs map[string]*AnalysisJob
}

func (s *fakeJobSource) GetJob(jobID string) (*AnalysisJob, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	return job, nil
}

// hubServer exposes a hub over a real WebSocket endpoint so tests exercise
// the same write path the server does
func hubServer(t *testing.T, hub *StatusHub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		hub.RegisterClient(conn, r.URL.Query().Get("job_id"))
	}))
}

func dialHub(t *testing.T, ts *httptest.Server, jobID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/?job_id=" + jobID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) (JobUpdate, error) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var update JobUpdate
	err := conn.ReadJSON(&update)
	return update, err
}

func TestHubSnapshotThenLiveUpdate(t *testing.T) {
	job := &AnalysisJob{ID: "job-1", Status: StatusProcessing, CreatedAt: time.Now()}
	source := &fakeJobSource{jobs: map[string]*AnalysisJob{"job-1": job}}

	hub := NewStatusHub(source, nil)
	hub.Start()
	ts := hubServer(t, hub)
	defer ts.Close()

	conn := dialHub(t, ts, "job-1")
	defer conn.Close()

	snapshot, err := readUpdate(t, conn)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if snapshot.Status != StatusProcessing {
		t.Errorf("snapshot should show current state, got %s", snapshot.Status)
	}

	job.Status = StatusCompleted
	job.Result = json.RawMessage(`{"title":"Standup"}`)
	hub.BroadcastJobUpdate(job)

	update, err := readUpdate(t, conn)
	if err != nil {
		t.Fatalf("reading live update: %v", err)
	}
	if update.Status != StatusCompleted {
		t.Errorf("expected completed update, got %s", update.Status)
	}
	if string(update.Result) != `{"title":"Standup"}` {
		t.Errorf("result missing from terminal update: %s", update.Result)
	}

	// Terminal delivered; the hub closes the connection normally
	if _, err := readUpdate(t, conn); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal close after terminal update, got %v", err)
	}
}

func TestHubReplaysTerminalToLateSubscriber(t *testing.T) {
	job := &AnalysisJob{
		ID:           "job-1",
		Status:       StatusFailed,
		ErrorMessage: "no utterances found in transcript",
	}
	source := &fakeJobSource{jobs: map[string]*AnalysisJob{"job-1": job}}

	hub := NewStatusHub(source, nil)
	hub.Start()
	ts := hubServer(t, hub)
	defer ts.Close()

	conn := dialHub(t, ts, "job-1")
	defer conn.Close()

	snapshot, err := readUpdate(t, conn)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if snapshot.Status != StatusFailed {
		t.Errorf("late subscriber should get the terminal state, got %s", snapshot.Status)
	}
	if snapshot.Error != "no utterances found in transcript" {
		t.Errorf("unexpected error detail %q", snapshot.Error)
	}

	if _, err := readUpdate(t, conn); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal close after terminal snapshot, got %v", err)
	}
}

func TestHubFansOutAcrossRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	job := &AnalysisJob{ID: "job-1", Status: StatusProcessing, CreatedAt: time.Now()}
	source := &fakeJobSource{jobs: map[string]*AnalysisJob{"job-1": job}}

	// Two hubs sharing one Redis, as two server replicas would
	publisher := NewStatusHub(source, redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	subscriber := NewStatusHub(source, redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	publisher.Start()
	subscriber.Start()

	ts := hubServer(t, subscriber)
	defer ts.Close()

	conn := dialHub(t, ts, "job-1")
	defer conn.Close()

	if _, err := readUpdate(t, conn); err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}

	job.Status = StatusCompleted
	job.Result = json.RawMessage(`{}`)

	got := make(chan JobUpdate, 1)
	go func() {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var update JobUpdate
		if err := conn.ReadJSON(&update); err == nil {
			got <- update
		}
	}()

	// The subscriber loop attaches to the pub/sub channel asynchronously;
	// republish until the update comes through. Terminal updates are only
	// delivered once per connection, so retries are harmless.
	deadline := time.After(2 * time.Second)
	for {
		publisher.BroadcastJobUpdate(job)
		select {
		case update := <-got:
			if update.Status != StatusCompleted {
				t.Errorf("expected completed update across Redis, got %s", update.Status)
			}
			return
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("update never arrived through the Redis bridge")
		}
	}
}
