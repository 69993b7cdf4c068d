package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newStatusServer runs a WebSocket endpoint that hands each connection to
// the given script
func newStatusServer(t *testing.T, script func(conn *websocket.Conn)) *httptest.Server {
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
		script(conn)
	}))
}

func frame(jobID, status string, extra map[string]any) map[string]any {
	f := map[string]any{"type": "job_update", "job_id": jobID, "status": status}
	for k, v := range extra {
		f[k] = v
	}
	return f
}

func collect(t *testing.T, sub *Subscription, timeout time.Duration) []JobStatus {
	t.Helper()
	var got []JobStatus
	deadline := time.After(timeout)
	for {
		select {
		case status, ok := <-sub.Updates():
			if !ok {
				return got
			}
			got = append(got, status)
		case <-deadline:
			t.Fatalf("timed out waiting for updates, got %d so far", len(got))
		}
	}
}

func TestSubscribeDeliversRunningThenTerminal(t *testing.T) {
	ts := newStatusServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(frame("job-1", "processing", nil))
		conn.WriteJSON(frame("job-1", "completed", map[string]any{"result": map[string]any{"chapters": []any{}}}))
		conn.Close()
	})
	defer ts.Close()

	c := New(ts.URL)
	sub, err := c.Subscribe(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	got := collect(t, sub, 2*time.Second)
	if len(got) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(got))
	}
	if got[0].Kind != StatusRunning {
		t.Errorf("first update should be running, got %v", got[0].Kind)
	}
	if got[1].Kind != StatusSucceeded {
		t.Errorf("second update should be succeeded, got %v", got[1].Kind)
	}
	if got[1].Result == nil {
		t.Error("terminal success should carry the result payload")
	}
	if sub.Err() != nil {
		t.Errorf("clean terminal delivery must not report an error, got %v", sub.Err())
	}
}

func TestSubscribeAfterTerminalReplaysTerminal(t *testing.T) {
	ts := newStatusServer(t, func(conn *websocket.Conn) {
		// The job already failed before this subscriber attached; the
		// first frame is the terminal snapshot
		conn.WriteJSON(frame("job-1", "failed", map[string]any{"error": "no utterances found in transcript"}))
		conn.Close()
	})
	defer ts.Close()

	c := New(ts.URL)
	sub, err := c.Subscribe(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	got := collect(t, sub, 2*time.Second)
	if len(got) != 1 {
		t.Fatalf("expected exactly one delivered item, got %d", len(got))
	}
	if got[0].Kind != StatusFailed {
		t.Errorf("expected failed, got %v", got[0].Kind)
	}
	if got[0].Reason != "no utterances found in transcript" {
		t.Errorf("unexpected failure reason %q", got[0].Reason)
	}
}

func TestUnsubscribeTwiceIsNoOp(t *testing.T) {
	ts := newStatusServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(frame("job-1", "processing", nil))
		// Keep the connection open until the client drops it
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer ts.Close()

	c := New(ts.URL)
	sub, err := c.Subscribe(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	select {
	case <-sub.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
	}

	sub.Unsubscribe()
	sub.Unsubscribe() // second call must be a no-op, not a panic or error

	// Stream drains without a terminal and without a disconnect error
	collect(t, sub, 2*time.Second)
	if sub.Err() != nil {
		t.Errorf("unsubscribe is not a channel fault, got %v", sub.Err())
	}
}

func TestChannelDisconnectIsDistinctFromJobFailure(t *testing.T) {
	ts := newStatusServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(frame("job-1", "processing", nil))
		// Abrupt close with no terminal status: the channel broke, the
		// job did not
		conn.Close()
	})
	defer ts.Close()

	c := New(ts.URL)
	sub, err := c.Subscribe(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	got := collect(t, sub, 2*time.Second)
	for _, status := range got {
		if status.IsTerminal() {
			t.Fatalf("disconnect must not synthesize a terminal status, got %v", status.Kind)
		}
	}
	if !errors.Is(sub.Err(), ErrChannelDisconnected) {
		t.Errorf("expected ErrChannelDisconnected, got %v", sub.Err())
	}
}
