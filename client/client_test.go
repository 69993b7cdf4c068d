package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testSubmission() JobSubmission {
	return JobSubmission{
		Payload:  []byte("WEBVTT\n\n00:00:01.000 --> 00:00:04.000\n<v Alice>Hello everyone\n"),
		Filename: "standup.vtt",
		OwnerID:  "user-1",
	}
}

func TestSubmitAcceptedBeforeBudget(t *testing.T) {
	var receivedJobID string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		receivedJobID = r.FormValue("job_id")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": receivedJobID, "status": "pending"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	outcome := c.Submit(context.Background(), testSubmission())

	if outcome.Kind != OutcomeAccepted {
		t.Fatalf("expected accepted, got %v", outcome.Kind)
	}
	if _, err := uuid.Parse(receivedJobID); err != nil {
		t.Errorf("client did not send a valid correlation id: %q", receivedJobID)
	}
	if outcome.JobID != receivedJobID {
		t.Errorf("outcome id %q does not match submitted correlation id %q", outcome.JobID, receivedJobID)
	}
}

func TestSubmitRejectedWithDetail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"unsupported file type"}`))
	}))
	defer ts.Close()

	c := New(ts.URL)
	outcome := c.Submit(context.Background(), testSubmission())

	if outcome.Kind != OutcomeRejected {
		t.Fatalf("expected rejected, got %v", outcome.Kind)
	}
	if outcome.Status != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", outcome.Status)
	}
	if outcome.Detail != "unsupported file type" {
		t.Errorf("expected detail from body, got %q", outcome.Detail)
	}
}

func TestSubmitTimeoutIsPendingUnknown(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Server keeps working long past the client's budget
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	c := New(ts.URL)
	c.WaitBudget = 50 * time.Millisecond

	start := time.Now()
	outcome := c.Submit(context.Background(), testSubmission())
	elapsed := time.Since(start)

	if outcome.Kind != OutcomePendingUnknown {
		t.Fatalf("expected pending-unknown, got %v", outcome.Kind)
	}
	if outcome.Fault != FaultTimeout {
		t.Errorf("expected timeout fault, got %v", outcome.Fault)
	}
	if outcome.JobID == "" {
		t.Error("pending outcome must keep the correlation id")
	}
	if elapsed > 2*time.Second {
		t.Errorf("Submit should return at the wait budget, took %v", elapsed)
	}
}

func TestSubmitConnectionResetIsPendingUnknown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Kill the connection before writing any response
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer is not a hijacker")
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Errorf("hijack failed: %v", err)
			return
		}
		conn.Close()
	}))
	defer ts.Close()

	c := New(ts.URL)
	outcome := c.Submit(context.Background(), testSubmission())

	if outcome.Kind != OutcomePendingUnknown {
		t.Fatalf("expected pending-unknown, got %v", outcome.Kind)
	}
	if outcome.Fault != FaultTransport {
		t.Errorf("expected transport fault, got %v", outcome.Fault)
	}
}

func TestSubmitUnreachableServerIsPendingUnknown(t *testing.T) {
	c := New("http://127.0.0.1:1")
	outcome := c.Submit(context.Background(), testSubmission())

	if outcome.Kind != OutcomePendingUnknown {
		t.Fatalf("expected pending-unknown, got %v", outcome.Kind)
	}
	if outcome.Fault != FaultTransport {
		t.Errorf("expected transport fault, got %v", outcome.Fault)
	}
}

func TestRequestAnalysisRejectedAttachesNoStream(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"unsupported file type"}`))
	}))
	defer ts.Close()

	c := New(ts.URL)
	req, err := c.RequestAnalysis(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Outcome.Kind != OutcomeRejected {
		t.Fatalf("expected rejected, got %v", req.Outcome.Kind)
	}
	if req.Statuses != nil {
		t.Error("rejected submission must not attach a status stream")
	}
}

func TestRequestAnalysisReportsAttachFailure(t *testing.T) {
	// Server accepts the job but has no status channel at all
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/jobs" {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"11111111-1111-1111-1111-111111111111"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	c := New(ts.URL)
	req, err := c.RequestAnalysis(context.Background(), testSubmission())

	if req.Outcome.Kind != OutcomeAccepted {
		t.Fatalf("expected accepted outcome to stand, got %v", req.Outcome.Kind)
	}
	if err == nil {
		t.Fatal("expected a subscription error")
	}
	if !errors.Is(err, ErrChannelDisconnected) {
		t.Errorf("attach failure should wrap ErrChannelDisconnected, got %v", err)
	}
	if req.Statuses != nil {
		t.Error("no stream should be attached when the dial fails")
	}
}
