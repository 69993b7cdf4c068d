package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrChannelDisconnected signals that the status channel itself broke. It
// says nothing about the job: the job keeps running server-side and the
// caller is expected to resubscribe.
var ErrChannelDisconnected = errors.New("status channel disconnected")

// StatusKind is the client's view of a job's progress
type StatusKind int

const (
	// StatusRunning: the job is queued or being processed
	StatusRunning StatusKind = iota
	// StatusSucceeded: terminal; Result carries the analysis output
	StatusSucceeded
	// StatusFailed: terminal; Reason carries the failure message
	StatusFailed
)

// JobStatus is one notification from the status channel
type JobStatus struct {
	Kind   StatusKind
	Result json.RawMessage
	Reason string
}

// IsTerminal reports whether no further notifications follow this one
func (s JobStatus) IsTerminal() bool {
	return s.Kind == StatusSucceeded || s.Kind == StatusFailed
}

// Subscription is a live status stream for one job. Updates delivers zero
// or more Running notifications followed by exactly one terminal one, then
// closes. If the channel breaks before a terminal status, Updates closes
// and Err returns ErrChannelDisconnected.
type Subscription struct {
	jobID   string
	conn    *websocket.Conn
	updates chan JobStatus
	done    chan struct{}
	once    sync.Once

	mu  sync.Mutex
	err error
}

// Subscribe attaches to a job's status channel. Subscribing after the job
// reached a terminal state is safe: the server replays the terminal status
// as the first delivered item. A failed dial wraps ErrChannelDisconnected.
func (c *Client) Subscribe(ctx context.Context, jobID string) (*Subscription, error) {
	wsURL, err := c.statusURL(jobID)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("%w: %v", ErrChannelDisconnected, err)
	}

	sub := &Subscription{
		jobID:   jobID,
		conn:    conn,
		updates: make(chan JobStatus),
		done:    make(chan struct{}),
	}
	go sub.readLoop()

	return sub, nil
}

// statusURL derives the ws:// endpoint from the client's base URL
func (c *Client) statusURL(jobID string) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %v", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = "job_id=" + url.QueryEscape(jobID)
	return u.String(), nil
}

// JobID returns the correlation key this subscription is attached to
func (s *Subscription) JobID() string {
	return s.jobID
}

// Updates is the stream of status notifications
func (s *Subscription) Updates() <-chan JobStatus {
	return s.updates
}

// Err reports why Updates closed: nil after a terminal status or an
// unsubscribe, ErrChannelDisconnected if the channel broke first. Only
// meaningful once Updates is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Unsubscribe releases the subscription. It is idempotent: repeated calls
// are no-ops. It never affects the server-side job.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// statusFrame is the wire format of one status-channel message
type statusFrame struct {
	Type   string          `json:"type"`
	JobID  string          `json:"job_id"`
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// readLoop pumps frames off the socket until a terminal status, an
// unsubscribe, or a channel fault. It is the only writer and closer of the
// updates channel.
func (s *Subscription) readLoop() {
	defer close(s.updates)
	defer s.conn.Close()

	for {
		var frame statusFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			select {
			case <-s.done:
				// Unsubscribed: not a channel fault
			default:
				s.setErr(ErrChannelDisconnected)
			}
			return
		}

		if frame.Type != "job_update" {
			continue
		}

		status := statusFromFrame(frame)
		select {
		case s.updates <- status:
		case <-s.done:
			return
		}

		if status.IsTerminal() {
			return
		}
	}
}

// statusFromFrame maps server job states onto the client's view. Queued and
// processing are both simply "running" from the caller's perspective.
func statusFromFrame(frame statusFrame) JobStatus {
	switch frame.Status {
	case "completed":
		return JobStatus{Kind: StatusSucceeded, Result: frame.Result}
	case "failed":
		reason := frame.Error
		if reason == "" {
			reason = "job failed"
		}
		return JobStatus{Kind: StatusFailed, Reason: reason}
	default:
		return JobStatus{Kind: StatusRunning}
	}
}
