package models

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// updatesChannel is the Redis pub/sub channel updates fan out on when a
// Redis client is configured.
const updatesChannel = "meetingqueue:updates"

// JobSource looks up a job's current state for snapshot replay.
type JobSource interface {
	GetJob(jobID string) (*AnalysisJob, error)
}

type hubSubscription struct {
	conn  *websocket.Conn
	jobID string
}

// StatusHub fans job updates out to WebSocket subscribers. Each connection
// subscribes to a single job. On registration the subscriber receives a
// snapshot of the job's current status, so there is no missed-event window
// between a job finishing and a client attaching. After a terminal update is
// delivered the connection is closed normally.
//
// With a Redis client configured, updates are published to a pub/sub channel
// and delivered to local subscribers by the hub's subscriber loop, so
// multiple server replicas see every transition.
type StatusHub struct {
	source      JobSource
	rdb         *redis.Client
	subscribers map[string]map[*websocket.Conn]bool
	byConn      map[*websocket.Conn]string
	broadcast   chan JobUpdate
	register    chan hubSubscription
	unregister  chan *websocket.Conn
}

// NewStatusHub creates a new status hub. rdb may be nil for single-instance
// deployments; updates are then delivered in-process only.
func NewStatusHub(source JobSource, rdb *redis.Client) *StatusHub {
	return &StatusHub{
		source:      source,
		rdb:         rdb,
		subscribers: make(map[string]map[*websocket.Conn]bool),
		byConn:      make(map[*websocket.Conn]string),
		broadcast:   make(chan JobUpdate, 100),
		register:    make(chan hubSubscription),
		unregister:  make(chan *websocket.Conn),
	}
}

// Start begins the hub's delivery loop
func (h *StatusHub) Start() {
	if h.rdb != nil {
		go h.relayFromRedis()
	}

	go func() {
		for {
			select {
			case sub := <-h.register:
				h.addSubscriber(sub)
			case conn := <-h.unregister:
				h.dropSubscriber(conn)
			case update := <-h.broadcast:
				h.deliver(update)
			}
		}
	}()
}

// BroadcastJobUpdate sends a job's current state to its subscribers
func (h *StatusHub) BroadcastJobUpdate(job *AnalysisJob) {
	update := UpdateForJob(job)

	if h.rdb != nil {
		payload, err := json.Marshal(update)
		if err != nil {
			log.Printf("Failed to marshal job update: %v", err)
			return
		}
		if err := h.rdb.Publish(context.Background(), updatesChannel, payload).Err(); err != nil {
			log.Printf("Failed to publish job update: %v", err)
		}
		return
	}

	h.broadcast <- update
}

// RegisterClient subscribes a WebSocket connection to a job's updates
func (h *StatusHub) RegisterClient(conn *websocket.Conn, jobID string) {
	h.register <- hubSubscription{conn: conn, jobID: jobID}
}

// UnregisterClient removes a WebSocket connection from the hub
func (h *StatusHub) UnregisterClient(conn *websocket.Conn) {
	h.unregister <- conn
}

// relayFromRedis feeds published updates into the local delivery loop
func (h *StatusHub) relayFromRedis() {
	pubsub := h.rdb.Subscribe(context.Background(), updatesChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var update JobUpdate
		if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
			log.Printf("Failed to unmarshal published job update: %v", err)
			continue
		}
		h.broadcast <- update
	}
}

func (h *StatusHub) addSubscriber(sub hubSubscription) {
	// Snapshot replay: a subscriber attaching after the fact must still see
	// the job's current state, terminal or not.
	if job, err := h.source.GetJob(sub.jobID); err == nil {
		update := UpdateForJob(job)
		if err := sub.conn.WriteJSON(update); err != nil {
			sub.conn.Close()
			return
		}
		if update.Status.IsTerminal() {
			h.closeNormally(sub.conn)
			return
		}
	}

	if h.subscribers[sub.jobID] == nil {
		h.subscribers[sub.jobID] = make(map[*websocket.Conn]bool)
	}
	h.subscribers[sub.jobID][sub.conn] = true
	h.byConn[sub.conn] = sub.jobID
	log.Printf("Status subscriber added for job %s. Total subscribers: %d", sub.jobID, len(h.byConn))
}

func (h *StatusHub) dropSubscriber(conn *websocket.Conn) {
	jobID, ok := h.byConn[conn]
	if !ok {
		return
	}
	delete(h.byConn, conn)
	if conns := h.subscribers[jobID]; conns != nil {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.subscribers, jobID)
		}
	}
	conn.Close()
	log.Printf("Status subscriber removed for job %s. Remaining subscribers: %d", jobID, len(h.byConn))
}

func (h *StatusHub) deliver(update JobUpdate) {
	conns := h.subscribers[update.JobID]
	for conn := range conns {
		if err := conn.WriteJSON(update); err != nil {
			log.Printf("Error sending update to subscriber: %v", err)
			h.dropSubscriber(conn)
			continue
		}
		if update.Status.IsTerminal() {
			delete(conns, conn)
			delete(h.byConn, conn)
			h.closeNormally(conn)
		}
	}
	if update.Status.IsTerminal() {
		delete(h.subscribers, update.JobID)
	}
}

// closeNormally tells the peer the stream is complete before closing
func (h *StatusHub) closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		log.Printf("Error sending close message: %v", err)
	}
	conn.Close()
}
