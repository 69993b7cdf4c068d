package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/summerstudio/go-meeting-queue/models"
	"github.com/summerstudio/go-meeting-queue/queue"
	"github.com/summerstudio/go-meeting-queue/store"
	"github.com/summerstudio/go-meeting-queue/worker"
)

// maxUploadBytes bounds the in-memory part of multipart parsing
const maxUploadBytes = 10 << 20 // 10MB

// Server handles HTTP requests for job management
type Server struct {
	queue     *queue.AnalysisJobQueue
	store     *store.MeetingStore
	workers   []*worker.Worker
	httpAddr  string
	uploadDir string
	hub       *models.StatusHub
	rdb       *redis.Client
	upgrader  websocket.Upgrader
}

// NewServer creates a new server instance. rdb may be nil; the status hub
// then delivers updates in-process only.
func NewServer(q *queue.AnalysisJobQueue, httpAddr string, numWorkers int,
	uploadDir string, st *store.MeetingStore, rdb *redis.Client) *Server {

	hub := models.NewStatusHub(q, rdb)

	server := &Server{
		queue:     q,
		store:     st,
		httpAddr:  httpAddr,
		uploadDir: uploadDir,
		workers:   make([]*worker.Worker, numWorkers),
		hub:       hub,
		rdb:       rdb,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	// Every queue transition flows to status-channel subscribers
	q.SetNotifier(hub.BroadcastJobUpdate)

	// Initialize workers
	for i := 0; i < numWorkers; i++ {
		workerID := fmt.Sprintf("worker-%d", i+1)
		server.workers[i] = worker.NewWorker(workerID, q, st)
	}

	return server
}

// Handler builds the HTTP routing table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Add CORS middleware
	corsMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}

	mux.Handle("/jobs", corsMiddleware(http.HandlerFunc(s.handleJobs)))
	mux.Handle("/jobs/", corsMiddleware(http.HandlerFunc(s.handleJobDetails)))
	mux.Handle("/summaries/", corsMiddleware(http.HandlerFunc(s.handleSummary)))
	mux.Handle("/health", corsMiddleware(http.HandlerFunc(s.handleHealth)))
	mux.Handle("/ws", http.HandlerFunc(s.handleWebSocket))

	return mux
}

// Start begins the status hub, the HTTP server and the workers
func (s *Server) Start() error {
	s.hub.Start()

	go func() {
		log.Printf("HTTP server listening on %s", s.httpAddr)
		if err := http.ListenAndServe(s.httpAddr, s.Handler()); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Start workers
	for _, w := range s.workers {
		w.Start()
	}

	return nil
}

// writeDetail sends an error response with a structured detail field, the
// format the submission clients extract rejection messages from
func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// handleJobs handles HTTP requests for job listing and creation
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		s.handleSubmit(w, r)
		return
	}

	// GET - List all jobs
	w.Header().Set("Content-Type", "application/json")

	// Get jobs by status if specified
	status := r.URL.Query().Get("status")
	if status != "" {
		var jobs []*models.AnalysisJob

		switch models.JobStatus(status) {
		case models.StatusPending:
			jobs = s.queue.GetPendingJobs()
		case models.StatusProcessing:
			jobs = s.queue.GetProcessingJobs()
		case models.StatusCompleted:
			jobs = s.queue.GetCompletedJobs()
		case models.StatusFailed:
			jobs = s.queue.GetFailedJobs()
		default:
			writeDetail(w, http.StatusBadRequest, "Invalid status parameter")
			return
		}

		json.NewEncoder(w).Encode(jobs)
		return
	}

	// Return all jobs
	allJobs := s.queue.GetAllJobs()
	json.NewEncoder(w).Encode(allJobs)
}

// handleSubmit accepts a multipart transcript upload and enqueues a job.
// A client-supplied job_id form field is honored when it is a valid UUID,
// so a submitter that never sees the response can still find its job.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.ParseMultipartForm(maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Missing transcript file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".vtt" && ext != ".pdf" {
		writeDetail(w, http.StatusBadRequest, "File must be a .vtt or .pdf transcript file")
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to read file data")
		return
	}
	if ext == ".vtt" && !utf8.Valid(content) {
		writeDetail(w, http.StatusBadRequest, "File must be UTF-8 encoded")
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to create upload directory")
		return
	}

	jobID := r.FormValue("job_id")
	ownerID := r.FormValue("owner_id")
	projectID := r.FormValue("project_id")

	filePath := filepath.Join(s.uploadDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename)))
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to save file")
		return
	}

	// Enqueue the job
	job, err := s.queue.EnqueueJob(jobID, filePath, ownerID, projectID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	// Record the meeting if a database is configured
	if s.store.Enabled() {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		if err := s.store.CreateMeeting(ctx, job.ID, ownerID, projectID, header.Filename); err != nil {
			log.Printf("Failed to create meeting record for job %s: %v", job.ID, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(job)
}

// handleJobDetails handles HTTP requests for specific jobs
func (s *Server) handleJobDetails(w http.ResponseWriter, r *http.Request) {
	jobID := filepath.Base(r.URL.Path)

	job, err := s.queue.GetJob(jobID)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

// handleSummary serves the stored analysis result for a completed meeting
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !s.store.Enabled() {
		writeDetail(w, http.StatusServiceUnavailable, "Meeting persistence is not configured")
		return
	}

	meetingID := filepath.Base(r.URL.Path)
	summary, err := s.store.GetSummary(r.Context(), meetingID)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Summary not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// handleHealth reports liveness plus backend-configuration flags
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":              "healthy",
		"database_configured": s.store.Enabled(),
		"redis_configured":    s.rdb != nil,
		"workers":             len(s.workers),
	})
}

// handleWebSocket upgrades a connection and subscribes it to one job's
// status updates
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		writeDetail(w, http.StatusBadRequest, "Missing job_id parameter")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	// Register the client; the hub replays the job's current status first
	s.hub.RegisterClient(conn, jobID)

	// Handle disconnection
	go func() {
		for {
			// Clients never send data; reads only surface disconnects
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.UnregisterClient(conn)
				break
			}
		}
	}()
}
