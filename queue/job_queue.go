package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/summerstudio/go-meeting-queue/models"
)

// ErrNoPendingJobs is returned by DequeueJob when the queue is empty
var ErrNoPendingJobs = errors.New("no pending jobs available")

// Notifier is invoked after every job state transition
type Notifier func(job *models.AnalysisJob)

// AnalysisJobQueue manages the queue of transcript analysis jobs
type AnalysisJobQueue struct {
	mu             sync.RWMutex
	pendingJobs    []*models.AnalysisJob
	processingJobs map[string]*models.AnalysisJob
	completedJobs  map[string]*models.AnalysisJob
	failedJobs     map[string]*models.AnalysisJob
	jobsByID       map[string]*models.AnalysisJob
	dataDir        string
	notify         Notifier
}

// NewAnalysisJobQueue creates a new instance of AnalysisJobQueue
func NewAnalysisJobQueue(dataDir string) *AnalysisJobQueue {
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	return &AnalysisJobQueue{
		pendingJobs:    make([]*models.AnalysisJob, 0),
		processingJobs: make(map[string]*models.AnalysisJob),
		completedJobs:  make(map[string]*models.AnalysisJob),
		failedJobs:     make(map[string]*models.AnalysisJob),
		jobsByID:       make(map[string]*models.AnalysisJob),
		dataDir:        dataDir,
	}
}

// SetNotifier registers the callback invoked on every job transition
func (q *AnalysisJobQueue) SetNotifier(n Notifier) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notify = n
}

// EnqueueJob adds a new job to the queue. jobID is the client-supplied
// correlation key; when empty or not a valid UUID a fresh one is generated,
// so a submission is always traceable by the id echoed in the response.
func (q *AnalysisJobQueue) EnqueueJob(jobID, sourceFile, ownerID, projectID string) (*models.AnalysisJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := uuid.Parse(jobID); err != nil {
		jobID = uuid.New().String()
	}
	if _, exists := q.jobsByID[jobID]; exists {
		return nil, fmt.Errorf("job %s already exists", jobID)
	}

	job := &models.AnalysisJob{
		ID:         jobID,
		SourceFile: sourceFile,
		OwnerID:    ownerID,
		ProjectID:  projectID,
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
	}

	q.pendingJobs = append(q.pendingJobs, job)
	q.jobsByID[jobID] = job

	// Persist job to disk
	if err := q.persistJob(job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %v", err)
	}

	log.Printf("Job enqueued: %s for file %s", jobID, sourceFile)
	q.notifyLocked(job)
	return cloneJob(job), nil
}

// DequeueJob gets the next pending job and marks it as processing
func (q *AnalysisJobQueue) DequeueJob(workerID string) (*models.AnalysisJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pendingJobs) == 0 {
		return nil, ErrNoPendingJobs
	}

	// Get the next job from the queue (FIFO)
	job := q.pendingJobs[0]
	q.pendingJobs = q.pendingJobs[1:]

	// Mark as processing
	job.Status = models.StatusProcessing
	job.StartedAt = time.Now()
	job.ProcessingNode = workerID

	// Move to processing map
	q.processingJobs[job.ID] = job

	// Persist updated job status
	if err := q.persistJob(job); err != nil {
		return nil, fmt.Errorf("failed to update job status: %v", err)
	}

	q.notifyLocked(job)
	return cloneJob(job), nil
}

// CompleteJob marks a job as completed and attaches the analysis result.
// Completed is terminal: the job never transitions again.
func (q *AnalysisJobQueue) CompleteJob(jobID string, result json.RawMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, exists := q.processingJobs[jobID]
	if !exists {
		return fmt.Errorf("job %s not found in processing queue", jobID)
	}

	job.Status = models.StatusCompleted
	job.CompletedAt = time.Now()
	job.Result = result

	// Move from processing to completed
	delete(q.processingJobs, jobID)
	q.completedJobs[jobID] = job

	// Persist updated job status
	if err := q.persistJob(job); err != nil {
		return err
	}

	q.notifyLocked(job)
	return nil
}

// FailJob marks a job as failed. Failed is terminal.
func (q *AnalysisJobQueue) FailJob(jobID string, errorMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, exists := q.processingJobs[jobID]
	if !exists {
		return fmt.Errorf("job %s not found in processing queue", jobID)
	}

	job.Status = models.StatusFailed
	job.ErrorMessage = errorMsg
	job.CompletedAt = time.Now()

	// Move from processing to failed
	delete(q.processingJobs, jobID)
	q.failedJobs[jobID] = job

	// Persist updated job status
	if err := q.persistJob(job); err != nil {
		return err
	}

	q.notifyLocked(job)
	return nil
}

// GetJob retrieves a copy of a job by ID
func (q *AnalysisJobQueue) GetJob(jobID string) (*models.AnalysisJob, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	job, exists := q.jobsByID[jobID]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobID)
	}

	return cloneJob(job), nil
}

// cloneJob copies a job record. Everything handed outside the lock is a
// copy; the live record is only ever touched while holding q.mu.
func cloneJob(job *models.AnalysisJob) *models.AnalysisJob {
	c := *job
	return &c
}

// notifyLocked fires the notifier without holding up the caller. The
// notifier gets a snapshot taken under the lock, never the live record.
func (q *AnalysisJobQueue) notifyLocked(job *models.AnalysisJob) {
	if q.notify == nil {
		return
	}
	go q.notify(cloneJob(job))
}

// persistJob saves job data to disk
func (q *AnalysisJobQueue) persistJob(job *models.AnalysisJob) error {
	jobPath := filepath.Join(q.dataDir, job.ID+".json")

	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal job data: %v", err)
	}

	if err := os.WriteFile(jobPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write job file: %v", err)
	}

	return nil
}

// LoadJobs loads all persisted jobs from disk
func (q *AnalysisJobQueue) LoadJobs() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	files, err := os.ReadDir(q.dataDir)
	if err != nil {
		return fmt.Errorf("failed to read data directory: %v", err)
	}

	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}

		jobPath := filepath.Join(q.dataDir, file.Name())
		data, err := os.ReadFile(jobPath)
		if err != nil {
			log.Printf("Failed to read job file %s: %v", jobPath, err)
			continue
		}

		var job models.AnalysisJob
		if err := json.Unmarshal(data, &job); err != nil {
			log.Printf("Failed to unmarshal job data %s: %v", jobPath, err)
			continue
		}

		// Add job to appropriate queue based on status
		q.jobsByID[job.ID] = &job

		switch job.Status {
		case models.StatusPending:
			q.pendingJobs = append(q.pendingJobs, &job)
		case models.StatusProcessing:
			// Interrupted mid-run; requeue so a worker picks it up again
			job.Status = models.StatusPending
			job.ProcessingNode = ""
			q.pendingJobs = append(q.pendingJobs, &job)
		case models.StatusCompleted:
			q.completedJobs[job.ID] = &job
		case models.StatusFailed:
			q.failedJobs[job.ID] = &job
		}
	}

	log.Printf("Loaded %d jobs from disk", len(q.jobsByID))
	return nil
}

// GetPendingJobs returns copies of the pending jobs in queue order
func (q *AnalysisJobQueue) GetPendingJobs() []*models.AnalysisJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	jobs := make([]*models.AnalysisJob, 0, len(q.pendingJobs))
	for _, job := range q.pendingJobs {
		jobs = append(jobs, cloneJob(job))
	}
	return jobs
}

// GetProcessingJobs returns copies of the processing jobs
func (q *AnalysisJobQueue) GetProcessingJobs() []*models.AnalysisJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	jobs := make([]*models.AnalysisJob, 0, len(q.processingJobs))
	for _, job := range q.processingJobs {
		jobs = append(jobs, cloneJob(job))
	}
	return jobs
}

// GetCompletedJobs returns copies of the completed jobs
func (q *AnalysisJobQueue) GetCompletedJobs() []*models.AnalysisJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	jobs := make([]*models.AnalysisJob, 0, len(q.completedJobs))
	for _, job := range q.completedJobs {
		jobs = append(jobs, cloneJob(job))
	}
	return jobs
}

// GetFailedJobs returns copies of the failed jobs
func (q *AnalysisJobQueue) GetFailedJobs() []*models.AnalysisJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	jobs := make([]*models.AnalysisJob, 0, len(q.failedJobs))
	for _, job := range q.failedJobs {
		jobs = append(jobs, cloneJob(job))
	}
	return jobs
}

// GetAllJobs returns copies of all jobs
func (q *AnalysisJobQueue) GetAllJobs() []*models.AnalysisJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	jobs := make([]*models.AnalysisJob, 0, len(q.jobsByID))
	for _, job := range q.jobsByID {
		jobs = append(jobs, cloneJob(job))
	}
	return jobs
}
