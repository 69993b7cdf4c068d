package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/summerstudio/go-meeting-queue/models"
	"github.com/summerstudio/go-meeting-queue/pipeline"
	"github.com/summerstudio/go-meeting-queue/queue"
	"github.com/summerstudio/go-meeting-queue/store"
	"github.com/summerstudio/go-meeting-queue/transcript"
)

// pollInterval is how long a worker sleeps when the queue is empty
const pollInterval = 5 * time.Second

// Worker represents a processing node that consumes analysis jobs
type Worker struct {
	ID         string
	Queue      *queue.AnalysisJobQueue
	Store      *store.MeetingStore
	Processing bool
	mu         sync.Mutex
}

// NewWorker creates a new worker instance
func NewWorker(id string, q *queue.AnalysisJobQueue, st *store.MeetingStore) *Worker {
	return &Worker{
		ID:    id,
		Queue: q,
		Store: st,
	}
}

// Start begins processing jobs
func (w *Worker) Start() {
	log.Printf("Worker %s starting", w.ID)

	go func() {
		for {
			w.mu.Lock()
			w.Processing = false
			w.mu.Unlock()

			// Try to get a job from the queue
			job, err := w.Queue.DequeueJob(w.ID)
			if err != nil {
				// No jobs available, wait before trying again
				time.Sleep(pollInterval)
				continue
			}

			w.mu.Lock()
			w.Processing = true
			w.mu.Unlock()

			log.Printf("Worker %s processing job %s", w.ID, job.ID)
			w.process(job)
		}
	}()
}

// process runs one dequeued job to completion or failure
func (w *Worker) process(job *models.AnalysisJob) {
	result, err := w.analyzeTranscript(job)
	if err != nil {
		log.Printf("Worker %s failed to process job %s: %v", w.ID, job.ID, err)
		w.failJob(job, err.Error())
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		log.Printf("Worker %s failed to encode result for job %s: %v", w.ID, job.ID, err)
		w.failJob(job, fmt.Sprintf("failed to encode result: %v", err))
		return
	}

	if err := w.Queue.CompleteJob(job.ID, payload); err != nil {
		log.Printf("Worker %s failed to mark job %s completed: %v", w.ID, job.ID, err)
		return
	}
	log.Printf("Worker %s completed job %s", w.ID, job.ID)
	w.persistResult(job, result)
}

func (w *Worker) failJob(job *models.AnalysisJob, reason string) {
	if err := w.Queue.FailJob(job.ID, reason); err != nil {
		log.Printf("Worker %s failed to mark job %s failed: %v", w.ID, job.ID, err)
		return
	}
	w.persistFailure(job)
}

// analyzeTranscript parses the uploaded transcript and runs the pipeline
func (w *Worker) analyzeTranscript(job *models.AnalysisJob) (*models.AnalysisResult, error) {
	if _, err := os.Stat(job.SourceFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("source file does not exist: %s", job.SourceFile)
	}

	var utterances []transcript.Utterance

	switch strings.ToLower(filepath.Ext(job.SourceFile)) {
	case ".vtt":
		content, err := os.ReadFile(job.SourceFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read transcript: %v", err)
		}
		utterances = transcript.ParseVTT(string(content))
	case ".pdf":
		var err error
		utterances, err = transcript.ParsePDF(job.SourceFile)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PDF transcript: %v", err)
		}
	default:
		return nil, fmt.Errorf("unsupported transcript format: %s", filepath.Ext(job.SourceFile))
	}

	log.Printf("Worker %s parsed %d utterances from %s", w.ID, len(utterances), job.SourceFile)

	return pipeline.Analyze(utterances)
}

// persistResult writes the analysis output to the meeting store
func (w *Worker) persistResult(job *models.AnalysisJob, result *models.AnalysisResult) {
	if !w.Store.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.Store.UpdateMeetingDetails(ctx, job.ID, result.MeetingDetails, result.Timeline); err != nil {
		log.Printf("Worker %s failed to update meeting details for %s: %v", w.ID, job.ID, err)
	}
	if err := w.Store.SaveResults(ctx, job.ID, result); err != nil {
		log.Printf("Worker %s failed to save results for %s: %v", w.ID, job.ID, err)
	}
}

// persistFailure marks the stored meeting record as failed
func (w *Worker) persistFailure(job *models.AnalysisJob) {
	if !w.Store.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.Store.UpdateMeetingStatus(ctx, job.ID, "failed"); err != nil {
		log.Printf("Worker %s failed to mark meeting %s failed: %v", w.ID, job.ID, err)
	}
}
