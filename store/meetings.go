package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/summerstudio/go-meeting-queue/models"
)

// MeetingStore persists meeting records and analysis results to Postgres.
// A nil pool disables persistence entirely: every method becomes a logged
// no-op, so the server keeps working without a database configured.
type MeetingStore struct {
	pool *pgxpool.Pool
}

// NewMeetingStore creates a meeting store. pool may be nil.
func NewMeetingStore(pool *pgxpool.Pool) *MeetingStore {
	if pool == nil {
		log.Printf("Warning: no database pool, meeting persistence disabled")
	}
	return &MeetingStore{pool: pool}
}

// Enabled reports whether a database is configured
func (s *MeetingStore) Enabled() bool {
	return s != nil && s.pool != nil
}

// CreateMeeting inserts a meeting record in the processing state, keyed by
// the job's correlation id
func (s *MeetingStore) CreateMeeting(ctx context.Context, meetingID, ownerID, projectID, title string) error {
	if !s.Enabled() {
		return nil
	}

	var projectArg any
	if projectID != "" {
		projectArg = projectID
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO meetings (id, user_id, project_id, title, status)
		 VALUES ($1, $2, $3, $4, 'processing')`,
		meetingID, ownerID, projectArg, title)
	if err != nil {
		return fmt.Errorf("failed to create meeting record: %v", err)
	}
	return nil
}

// UpdateMeetingStatus updates the status of a meeting
func (s *MeetingStore) UpdateMeetingStatus(ctx context.Context, meetingID, status string) error {
	if !s.Enabled() {
		return nil
	}

	_, err := s.pool.Exec(ctx,
		`UPDATE meetings SET status = $2 WHERE id = $1`, meetingID, status)
	if err != nil {
		return fmt.Errorf("failed to update meeting status: %v", err)
	}
	return nil
}

// UpdateMeetingDetails writes the derived metadata and timeline back onto
// the meeting record
func (s *MeetingStore) UpdateMeetingDetails(ctx context.Context, meetingID string,
	details models.MeetingDetails, timeline []models.TimelineEvent) error {
	if !s.Enabled() {
		return nil
	}

	timelineJSON, err := json.Marshal(timeline)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline: %v", err)
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE meetings
		 SET title = $2, duration_ms = $3, participants = $4, timeline_json = $5
		 WHERE id = $1`,
		meetingID, details.Title, details.DurationMS, details.Participants, timelineJSON)
	if err != nil {
		return fmt.Errorf("failed to update meeting details: %v", err)
	}
	return nil
}

// SaveResults upserts the analysis output into meeting_summaries and marks
// the meeting completed
func (s *MeetingStore) SaveResults(ctx context.Context, meetingID string, result *models.AnalysisResult) error {
	if !s.Enabled() {
		return nil
	}

	summaryJSON, err := json.Marshal(result.CollectiveSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %v", err)
	}
	mindmapJSON, err := json.Marshal(result.Mindmap)
	if err != nil {
		return fmt.Errorf("failed to marshal mindmap: %v", err)
	}
	chaptersJSON, err := json.Marshal(result.Chapters)
	if err != nil {
		return fmt.Errorf("failed to marshal chapters: %v", err)
	}
	hatsJSON, err := json.Marshal(result.Hats)
	if err != nil {
		return fmt.Errorf("failed to marshal hats: %v", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO meeting_summaries (meeting_id, summary_json, mindmap_json, chapters_json, hats_json)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (meeting_id) DO UPDATE
		 SET summary_json = EXCLUDED.summary_json,
		     mindmap_json = EXCLUDED.mindmap_json,
		     chapters_json = EXCLUDED.chapters_json,
		     hats_json = EXCLUDED.hats_json`,
		meetingID, summaryJSON, mindmapJSON, chaptersJSON, hatsJSON)
	if err != nil {
		return fmt.Errorf("failed to save meeting results: %v", err)
	}

	return s.UpdateMeetingStatus(ctx, meetingID, "completed")
}

// MeetingSummary is a stored analysis result row
type MeetingSummary struct {
	MeetingID string          `json:"meeting_id"`
	Summary   json.RawMessage `json:"summary_json"`
	Mindmap   json.RawMessage `json:"mindmap_json"`
	Chapters  json.RawMessage `json:"chapters_json"`
	Hats      json.RawMessage `json:"hats_json"`
}

// GetSummary fetches the stored analysis result for a meeting
func (s *MeetingStore) GetSummary(ctx context.Context, meetingID string) (*MeetingSummary, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("meeting persistence is not configured")
	}

	summary := &MeetingSummary{MeetingID: meetingID}
	err := s.pool.QueryRow(ctx,
		`SELECT summary_json, mindmap_json, chapters_json, hats_json
		 FROM meeting_summaries WHERE meeting_id = $1`, meetingID).
		Scan(&summary.Summary, &summary.Mindmap, &summary.Chapters, &summary.Hats)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meeting summary: %v", err)
	}
	return summary, nil
}
