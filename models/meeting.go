package models

// MeetingDetails holds metadata derived from a transcript
type MeetingDetails struct {
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	DurationMS   int64    `json:"duration_ms"`
	Participants []string `json:"participants"`
	UnknownCount int      `json:"unknown_count"`
}

// Evidence is a supporting quote for an extracted item
type Evidence struct {
	Speaker string `json:"speaker"`
	Quote   string `json:"quote"`
}

// ActionItem is a task extracted from the discussion
type ActionItem struct {
	Task     string   `json:"task"`
	Owner    string   `json:"owner"`
	Deadline string   `json:"deadline"`
	Priority string   `json:"priority"`
	Status   string   `json:"status"`
	Evidence Evidence `json:"evidence"`
}

// Achievement is completed work reported by a team member
type Achievement struct {
	Achievement string   `json:"achievement"`
	Member      string   `json:"member"`
	Confidence  float64  `json:"confidence"`
	Evidence    Evidence `json:"evidence"`
}

// Blocker is an impediment raised during the meeting
type Blocker struct {
	Blocker  string   `json:"blocker"`
	Member   string   `json:"member"`
	Severity string   `json:"severity"`
	Evidence Evidence `json:"evidence"`
}

// Hat is a Six Thinking Hats classification for a speaker
type Hat struct {
	Speaker    string  `json:"speaker"`
	Hat        string  `json:"hat"`
	T          string  `json:"t"`
	Evidence   string  `json:"evidence"`
	Confidence float64 `json:"confidence"`
}

// TimelineEvent is a key moment on the meeting timeline
type TimelineEvent struct {
	TimestampMS int64    `json:"timestamp_ms"`
	Event       string   `json:"event"`
	Speakers    []string `json:"speakers"`
}

// Chapter groups consecutive segments under one topic
type Chapter struct {
	ChapterID  string   `json:"chapter_id"`
	SegmentIDs []string `json:"segment_ids"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
}

// CollectiveSummary is the narrative view of the whole meeting
type CollectiveSummary struct {
	NarrativeSummary string        `json:"narrative_summary"`
	ActionItems      []ActionItem  `json:"action_items"`
	Achievements     []Achievement `json:"achievements"`
	Blockers         []Blocker     `json:"blockers"`
}

// MindmapNode is a node in the mindmap visualization
type MindmapNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// MindmapEdge connects two mindmap nodes
type MindmapEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Mindmap is the graph built from chapters and extracted items
type Mindmap struct {
	CenterNode MindmapNode   `json:"center_node"`
	Nodes      []MindmapNode `json:"nodes"`
	Edges      []MindmapEdge `json:"edges"`
}

// AnalysisResult is the full output of the analysis pipeline for one meeting
type AnalysisResult struct {
	MeetingDetails    MeetingDetails    `json:"meeting_details"`
	CollectiveSummary CollectiveSummary `json:"collective_summary"`
	Hats              []Hat             `json:"hats"`
	Chapters          []Chapter         `json:"chapters"`
	Timeline          []TimelineEvent   `json:"timeline"`
	Mindmap           Mindmap           `json:"mindmap"`
}
