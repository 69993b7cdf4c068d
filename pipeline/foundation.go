package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/summerstudio/go-meeting-queue/models"
	"github.com/summerstudio/go-meeting-queue/transcript"
)

// segment is a fixed-length slice of the meeting used for chaptering
type segment struct {
	ID         string
	StartMS    int64
	EndMS      int64
	Utterances []transcript.Utterance
}

// segmentUtterances buckets utterances into consecutive 10-minute segments
func segmentUtterances(utterances []transcript.Utterance) []segment {
	if len(utterances) == 0 {
		return nil
	}

	durationMS := utterances[len(utterances)-1].EndMS
	count := int(durationMS/segmentLenMS) + 1

	segments := make([]segment, 0, count)
	for i := 0; i < count; i++ {
		segments = append(segments, segment{
			ID:      fmt.Sprintf("seg-%04d", i),
			StartMS: int64(i) * segmentLenMS,
			EndMS:   int64(i+1) * segmentLenMS,
		})
	}

	for _, u := range utterances {
		idx := int(u.StartMS / segmentLenMS)
		if idx >= len(segments) {
			idx = len(segments) - 1
		}
		segments[idx].Utterances = append(segments[idx].Utterances, u)
	}

	// Drop trailing empty segments
	for len(segments) > 0 && len(segments[len(segments)-1].Utterances) == 0 {
		segments = segments[:len(segments)-1]
	}

	return segments
}

// buildMeetingDetails derives deterministic metadata from the transcript
func buildMeetingDetails(utterances []transcript.Utterance) models.MeetingDetails {
	durationMS := utterances[len(utterances)-1].EndMS

	seen := make(map[string]bool)
	unknownCount := 0
	for _, u := range utterances {
		if u.Speaker == transcript.UnknownSpeaker {
			unknownCount++
			continue
		}
		seen[u.Speaker] = true
	}

	participants := make([]string, 0, len(seen))
	for speaker := range seen {
		participants = append(participants, speaker)
	}
	sort.Strings(participants)

	return models.MeetingDetails{
		Title:        "Meeting Analysis",
		Date:         time.Now().Format("2006-01-02"),
		DurationMS:   durationMS,
		Participants: participants,
		UnknownCount: unknownCount,
	}
}

// buildTimeline picks one key moment per segment: the longest utterance,
// which tends to be where a topic is actually laid out.
func buildTimeline(segments []segment) []models.TimelineEvent {
	timeline := []models.TimelineEvent{}

	for _, seg := range segments {
		var best *transcript.Utterance
		for i := range seg.Utterances {
			u := &seg.Utterances[i]
			if best == nil || len(u.Text) > len(best.Text) {
				best = u
			}
		}
		if best == nil {
			continue
		}

		speakers := []string{}
		if best.Speaker != transcript.UnknownSpeaker {
			speakers = append(speakers, best.Speaker)
		}

		timeline = append(timeline, models.TimelineEvent{
			TimestampMS: best.StartMS,
			Event:       truncate(best.Text, 120),
			Speakers:    speakers,
		})
	}

	return timeline
}

// FormatTimestampMS renders milliseconds as HH:MM:SS
func FormatTimestampMS(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	secondsTotal := ms / 1000
	seconds := secondsTotal % 60
	minutes := (secondsTotal / 60) % 60
	hours := secondsTotal / 3600
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

func truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	cut := strings.LastIndex(text[:max], " ")
	if cut <= 0 {
		// No word boundary; back off to a rune boundary instead
		cut = max
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
	}
	return text[:cut] + "…"
}
