package pipeline

import (
	"errors"
	"log"
	"time"

	"github.com/summerstudio/go-meeting-queue/models"
	"github.com/summerstudio/go-meeting-queue/transcript"
)

// ErrNoUtterances is returned when a transcript parses to nothing usable
var ErrNoUtterances = errors.New("no utterances found in transcript")

// segmentLenMS is the fixed segment length used for chaptering (10 minutes)
const segmentLenMS int64 = 600_000

// Analyze runs the full analysis over parsed utterances:
// foundation (metadata, timeline, segments), extraction (action items,
// achievements, blockers, hats), synthesis (narrative, chapters) and the
// mindmap. It is deterministic and side-effect free.
func Analyze(utterances []transcript.Utterance) (*models.AnalysisResult, error) {
	if len(utterances) == 0 {
		return nil, ErrNoUtterances
	}

	start := time.Now()

	segments := segmentUtterances(utterances)
	details := buildMeetingDetails(utterances)
	timeline := buildTimeline(segments)

	actionItems := extractActionItems(utterances)
	achievements := extractAchievements(utterances)
	blockers := extractBlockers(utterances)
	hats := classifyHats(utterances)

	chapters := buildChapters(segments)
	details.Title = deriveTitle(chapters, utterances)
	narrative := buildNarrative(details, chapters, actionItems, achievements, blockers)

	summary := models.CollectiveSummary{
		NarrativeSummary: narrative,
		ActionItems:      actionItems,
		Achievements:     achievements,
		Blockers:         blockers,
	}

	mindmap := buildMindmap(details.Title, chapters, actionItems, blockers)

	log.Printf("Analysis complete: %d action items, %d achievements, %d blockers, %d chapters in %v",
		len(actionItems), len(achievements), len(blockers), len(chapters), time.Since(start))

	return &models.AnalysisResult{
		MeetingDetails:    details,
		CollectiveSummary: summary,
		Hats:              hats,
		Chapters:          chapters,
		Timeline:          timeline,
		Mindmap:           mindmap,
	}, nil
}
