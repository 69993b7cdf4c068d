package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/summerstudio/go-meeting-queue/models"
	"github.com/summerstudio/go-meeting-queue/transcript"
)

var actionCues = []string{
	"i will ", "i'll ", "we need to ", "we should ", "action item",
	"todo", "to-do", "can you ", "please take ", "let's schedule",
	"follow up on", "make sure to ",
}

var achievementCues = []string{
	"finished", "completed", "shipped", "deployed", "merged",
	"landed", "done with", "wrapped up", "fixed the",
}

var blockerCues = []string{
	"blocked", "blocker", "waiting on", "waiting for", "stuck on",
	"can't proceed", "cannot proceed", "holding us up", "stuck with",
}

var deadlinePattern = regexp.MustCompile(`(?i)\bby\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday|tomorrow|next week|end of (?:the )?(?:day|week|month)|\d{4}-\d{2}-\d{2})`)

// extractActionItems scans for commitment language and turns matching
// utterances into tasks, deduplicated by task text.
func extractActionItems(utterances []transcript.Utterance) []models.ActionItem {
	items := []models.ActionItem{}
	seen := make(map[string]bool)

	for _, u := range utterances {
		lower := strings.ToLower(u.Text)
		if !containsAny(lower, actionCues) {
			continue
		}

		task := strings.TrimSpace(u.Text)
		key := strings.ToLower(task)
		if task == "" || seen[key] {
			continue
		}
		seen[key] = true

		deadline := ""
		if m := deadlinePattern.FindStringSubmatch(u.Text); m != nil {
			deadline = strings.ToLower(m[1])
		}

		priority := "medium"
		if strings.Contains(lower, "urgent") || strings.Contains(lower, "asap") || strings.Contains(lower, "critical") {
			priority = "high"
		} else if strings.Contains(lower, "eventually") || strings.Contains(lower, "at some point") {
			priority = "low"
		}

		owner := u.Speaker
		if owner == transcript.UnknownSpeaker {
			owner = "Unassigned"
		}

		items = append(items, models.ActionItem{
			Task:     task,
			Owner:    owner,
			Deadline: deadline,
			Priority: priority,
			Status:   "pending",
			Evidence: evidenceFor(u),
		})
	}

	return items
}

// extractAchievements scans for completed-work language. Very short matches
// are dropped, same as noise filtering in the extraction stage upstream.
func extractAchievements(utterances []transcript.Utterance) []models.Achievement {
	achievements := []models.Achievement{}
	seen := make(map[string]bool)

	for _, u := range utterances {
		lower := strings.ToLower(u.Text)
		if !containsAny(lower, achievementCues) {
			continue
		}
		if len(strings.Fields(u.Text)) < 3 {
			continue
		}

		key := strings.ToLower(u.Text)
		if seen[key] {
			continue
		}
		seen[key] = true

		member := u.Speaker
		if member == transcript.UnknownSpeaker {
			member = "Team"
		}

		achievements = append(achievements, models.Achievement{
			Achievement: strings.TrimSpace(u.Text),
			Member:      member,
			Confidence:  0.8,
			Evidence:    evidenceFor(u),
		})
	}

	return achievements
}

// extractBlockers scans for impediment language
func extractBlockers(utterances []transcript.Utterance) []models.Blocker {
	blockers := []models.Blocker{}
	seen := make(map[string]bool)

	for _, u := range utterances {
		lower := strings.ToLower(u.Text)
		if !containsAny(lower, blockerCues) {
			continue
		}
		if len(strings.Fields(u.Text)) < 3 {
			continue
		}

		key := strings.ToLower(u.Text)
		if seen[key] {
			continue
		}
		seen[key] = true

		severity := "major"
		if strings.Contains(lower, "critical") || strings.Contains(lower, "urgent") {
			severity = "critical"
		} else if strings.Contains(lower, "minor") || strings.Contains(lower, "small") {
			severity = "minor"
		}

		member := u.Speaker
		if member == transcript.UnknownSpeaker {
			member = "Unknown"
		}

		blockers = append(blockers, models.Blocker{
			Blocker:  strings.TrimSpace(u.Text),
			Member:   member,
			Severity: severity,
			Evidence: evidenceFor(u),
		})
	}

	return blockers
}

// hatCues maps each thinking hat to the language that signals it
var hatCues = map[string][]string{
	"white":  {"the data", "the numbers", "metric", "percent", "according to", "measured"},
	"red":    {"i feel", "worried", "excited", "frustrated", "i love", "uncomfortable", "gut"},
	"black":  {"risk", "concern", "won't work", "downside", "problem is", "fail", "careful"},
	"yellow": {"benefit", "opportunity", "upside", "great chance", "this could really", "win"},
	"green":  {"what if", "idea", "alternative", "we could try", "brainstorm", "another way"},
	"blue":   {"agenda", "next steps", "move on", "recap", "summarize", "let's get started", "wrap up"},
}

// classifyHats assigns each named participant a dominant Six Thinking Hats
// role from cue-phrase counts. Speakers with no signal default to white.
func classifyHats(utterances []transcript.Utterance) []models.Hat {
	type tally struct {
		counts map[string]int
		quotes map[string]string
	}
	bySpeaker := make(map[string]*tally)

	for _, u := range utterances {
		if u.Speaker == transcript.UnknownSpeaker {
			continue
		}
		t := bySpeaker[u.Speaker]
		if t == nil {
			t = &tally{counts: make(map[string]int), quotes: make(map[string]string)}
			bySpeaker[u.Speaker] = t
		}

		lower := strings.ToLower(u.Text)
		for hat, cues := range hatCues {
			if containsAny(lower, cues) {
				t.counts[hat]++
				if t.quotes[hat] == "" {
					t.quotes[hat] = truncate(u.Text, 140)
				}
			}
		}
	}

	speakers := make([]string, 0, len(bySpeaker))
	for speaker := range bySpeaker {
		speakers = append(speakers, speaker)
	}
	sort.Strings(speakers)

	hats := make([]models.Hat, 0, len(speakers))
	for _, speaker := range speakers {
		t := bySpeaker[speaker]

		dominant := "white"
		best := 0
		// Deterministic tie-break: fixed hat order
		for _, hat := range []string{"white", "red", "black", "yellow", "green", "blue"} {
			if t.counts[hat] > best {
				best = t.counts[hat]
				dominant = hat
			}
		}

		evidence := t.quotes[dominant]
		if evidence != "" && !strings.HasSuffix(evidence, ".") {
			evidence += "."
		}

		hats = append(hats, models.Hat{
			Speaker:    speaker,
			Hat:        dominant,
			T:          "00:00:00",
			Evidence:   evidence,
			Confidence: 0.85,
		})
	}

	return hats
}

func evidenceFor(u transcript.Utterance) models.Evidence {
	speaker := u.Speaker
	if speaker == transcript.UnknownSpeaker {
		speaker = ""
	}
	return models.Evidence{
		Speaker: speaker,
		Quote:   truncate(u.Text, 160),
	}
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}
