package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/summerstudio/go-meeting-queue/models"
	"github.com/summerstudio/go-meeting-queue/transcript"
)

var stopwords = map[string]bool{
	"that": true, "this": true, "with": true, "have": true, "will": true,
	"from": true, "they": true, "ould": true, "there": true, "their": true,
	"what": true, "about": true, "which": true, "going": true, "think": true,
	"just": true, "like": true, "know": true, "yeah": true, "okay": true,
	"really": true, "because": true, "right": true, "something": true,
	"want": true, "need": true, "been": true, "were": true, "when": true,
	"then": true, "them": true, "some": true, "into": true, "also": true,
	"would": true, "could": true, "should": true, "make": true, "sure": true,
	"actually": true, "maybe": true, "thing": true, "things": true,
	"good": true, "well": true, "done": true, "here": true, "over": true,
}

var wordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z'-]{3,}`)

// topKeywords returns the n most frequent non-stopword terms, title-cased
func topKeywords(utterances []transcript.Utterance, n int) []string {
	counts := make(map[string]int)
	for _, u := range utterances {
		for _, w := range wordPattern.FindAllString(strings.ToLower(u.Text), -1) {
			if stopwords[w] {
				continue
			}
			counts[w]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > n {
		words = words[:n]
	}
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return words
}

// deriveTitle builds a short meeting title from the dominant topics
func deriveTitle(chapters []models.Chapter, utterances []transcript.Utterance) string {
	keywords := topKeywords(utterances, 2)
	if len(keywords) == 0 {
		return "Meeting Analysis"
	}
	return shortenTitle(strings.Join(keywords, " & "), 8)
}

// shortenTitle trims a title to at most maxWords, preferring the part
// before a colon when that reads as a title on its own
func shortenTitle(title string, maxWords int) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Meeting Analysis"
	}

	if idx := strings.Index(title, ":"); idx >= 0 {
		left := strings.TrimSpace(title[:idx])
		if n := len(strings.Fields(left)); n >= 2 && n <= maxWords {
			title = left
		}
	}

	words := strings.Fields(title)
	if len(words) > maxWords {
		title = strings.Join(words[:maxWords], " ")
	}
	return title
}

// buildChapters produces one chapter per non-empty segment, titled by the
// segment's dominant topic and summarized from its most substantial remarks
func buildChapters(segments []segment) []models.Chapter {
	chapters := []models.Chapter{}

	for _, seg := range segments {
		if len(seg.Utterances) == 0 {
			continue
		}

		idx := len(chapters)
		title := fmt.Sprintf("Chapter %d", idx+1)
		if kw := topKeywords(seg.Utterances, 1); len(kw) > 0 {
			title = kw[0]
		}

		chapters = append(chapters, models.Chapter{
			ChapterID:  fmt.Sprintf("chap-%03d", idx),
			SegmentIDs: []string{seg.ID},
			Title:      title,
			Summary:    summarizeSegment(seg),
		})
	}

	return chapters
}

// summarizeSegment joins the segment's two longest remarks
func summarizeSegment(seg segment) string {
	sorted := make([]transcript.Utterance, len(seg.Utterances))
	copy(sorted, seg.Utterances)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Text) > len(sorted[j].Text)
	})

	parts := []string{}
	for i := 0; i < len(sorted) && i < 2; i++ {
		text := truncate(sorted[i].Text, 200)
		if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "…") {
			text += "."
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// buildNarrative renders the markdown collective summary. Headings follow
// the fixed section set the frontend renders.
func buildNarrative(details models.MeetingDetails, chapters []models.Chapter,
	actionItems []models.ActionItem, achievements []models.Achievement, blockers []models.Blocker) string {

	var b strings.Builder

	b.WriteString("## Executive Summary\n")
	fmt.Fprintf(&b, "A %s meeting with %d participants covering %s.\n",
		FormatTimestampMS(details.DurationMS), len(details.Participants), topicsSentence(chapters))
	fmt.Fprintf(&b, "The discussion produced %d action items, %d reported achievements and %d open blockers.\n",
		len(actionItems), len(achievements), len(blockers))

	b.WriteString("\n## Key Discussion Topics\n")
	for _, ch := range chapters {
		fmt.Fprintf(&b, "- **%s**: %s\n", ch.Title, truncate(ch.Summary, 160))
	}

	if len(blockers) > 0 {
		b.WriteString("\n## Concerns & Challenges\n")
		for _, bl := range blockers {
			fmt.Fprintf(&b, "- %s (%s, raised by %s)\n", truncate(bl.Blocker, 160), bl.Severity, bl.Member)
		}
	}

	if len(actionItems) > 0 {
		b.WriteString("\n## Next Steps\n")
		for _, it := range actionItems {
			line := fmt.Sprintf("- %s (%s", truncate(it.Task, 160), it.Owner)
			if it.Deadline != "" {
				line += ", due " + it.Deadline
			}
			line += ")\n"
			b.WriteString(line)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func topicsSentence(chapters []models.Chapter) string {
	if len(chapters) == 0 {
		return "general discussion"
	}
	titles := make([]string, 0, len(chapters))
	for _, ch := range chapters {
		titles = append(titles, ch.Title)
	}
	if len(titles) == 1 {
		return titles[0]
	}
	return strings.Join(titles[:len(titles)-1], ", ") + " and " + titles[len(titles)-1]
}
