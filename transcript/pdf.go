package transcript

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfLinePattern matches "HH:MM:SS Speaker Name: text" with the timestamp
// optional, the format transcript PDF exports flatten to.
var pdfLinePattern = regexp.MustCompile(`^(?:(\d{1,2}:\d{2}(?::\d{2})?(?:\.\d+)?)\s+)?([^:]+):\s+(.+)$`)

// ParsePDF extracts utterances from a PDF transcript export. Lines without a
// timestamp get one synthesized from reading order so downstream segmentation
// still works.
func ParsePDF(path string) ([]Utterance, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	totalPages := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %v", pageIndex, err)
		}

		lines = append(lines, strings.Split(text, "\n")...)
	}

	return parseSpeakerLines(lines), nil
}

// parseSpeakerLines turns flattened "Speaker: text" lines into utterances
func parseSpeakerLines(lines []string) []Utterance {
	utterances := []Utterance{}
	var cursorMS int64

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		match := pdfLinePattern.FindStringSubmatch(line)
		if match == nil {
			// Continuation of the previous utterance
			if len(utterances) > 0 {
				last := &utterances[len(utterances)-1]
				last.Text = last.Text + " " + line
			}
			continue
		}

		startMS := cursorMS
		if match[1] != "" {
			startMS = ParseTimestamp(match[1])
		}

		speaker := strings.TrimSpace(match[2])
		text := strings.TrimSpace(match[3])
		if speaker == "" || strings.EqualFold(speaker, "unknown") {
			speaker = UnknownSpeaker
		}

		// Rough duration estimate keeps synthesized timestamps monotonic
		endMS := startMS + estimateDurationMS(text)
		cursorMS = endMS

		utterances = append(utterances, Utterance{
			StartMS: startMS,
			EndMS:   endMS,
			Speaker: speaker,
			Text:    text,
		})
	}

	return utterances
}

func estimateDurationMS(text string) int64 {
	words := int64(len(strings.Fields(text)))
	ms := words * 400
	if ms < 2000 {
		ms = 2000
	}
	return ms
}
