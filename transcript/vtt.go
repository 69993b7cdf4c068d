package transcript

import (
	"regexp"
	"strconv"
	"strings"
)

// Utterance is a single spoken line with timestamps and speaker attribution
type Utterance struct {
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// UnknownSpeaker is the attribution used when no speaker could be extracted
const UnknownSpeaker = "Speaker ?"

var (
	cuePattern   = regexp.MustCompile(`([\d:.]+)\s*-->\s*([\d:.]+)`)
	voicePattern = regexp.MustCompile(`<v\s+([^>]+)>(.*)`)
	colonPattern = regexp.MustCompile(`^([^:]+):\s*(.*)$`)
)

// ParseTimestamp converts a VTT timestamp (HH:MM:SS.mmm or MM:SS.mmm) to
// milliseconds. Malformed input yields 0.
func ParseTimestamp(ts string) int64 {
	ts = strings.TrimSpace(ts)
	parts := strings.Split(ts, ":")

	var h, m int64
	var secPart string
	switch len(parts) {
	case 3:
		h, _ = strconv.ParseInt(parts[0], 10, 64)
		m, _ = strconv.ParseInt(parts[1], 10, 64)
		secPart = parts[2]
	case 2:
		m, _ = strconv.ParseInt(parts[0], 10, 64)
		secPart = parts[1]
	default:
		return 0
	}

	var sec, ms int64
	if dot := strings.Index(secPart, "."); dot >= 0 {
		sec, _ = strconv.ParseInt(secPart[:dot], 10, 64)
		ms, _ = strconv.ParseInt(secPart[dot+1:], 10, 64)
	} else {
		sec, _ = strconv.ParseInt(secPart, 10, 64)
	}

	return (h*3600+m*60+sec)*1000 + ms
}

// ParseVTT parses WEBVTT content (Teams export format) into utterances.
// Both `<v Speaker Name>text` and `Speaker Name: text` cue payloads are
// recognized; cues with no text are dropped.
func ParseVTT(content string) []Utterance {
	utterances := []Utterance{}

	lines := strings.Split(content, "\n")
	i := 0
	n := len(lines)

	// Skip everything up to and including the WEBVTT header
	for i < n && !strings.HasPrefix(strings.TrimSpace(lines[i]), "WEBVTT") {
		i++
	}
	if i < n {
		i++
	}

	for i < n {
		line := strings.TrimSpace(lines[i])

		if line == "" || strings.HasPrefix(line, "NOTE") {
			i++
			continue
		}

		if strings.Contains(line, "-->") {
			if match := cuePattern.FindStringSubmatch(line); match != nil {
				startMS := ParseTimestamp(match[1])
				endMS := ParseTimestamp(match[2])

				// Next line carries speaker and text
				i++
				if i < n {
					textLine := strings.TrimSpace(lines[i])
					speaker, text := splitSpeaker(textLine)

					if text != "" {
						utterances = append(utterances, Utterance{
							StartMS: startMS,
							EndMS:   endMS,
							Speaker: speaker,
							Text:    text,
						})
					}
				}
			}
		}

		i++
	}

	return utterances
}

// splitSpeaker extracts the speaker attribution from a cue payload line
func splitSpeaker(line string) (string, string) {
	speaker := ""
	text := line

	if match := voicePattern.FindStringSubmatch(line); match != nil {
		speaker = strings.TrimSpace(match[1])
		text = strings.TrimSpace(match[2])
	} else if match := colonPattern.FindStringSubmatch(line); match != nil {
		speaker = strings.TrimSpace(match[1])
		text = strings.TrimSpace(match[2])
	}

	if speaker == "" || strings.EqualFold(speaker, "unknown") {
		speaker = UnknownSpeaker
	}

	return speaker, text
}
