// Package transcript parses raw markdown interview transcripts into
// canonical turns. It understands the common export patterns:
//
//	**Speaker Name:** text
//	Speaker Name: text
//	[00:12:34] Speaker Name: text
//	a timestamp on its own line followed by a speaker line
//
// Multi-line answers accumulate onto the current turn until the next
// speaker line.
package transcript

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

var (
	speakerLinePattern = regexp.MustCompile(
		`^(?:\[?(\d{1,2}:\d{2}(?::\d{2})?)\]?\s+)?\*{0,2}([A-Za-z][A-Za-z0-9 .'_-]+?)\*{0,2}\s*:\s*(.+)$`,
	)
	standaloneTimestamp = regexp.MustCompile(`^\s*\[?(\d{1,2}:\d{2}(?::\d{2})?)\]?\s*$`)
)

var interviewerIndicators = []string{
	"interviewer",
	"moderator",
	"researcher",
	"facilitator",
	"host",
}

// Parse turns a raw markdown transcript into an ordered list of turns.
// Turn indices are assigned sequentially from zero and are stable from
// this point on.
func Parse(content string) []domain.Turn {
	var (
		turns            []domain.Turn
		currentSpeaker   string
		currentParts     []string
		currentTimestamp string
		pendingTimestamp string
	)

	flush := func() {
		if currentSpeaker == "" || len(currentParts) == 0 {
			return
		}
		text := strings.TrimSpace(strings.Join(currentParts, " "))
		if text == "" {
			return
		}
		turns = append(turns, domain.Turn{
			Index:         len(turns),
			Speaker:       strings.TrimSpace(currentSpeaker),
			Text:          text,
			Timestamp:     currentTimestamp,
			IsInterviewer: isInterviewer(currentSpeaker),
		})
	}

	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)

		if stripped == "" || strings.HasPrefix(stripped, "#") || stripped == "---" {
			continue
		}

		if m := standaloneTimestamp.FindStringSubmatch(stripped); m != nil {
			pendingTimestamp = normaliseTimestamp(m[1])
			continue
		}

		if m := speakerLinePattern.FindStringSubmatch(stripped); m != nil {
			flush()
			if m[1] != "" {
				currentTimestamp = normaliseTimestamp(m[1])
			} else {
				currentTimestamp = pendingTimestamp
			}
			pendingTimestamp = ""
			currentSpeaker = m[2]
			currentParts = []string{strings.TrimSpace(m[3])}
			continue
		}

		if currentSpeaker != "" {
			currentParts = append(currentParts, stripped)
		}
	}

	flush()
	return turns
}

// normaliseTimestamp pads a mm:ss or h:mm:ss stamp to HH:MM:SS.
func normaliseTimestamp(ts string) string {
	parts := strings.Split(ts, ":")
	if len(parts) == 2 {
		return fmt.Sprintf("00:%s:%s", zfill(parts[0]), zfill(parts[1]))
	}
	return fmt.Sprintf("%s:%s:%s", zfill(parts[0]), zfill(parts[1]), zfill(parts[2]))
}

func zfill(part string) string {
	if len(part) < 2 {
		return "0" + part
	}
	return part
}

func isInterviewer(speaker string) bool {
	lower := strings.ToLower(strings.TrimSpace(speaker))
	for _, indicator := range interviewerIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
