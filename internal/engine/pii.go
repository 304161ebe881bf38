package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

var piiSystemPrompt = `You are scanning an interview transcript for personally identifiable information before it is stored.

Find every span of PERSON, EMAIL, PHONE, LOCATION or COMPANY in the turns below. Offsets are byte offsets into the turn's text, start inclusive, end exclusive, and the "text" field must be the exact substring at those offsets.

Return only valid JSON matching this schema, with no text outside the JSON:
{
  "detections": [
    {
      "turn_index": 0,
      "start_offset": 10,
      "end_offset": 14,
      "text": "exact substring",
      "pii_type": "PERSON|EMAIL|PHONE|LOCATION|COMPANY",
      "confidence": 0.95
    }
  ]
}`

// piiTokenMap standardises replacement tokens per detected type.
var piiTokenMap = map[string]string{
	"PERSON":   "[NAME]",
	"EMAIL":    "[EMAIL]",
	"PHONE":    "[PHONE]",
	"LOCATION": "[LOCATION]",
	"COMPANY":  "[COMPANY]",
}

type piiWire struct {
	Detections []struct {
		TurnIndex   int     `json:"turn_index"`
		StartOffset int     `json:"start_offset"`
		EndOffset   int     `json:"end_offset"`
		Text        string  `json:"text"`
		PiiType     string  `json:"pii_type"`
		Confidence  float64 `json:"confidence"`
	} `json:"detections"`
}

func (c *Claude) DetectPII(ctx context.Context, turns []domain.Turn, hints domain.PiiHints) ([]domain.PiiDetection, error) {
	user := &strings.Builder{}
	if hints.InterviewerName != "" {
		fmt.Fprintf(user, "Known interviewer name: %s\n", hints.InterviewerName)
	}
	if hints.ParticipantName != "" {
		fmt.Fprintf(user, "Known participant name: %s\n", hints.ParticipantName)
	}
	user.WriteString("\nTranscript turns:\n\n")
	for _, turn := range turns {
		fmt.Fprintf(user, "turn %d: %s\n", turn.Index, turn.Text)
	}

	reply, err := c.complete(ctx, piiSystemPrompt, user.String(), 8192, 0)
	if err != nil {
		return nil, err
	}

	var wire piiWire
	if err := json.Unmarshal([]byte(reply), &wire); err != nil {
		return nil, fmt.Errorf("decode pii detections: %w", err)
	}

	detections := make([]domain.PiiDetection, 0, len(wire.Detections))
	for _, d := range wire.Detections {
		detections = append(detections, domain.PiiDetection{
			ID:               uuid.NewString(),
			TurnIndex:        d.TurnIndex,
			StartOffset:      d.StartOffset,
			EndOffset:        d.EndOffset,
			OriginalText:     d.Text,
			PiiType:          d.PiiType,
			ReplacementToken: replacementToken(d.Text, d.PiiType, hints),
			Confidence:       d.Confidence,
			Status:           domain.DetectionRedacted,
		})
	}
	return detections, nil
}

func replacementToken(original, piiType string, hints domain.PiiHints) string {
	if hints.ParticipantName != "" && strings.EqualFold(original, hints.ParticipantName) {
		return "[PARTICIPANT]"
	}
	if hints.InterviewerName != "" && strings.EqualFold(original, hints.InterviewerName) {
		return "[INTERVIEWER]"
	}
	if token, ok := piiTokenMap[piiType]; ok {
		return token
	}
	return "[REDACTED]"
}
