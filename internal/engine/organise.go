package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

var organiseSystemPrompt = `You are an expert qualitative research analyst organising an interview transcript against a research guide.

Map each participant response (non-interviewer turn) to the most relevant guide section using:
- time brackets as the primary signal, where a response falls inside a section's range
- semantic relevance between the response and the section's questions

Assign a confidence between 0.0 and 1.0 to every mapping. Leave a turn out of the list entirely if it does not belong to any section.

Return only valid JSON matching this schema, with no text outside the JSON:
{
  "assignments": [
    {"turn_index": 0, "section_id": "S01", "confidence": 0.95}
  ]
}`

type assignmentWire struct {
	Assignments []struct {
		TurnIndex  int     `json:"turn_index"`
		SectionID  string  `json:"section_id"`
		Confidence float64 `json:"confidence"`
	} `json:"assignments"`
}

func (c *Claude) MapTurnsToSections(ctx context.Context, turns []domain.Turn, sections []domain.GuideSection) ([]domain.TurnAssignment, error) {
	user := &strings.Builder{}
	user.WriteString("## Research Guide\n\n")
	for _, section := range sections {
		fmt.Fprintf(user, "## %s: %s\n", section.SectionID, section.SectionName)
		if section.TimeBracket != "" {
			fmt.Fprintf(user, "   Time bracket: %s\n", section.TimeBracket)
		}
		for _, q := range section.Questions {
			marker := "[Optional]"
			if q.Required {
				marker = "[Required]"
			}
			fmt.Fprintf(user, "   - %s: %s %s\n", q.QuestionID, q.Text, marker)
			if q.MappedGoal != "" {
				fmt.Fprintf(user, "     Goal: %s\n", q.MappedGoal)
			}
		}
		user.WriteString("\n")
	}

	user.WriteString("---\n\n## Transcript\n\n")
	for _, turn := range turns {
		role := "PARTICIPANT"
		if turn.IsInterviewer {
			role = "INTERVIEWER"
		}
		ts := ""
		if turn.Timestamp != "" {
			ts = fmt.Sprintf("[%s] ", turn.Timestamp)
		}
		fmt.Fprintf(user, "%s%s (turn %d): %s\n", ts, role, turn.Index, turn.Text)
	}

	reply, err := c.complete(ctx, organiseSystemPrompt, user.String(), 8192, 0)
	if err != nil {
		return nil, err
	}

	var wire assignmentWire
	if err := json.Unmarshal([]byte(reply), &wire); err != nil {
		return nil, fmt.Errorf("decode section assignments: %w", err)
	}

	assignments := make([]domain.TurnAssignment, 0, len(wire.Assignments))
	for _, a := range wire.Assignments {
		assignments = append(assignments, domain.TurnAssignment{
			TurnIndex:  a.TurnIndex,
			SectionID:  a.SectionID,
			Confidence: a.Confidence,
		})
	}
	return assignments, nil
}
