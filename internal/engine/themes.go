package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

var themeSystemPrompt = `You are an expert qualitative research analyst performing inductive thematic analysis on one interview.

Identify emergent themes: recurring patterns, strong sentiments or significant behaviours. Every theme must be grounded in at least one verbatim quote with its turn index, timestamp and guide section. A theme may span multiple sections; off-script responses often hold the most interesting patterns.

Return only valid JSON matching this schema, with no text outside the JSON:
{
  "themes": [
    {
      "theme_name": "string",
      "theme_description": "1-2 sentence description",
      "evidence": [
        {
          "quote": "exact verbatim quote",
          "timestamp": "00:12:34",
          "turn_index": 5,
          "guide_section": "section name or Off-script",
          "guide_question_id": "Q01 or null"
        }
      ],
      "instance_count": 3
    }
  ]
}`

type themeWire struct {
	Themes []struct {
		ThemeName        string `json:"theme_name"`
		ThemeDescription string `json:"theme_description"`
		Evidence         []struct {
			Quote           string `json:"quote"`
			Timestamp       string `json:"timestamp"`
			TurnIndex       int    `json:"turn_index"`
			GuideSection    string `json:"guide_section"`
			GuideQuestionID string `json:"guide_question_id"`
		} `json:"evidence"`
		InstanceCount int `json:"instance_count"`
	} `json:"themes"`
}

func (c *Claude) ExtractThemes(ctx context.Context, organised domain.OrganisedTranscript) ([]domain.Theme, error) {
	user := &strings.Builder{}
	fmt.Fprintf(user, "Analyse this organised transcript and extract emergent themes.\n\nParticipant: %s\n\n", organised.ParticipantID)

	for _, mapping := range organised.SectionMappings {
		fmt.Fprintf(user, "## %s (%s) - %s\n", mapping.SectionName, mapping.TimeBracket, mapping.CoverageStatus)
		for _, mt := range mapping.MappedTurns {
			ts := ""
			if mt.Timestamp != "" {
				ts = fmt.Sprintf("[%s] ", mt.Timestamp)
			}
			fmt.Fprintf(user, "  %s(turn %d): %q\n", ts, mt.Index, mt.Text)
		}
		if mapping.CoverageNotes != "" {
			fmt.Fprintf(user, "  Note: %s\n", mapping.CoverageNotes)
		}
		user.WriteString("\n")
	}

	if len(organised.OffScriptTurns) > 0 {
		user.WriteString("## Off-script responses\n")
		for _, turn := range organised.OffScriptTurns {
			ts := ""
			if turn.Timestamp != "" {
				ts = fmt.Sprintf("[%s] ", turn.Timestamp)
			}
			fmt.Fprintf(user, "  %s(turn %d): %q\n", ts, turn.Index, turn.Text)
		}
	}

	reply, err := c.complete(ctx, themeSystemPrompt, user.String(), 4096, 0.3)
	if err != nil {
		return nil, err
	}

	var wire themeWire
	if err := json.Unmarshal([]byte(reply), &wire); err != nil {
		return nil, fmt.Errorf("decode themes: %w", err)
	}

	themes := make([]domain.Theme, 0, len(wire.Themes))
	for _, t := range wire.Themes {
		evidence := make([]domain.ThemeEvidence, 0, len(t.Evidence))
		for _, e := range t.Evidence {
			evidence = append(evidence, domain.ThemeEvidence{
				Quote:           e.Quote,
				ParticipantID:   organised.ParticipantID,
				Timestamp:       e.Timestamp,
				TurnIndex:       e.TurnIndex,
				GuideSection:    e.GuideSection,
				GuideQuestionID: e.GuideQuestionID,
			})
		}
		count := t.InstanceCount
		if count == 0 {
			count = len(evidence)
		}
		themes = append(themes, domain.Theme{
			ID:            uuid.NewString(),
			Name:          t.ThemeName,
			Description:   t.ThemeDescription,
			Evidence:      evidence,
			InstanceCount: count,
			Status:        domain.ThemeStatusProposed,
		})
	}
	return themes, nil
}
