package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

var guideReviewSystemPrompt = `You are an expert UX research methodologist reviewing an interview guide for a discovery study.

Your job:
1. Parse the guide into sections, questions, time brackets and objectives. Assign stable identifiers (S01, S02, ... and Q01, Q02, ...).
2. Review each question: flag leading questions, ambiguous questions, and questions out of scope for the stated objectives.
3. Check that every research goal has at least one mapped question; report gaps.
4. Suggest probe questions where more depth may be needed.
5. Estimate the total session duration in minutes.

Return only valid JSON matching this schema, with no text outside the JSON:
{
  "sections": [
    {
      "section_id": "S01",
      "section_name": "string",
      "time_bracket": "0:00-10:00",
      "questions": [
        {
          "question_id": "Q01",
          "question_text": "string",
          "mapped_goal": "goal text or null",
          "required": true,
          "probes": ["string"]
        }
      ]
    }
  ],
  "flags": [
    {
      "flag_type": "leading|ambiguous|out_of_scope|missing_coverage",
      "message": "string",
      "suggestion": "string or null"
    }
  ],
  "suggested_probes": [{"question_id": "Q01", "probe": "string"}],
  "coverage_gaps": ["goal text that has no questions"],
  "estimated_duration_minutes": 45
}`

type guideReviewWire struct {
	Sections []struct {
		SectionID   string `json:"section_id"`
		SectionName string `json:"section_name"`
		TimeBracket string `json:"time_bracket"`
		Questions   []struct {
			QuestionID   string   `json:"question_id"`
			QuestionText string   `json:"question_text"`
			MappedGoal   string   `json:"mapped_goal"`
			Required     bool     `json:"required"`
			Probes       []string `json:"probes"`
		} `json:"questions"`
	} `json:"sections"`
	Flags []struct {
		FlagType   string `json:"flag_type"`
		Message    string `json:"message"`
		Suggestion string `json:"suggestion"`
	} `json:"flags"`
	SuggestedProbes []struct {
		QuestionID string `json:"question_id"`
		Probe      string `json:"probe"`
	} `json:"suggested_probes"`
	CoverageGaps             []string `json:"coverage_gaps"`
	EstimatedDurationMinutes int      `json:"estimated_duration_minutes"`
}

func (c *Claude) ParseGuide(ctx context.Context, text, objective string, goals []string) (domain.ParsedGuide, error) {
	user := &strings.Builder{}
	if objective != "" {
		fmt.Fprintf(user, "Objective: %s\n", objective)
	}
	if len(goals) > 0 {
		user.WriteString("Research goals:\n")
		for i, goal := range goals {
			fmt.Fprintf(user, "  %d. %s\n", i+1, goal)
		}
	}
	fmt.Fprintf(user, "\n---\n\nInterview Guide:\n\n%s", text)

	reply, err := c.complete(ctx, guideReviewSystemPrompt, user.String(), 4096, 0)
	if err != nil {
		return domain.ParsedGuide{}, err
	}

	var wire guideReviewWire
	if err := json.Unmarshal([]byte(reply), &wire); err != nil {
		return domain.ParsedGuide{}, fmt.Errorf("decode guide review: %w", err)
	}

	parsed := domain.ParsedGuide{
		CoverageGaps:             wire.CoverageGaps,
		EstimatedDurationMinutes: wire.EstimatedDurationMinutes,
	}

	for _, s := range wire.Sections {
		section := domain.GuideSection{
			SectionID:   s.SectionID,
			SectionName: s.SectionName,
			TimeBracket: s.TimeBracket,
		}
		for _, q := range s.Questions {
			probes := q.Probes
			if probes == nil {
				probes = []string{}
			}
			section.Questions = append(section.Questions, domain.Question{
				QuestionID: q.QuestionID,
				Text:       q.QuestionText,
				MappedGoal: q.MappedGoal,
				Required:   q.Required,
				Probes:     probes,
				Flags:      []domain.AiFlag{},
			})
		}
		parsed.Sections = append(parsed.Sections, section)
	}

	for _, f := range wire.Flags {
		parsed.Flags = append(parsed.Flags, domain.AiFlag{
			ID:         uuid.NewString(),
			Type:       domain.FlagType(f.FlagType),
			Message:    f.Message,
			Suggestion: f.Suggestion,
			Status:     domain.FlagStatusOpen,
		})
	}

	for _, p := range wire.SuggestedProbes {
		parsed.SuggestedProbes = append(parsed.SuggestedProbes, domain.SuggestedProbe{
			QuestionID: p.QuestionID,
			Probe:      p.Probe,
		})
	}

	return parsed, nil
}
