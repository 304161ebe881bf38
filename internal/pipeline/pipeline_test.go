package pipeline

import (
	"context"
	"testing"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
	"github.com/beuysscout/InsightTool-v2/internal/storage"
)

// stubEngine lets each test script the analysis responses without any
// network calls.
type stubEngine struct {
	parseGuide func(text, objective string, goals []string) (domain.ParsedGuide, error)
	detectPII  func(turns []domain.Turn, hints domain.PiiHints) ([]domain.PiiDetection, error)
	mapTurns   func(turns []domain.Turn, sections []domain.GuideSection) ([]domain.TurnAssignment, error)
	themesOf   func(organised domain.OrganisedTranscript) ([]domain.Theme, error)
}

func (s *stubEngine) ParseGuide(_ context.Context, text, objective string, goals []string) (domain.ParsedGuide, error) {
	if s.parseGuide == nil {
		return domain.ParsedGuide{}, nil
	}
	return s.parseGuide(text, objective, goals)
}

func (s *stubEngine) DetectPII(_ context.Context, turns []domain.Turn, hints domain.PiiHints) ([]domain.PiiDetection, error) {
	if s.detectPII == nil {
		return nil, nil
	}
	return s.detectPII(turns, hints)
}

func (s *stubEngine) MapTurnsToSections(_ context.Context, turns []domain.Turn, sections []domain.GuideSection) ([]domain.TurnAssignment, error) {
	if s.mapTurns == nil {
		return nil, nil
	}
	return s.mapTurns(turns, sections)
}

func (s *stubEngine) ExtractThemes(_ context.Context, organised domain.OrganisedTranscript) ([]domain.Theme, error) {
	if s.themesOf == nil {
		return nil, nil
	}
	return s.themesOf(organised)
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func createTestProject(t *testing.T, store *storage.Store) domain.Project {
	t.Helper()
	project, err := store.CreateProject("Checkout study")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return project
}

func createTestSession(t *testing.T, store *storage.Store, projectID string, turns []domain.Turn) domain.Session {
	t.Helper()
	session, err := store.CreateSession(projectID, turns)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return session
}

// lockedTestGuide saves a locked two-section guide for the project. S1
// carries one required question, S2 carries one required question.
func lockedTestGuide(t *testing.T, store *storage.Store, projectID string) domain.ResearchGuide {
	t.Helper()
	guide := domain.ResearchGuide{
		ProjectID:   projectID,
		ProjectName: "Checkout study",
		Objective:   "Understand checkout friction",
		Sections: []domain.GuideSection{
			{
				SectionID:   "s1",
				SectionName: "Warm-up",
				Questions: []domain.Question{
					{QuestionID: "q1", Text: "Tell me about your last purchase.", Required: true},
				},
			},
			{
				SectionID:   "s2",
				SectionName: "Payment",
				Questions: []domain.Question{
					{QuestionID: "q2", Text: "How did you pay?", Required: true},
				},
			},
		},
		Version: 1,
		Locked:  true,
	}
	saved, err := store.SaveGuide(guide)
	if err != nil {
		t.Fatalf("SaveGuide: %v", err)
	}
	return saved
}

func fiveTurns() []domain.Turn {
	return []domain.Turn{
		{Index: 0, Speaker: "Interviewer", Text: "Tell me about your last purchase.", IsInterviewer: true},
		{Index: 1, Speaker: "P01", Text: "I bought running shoes last week."},
		{Index: 2, Speaker: "P01", Text: "Actually, can I grab some water first?"},
		{Index: 3, Speaker: "Interviewer", Text: "Of course.", IsInterviewer: true},
		{Index: 4, Speaker: "P01", Text: "Thanks, back now."},
	}
}
