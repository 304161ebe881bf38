// Package pipeline implements the session processing core: the strict
// uploaded -> anonymised -> organised -> themed state machine, the
// redaction, organisation and theming stages, and the guide lifecycle
// that gates organisation. All language analysis is delegated to an
// Engine; this package owns the invariants.
package pipeline

import (
	"github.com/beuysscout/InsightTool-v2/internal/domain"
	"github.com/beuysscout/InsightTool-v2/internal/storage"
	"github.com/beuysscout/InsightTool-v2/internal/transcript"
)

type Pipeline struct {
	store  *storage.Store
	engine Engine
	locks  keyedMutex // keyed by session id
}

func New(store *storage.Store, engine Engine) *Pipeline {
	return &Pipeline{store: store, engine: engine}
}

// UploadTranscript parses a raw markdown transcript and stores it as a
// new session in the uploaded state. The raw upload itself is discarded;
// only the parsed turns are kept.
func (p *Pipeline) UploadTranscript(projectID, content string) (domain.Session, error) {
	turns := transcript.Parse(content)
	if len(turns) == 0 {
		return domain.Session{}, domain.Validationf("could not parse any turns from transcript")
	}
	return p.store.CreateSession(projectID, turns)
}

// requireStatus guards a stage precondition. Callers must hold the
// session lock.
func requireStatus(session domain.Session, want domain.SessionStatus) error {
	if session.Status != want {
		return &domain.InvalidStateError{Current: session.Status, Want: want}
	}
	return nil
}

// ProjectView is a project with its derived rollup status, computed
// fresh from the guide and session states on every read.
type ProjectView struct {
	domain.Project
	Status domain.ProjectStatus `json:"status"`
}

func (p *Pipeline) ProjectView(projectID string) (ProjectView, error) {
	project, err := p.store.GetProject(projectID)
	if err != nil {
		return ProjectView{}, err
	}
	return p.viewOf(project), nil
}

func (p *Pipeline) ListProjectViews() []ProjectView {
	projects := p.store.ListProjects()
	views := make([]ProjectView, 0, len(projects))
	for _, project := range projects {
		views = append(views, p.viewOf(project))
	}
	return views
}

func (p *Pipeline) viewOf(project domain.Project) ProjectView {
	var guide *domain.ResearchGuide
	if g, err := p.store.GetGuide(project.ID); err == nil {
		guide = &g
	}
	sessions := p.store.ListSessions(project.ID)
	themes := p.store.ListProjectThemes(project.ID)

	return ProjectView{
		Project: project,
		Status:  domain.DeriveProjectStatus(guide, sessions, themes),
	}
}
