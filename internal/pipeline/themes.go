package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

// ExtractThemes runs thematic analysis over the organised view (never
// the raw transcript, so every theme's evidence already carries a guide
// section) and advances the session to themed. Every theme starts
// proposed with no researcher notes.
func (p *Pipeline) ExtractThemes(ctx context.Context, sessionID string) (domain.SessionThemes, error) {
	unlock := p.locks.lock(sessionID)
	defer unlock()

	session, err := p.store.GetSession(sessionID)
	if err != nil {
		return domain.SessionThemes{}, err
	}
	if err := requireStatus(session, domain.SessionStatusOrganised); err != nil {
		return domain.SessionThemes{}, err
	}
	if session.Organised == nil {
		return domain.SessionThemes{}, domain.Validationf("session %s has no organised transcript", sessionID)
	}

	themes, err := p.engine.ExtractThemes(ctx, *session.Organised)
	if err != nil {
		return domain.SessionThemes{}, &domain.EngineError{Op: "extractThemes", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return domain.SessionThemes{}, err
	}

	for i := range themes {
		if themes[i].ID == "" {
			themes[i].ID = uuid.NewString()
		}
		themes[i].Status = domain.ThemeStatusProposed
		themes[i].ResearcherNotes = ""
	}

	sessionThemes := domain.SessionThemes{
		SessionID:     session.ID,
		ParticipantID: session.ParticipantID,
		Themes:        themes,
	}
	if sessionThemes.Themes == nil {
		sessionThemes.Themes = []domain.Theme{}
	}

	// Themes land before the status advances; if the advance fails the
	// session stays organised and the extraction can simply run again.
	if _, err := p.store.SaveThemes(sessionThemes); err != nil {
		return domain.SessionThemes{}, err
	}

	session.Status = domain.SessionStatusThemed
	if _, err := p.store.UpdateSession(session); err != nil {
		return domain.SessionThemes{}, err
	}
	return sessionThemes, nil
}

// SetThemeStatus applies a researcher decision. Legal transitions are
// proposed -> accepted and proposed -> discarded; re-applying the
// current status is idempotent; accepted and discarded are terminal.
func (p *Pipeline) SetThemeStatus(sessionID, themeID string, status domain.ThemeStatus, notes string) (domain.Theme, error) {
	unlock := p.locks.lock(sessionID)
	defer unlock()

	switch status {
	case domain.ThemeStatusProposed, domain.ThemeStatusAccepted, domain.ThemeStatusDiscarded:
	default:
		return domain.Theme{}, domain.Validationf("unknown theme status %q", status)
	}

	themes, err := p.store.GetThemes(sessionID)
	if err != nil {
		return domain.Theme{}, err
	}

	idx := -1
	for i := range themes.Themes {
		if themes.Themes[i].ID == themeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Theme{}, fmt.Errorf("theme %s: %w", themeID, domain.ErrNotFound)
	}

	theme := &themes.Themes[idx]
	if theme.Status != status {
		if theme.Status != domain.ThemeStatusProposed {
			return domain.Theme{}, domain.ErrInvalidTransition
		}
	}
	theme.Status = status
	if notes != "" {
		theme.ResearcherNotes = notes
	}

	if _, err := p.store.SaveThemes(themes); err != nil {
		return domain.Theme{}, err
	}
	return *theme, nil
}

// ListProjectThemes is the read-only cross-session rollup, ordered by
// session upload time.
func (p *Pipeline) ListProjectThemes(projectID string) ([]domain.SessionThemes, error) {
	if _, err := p.store.GetProject(projectID); err != nil {
		return nil, err
	}
	return p.store.ListProjectThemes(projectID), nil
}

// SessionThemes returns the themes for one session.
func (p *Pipeline) SessionThemes(sessionID string) (domain.SessionThemes, error) {
	return p.store.GetThemes(sessionID)
}
