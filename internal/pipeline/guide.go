package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
	"github.com/beuysscout/InsightTool-v2/internal/storage"
)

// GuideManager owns the guide's draft/lock lifecycle. A locked guide is
// the stable question set every downstream session is organised against,
// so locking is irreversible here; only flag dismissal survives the lock.
type GuideManager struct {
	store  *storage.Store
	engine Engine
	locks  keyedMutex // keyed by project id
}

func NewGuideManager(store *storage.Store, engine Engine) *GuideManager {
	return &GuideManager{store: store, engine: engine}
}

// Ingest parses and reviews a raw guide upload, storing the result as
// version 1, unlocked. Re-ingesting replaces an unlocked guide; a locked
// guide can not be replaced through this path.
func (g *GuideManager) Ingest(ctx context.Context, projectID, rawText, objective string, goals []string) (domain.GuideReview, error) {
	project, err := g.store.GetProject(projectID)
	if err != nil {
		return domain.GuideReview{}, err
	}

	parsed, err := g.engine.ParseGuide(ctx, rawText, objective, goals)
	if err != nil {
		return domain.GuideReview{}, &domain.EngineError{Op: "parseGuide", Err: err}
	}
	if len(parsed.Sections) == 0 {
		return domain.GuideReview{}, domain.Validationf("could not parse a structured guide from the uploaded file")
	}
	if err := ctx.Err(); err != nil {
		return domain.GuideReview{}, err
	}

	unlock := g.locks.lock(projectID)
	defer unlock()

	if current, err := g.store.GetGuide(projectID); err == nil && current.Locked {
		return domain.GuideReview{}, domain.ErrGuideLocked
	}

	guide := domain.ResearchGuide{
		ProjectID:                projectID,
		ProjectName:              project.Name,
		Objective:                strings.TrimSpace(objective),
		ResearchGoals:            goals,
		Sections:                 parsed.Sections,
		ReviewFlags:              parsed.Flags,
		CoverageGaps:             parsed.CoverageGaps,
		EstimatedDurationMinutes: parsed.EstimatedDurationMinutes,
		Version:                  1,
		Locked:                   false,
	}
	if guide.ResearchGoals == nil {
		guide.ResearchGoals = []string{}
	}
	if guide.ReviewFlags == nil {
		guide.ReviewFlags = []domain.AiFlag{}
	}
	if guide.CoverageGaps == nil {
		guide.CoverageGaps = []string{}
	}

	saved, err := g.store.SaveGuide(guide)
	if err != nil {
		return domain.GuideReview{}, err
	}

	return domain.GuideReview{
		Guide:                    saved,
		Flags:                    saved.ReviewFlags,
		SuggestedProbes:          parsed.SuggestedProbes,
		CoverageGaps:             saved.CoverageGaps,
		EstimatedDurationMinutes: saved.EstimatedDurationMinutes,
	}, nil
}

// Update applies a structural edit to an unlocked guide and bumps its
// version. Any update against a locked guide is rejected outright, even
// a textual no-op, to keep the contract auditable.
func (g *GuideManager) Update(projectID string, patch domain.GuidePatch) (domain.ResearchGuide, error) {
	unlock := g.locks.lock(projectID)
	defer unlock()

	guide, err := g.store.GetGuide(projectID)
	if err != nil {
		return domain.ResearchGuide{}, err
	}
	if guide.Locked {
		return domain.ResearchGuide{}, domain.ErrGuideLocked
	}

	if patch.Objective != nil {
		guide.Objective = strings.TrimSpace(*patch.Objective)
	}
	if patch.ResearchGoals != nil {
		guide.ResearchGoals = *patch.ResearchGoals
	}
	if patch.Sections != nil {
		guide.Sections = *patch.Sections
	}
	guide.Version++

	return g.store.SaveGuide(guide)
}

// Lock freezes the guide. Idempotent: locking a locked guide returns it
// unchanged. There is no unlock.
func (g *GuideManager) Lock(projectID string) (domain.ResearchGuide, error) {
	unlock := g.locks.lock(projectID)
	defer unlock()

	guide, err := g.store.GetGuide(projectID)
	if err != nil {
		return domain.ResearchGuide{}, err
	}
	if guide.Locked {
		return guide, nil
	}

	guide.Locked = true
	return g.store.SaveGuide(guide)
}

// DismissFlag moves a review flag to dismissed. Flags are addressed by
// their stable identifier, never by position, and dismissal is the one
// mutation still allowed after the guide is locked.
func (g *GuideManager) DismissFlag(projectID, flagID string) (domain.ResearchGuide, error) {
	unlock := g.locks.lock(projectID)
	defer unlock()

	guide, err := g.store.GetGuide(projectID)
	if err != nil {
		return domain.ResearchGuide{}, err
	}

	if !dismissFlag(&guide, flagID) {
		return domain.ResearchGuide{}, fmt.Errorf("flag %s: %w", flagID, domain.ErrNotFound)
	}

	return g.store.SaveGuide(guide)
}

func dismissFlag(guide *domain.ResearchGuide, flagID string) bool {
	for i := range guide.ReviewFlags {
		if guide.ReviewFlags[i].ID == flagID {
			guide.ReviewFlags[i].Status = domain.FlagStatusDismissed
			return true
		}
	}
	for si := range guide.Sections {
		for qi := range guide.Sections[si].Questions {
			flags := guide.Sections[si].Questions[qi].Flags
			for fi := range flags {
				if flags[fi].ID == flagID {
					flags[fi].Status = domain.FlagStatusDismissed
					return true
				}
			}
		}
	}
	return false
}
