package pipeline

import (
	"context"
	"sort"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

// mappingConfidenceFloor is the minimum confidence for a turn to count
// as mapped; anything below lands in off-script.
const mappingConfidenceFloor = 0.5

// Organise aligns an anonymised transcript against the locked guide.
// One SectionMapping per guide section, in guide order; turns the engine
// did not place confidently are collected off-script in transcript
// order. Re-running on an organised session replaces the prior view
// wholesale.
func (p *Pipeline) Organise(ctx context.Context, sessionID string) (domain.OrganisedTranscript, error) {
	unlock := p.locks.lock(sessionID)
	defer unlock()

	session, err := p.store.GetSession(sessionID)
	if err != nil {
		return domain.OrganisedTranscript{}, err
	}
	if session.Status != domain.SessionStatusAnonymised && session.Status != domain.SessionStatusOrganised {
		return domain.OrganisedTranscript{}, &domain.InvalidStateError{Current: session.Status, Want: domain.SessionStatusAnonymised}
	}

	guide, err := p.store.GetGuide(session.ProjectID)
	if err != nil || !guide.Locked {
		return domain.OrganisedTranscript{}, domain.ErrGuideNotLocked
	}

	assignments, err := p.engine.MapTurnsToSections(ctx, session.Transcript, guide.Sections)
	if err != nil {
		return domain.OrganisedTranscript{}, &domain.EngineError{Op: "mapTurnsToSections", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return domain.OrganisedTranscript{}, err
	}

	organised := buildOrganised(session, guide, assignments)

	session.Organised = &organised
	if session.Status == domain.SessionStatusAnonymised {
		session.Status = domain.SessionStatusOrganised
	}
	if _, err := p.store.UpdateSession(session); err != nil {
		return domain.OrganisedTranscript{}, err
	}
	return organised, nil
}

// buildOrganised derives the organised view deterministically from the
// engine's turn assignments. A turn assigned to several sections counts
// only for its highest-confidence assignment.
func buildOrganised(session domain.Session, guide domain.ResearchGuide, assignments []domain.TurnAssignment) domain.OrganisedTranscript {
	best := map[int]domain.TurnAssignment{}
	for _, a := range assignments {
		if a.TurnIndex < 0 || a.TurnIndex >= len(session.Transcript) {
			continue
		}
		if a.Confidence < mappingConfidenceFloor {
			continue
		}
		if guide.Section(a.SectionID) == nil {
			continue
		}
		if current, ok := best[a.TurnIndex]; !ok || a.Confidence > current.Confidence {
			best[a.TurnIndex] = a
		}
	}

	bySection := map[string][]domain.MappedTurn{}
	for idx, a := range best {
		turn := session.Transcript[idx]
		bySection[a.SectionID] = append(bySection[a.SectionID], domain.MappedTurn{
			Index:             turn.Index,
			Speaker:           turn.Speaker,
			Text:              turn.Text,
			Timestamp:         turn.Timestamp,
			MappingConfidence: a.Confidence,
		})
	}

	organised := domain.OrganisedTranscript{
		SessionID:       session.ID,
		ParticipantID:   session.ParticipantID,
		SectionMappings: make([]domain.SectionMapping, 0, len(guide.Sections)),
		OffScriptTurns:  []domain.Turn{},
	}

	for _, section := range guide.Sections {
		mapped := bySection[section.SectionID]
		sort.Slice(mapped, func(i, j int) bool { return mapped[i].Index < mapped[j].Index })
		if mapped == nil {
			mapped = []domain.MappedTurn{}
		}

		organised.SectionMappings = append(organised.SectionMappings, domain.SectionMapping{
			SectionID:      section.SectionID,
			SectionName:    section.SectionName,
			TimeBracket:    section.TimeBracket,
			CoverageStatus: coverageStatus(section, mapped),
			MappedTurns:    mapped,
			CoverageNotes:  coverageNotes(section, mapped),
		})
	}

	for _, turn := range session.Transcript {
		if _, ok := best[turn.Index]; !ok {
			organised.OffScriptTurns = append(organised.OffScriptTurns, turn)
		}
	}

	return organised
}

// coverageStatus derives coverage deterministically: not_covered with
// zero mapped turns; covered when there are at least as many mapped
// turns as required questions (the engine assigns turns to sections,
// not questions, so each required question must be answerable by a
// distinct mapped turn); partial otherwise.
func coverageStatus(section domain.GuideSection, mapped []domain.MappedTurn) domain.CoverageStatus {
	if len(mapped) == 0 {
		return domain.CoverageNotCovered
	}
	required := 0
	for _, q := range section.Questions {
		if q.Required {
			required++
		}
	}
	if len(mapped) >= required {
		return domain.CoverageCovered
	}
	return domain.CoveragePartial
}

func coverageNotes(section domain.GuideSection, mapped []domain.MappedTurn) string {
	switch coverageStatus(section, mapped) {
	case domain.CoverageNotCovered:
		return "No responses mapped to this section."
	case domain.CoveragePartial:
		return "Fewer mapped responses than required questions."
	}
	return ""
}
