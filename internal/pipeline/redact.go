package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

// ScanPII runs PII detection over an uploaded session's transcript and
// stores the detections for researcher review. Every detection defaults
// to redacted. Scanning again replaces the pending set wholesale; scans
// are never additive.
func (p *Pipeline) ScanPII(ctx context.Context, sessionID string, hints domain.PiiHints) ([]domain.PiiDetection, error) {
	unlock := p.locks.lock(sessionID)
	defer unlock()

	session, err := p.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(session, domain.SessionStatusUploaded); err != nil {
		return nil, err
	}

	detections, err := p.engine.DetectPII(ctx, session.Transcript, hints)
	if err != nil {
		return nil, &domain.EngineError{Op: "detectPii", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if detections == nil {
		detections = []domain.PiiDetection{}
	}

	session.AnonymisationLog.Pending = detections
	if _, err := p.store.UpdateSession(session); err != nil {
		return nil, err
	}
	return detections, nil
}

// Anonymise commits researcher-reviewed redactions. Every detection
// marked redacted has its span replaced with its token; kept spans stay
// untouched. Offsets address the original per-turn text, so spans within
// one turn are applied in descending start order to avoid drift. The
// commit fails closed: if any redacted span can not be verified against
// the original text, nothing is applied and the session stays uploaded.
// On success the original turn text is discarded everywhere, which is
// the irreversibility guarantee.
func (p *Pipeline) Anonymise(sessionID string, detections []domain.PiiDetection) (domain.Session, error) {
	unlock := p.locks.lock(sessionID)
	defer unlock()

	session, err := p.store.GetSession(sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if err := requireStatus(session, domain.SessionStatusUploaded); err != nil {
		return domain.Session{}, err
	}

	byTurn := map[int][]domain.PiiDetection{}
	kept := 0
	for _, d := range detections {
		switch d.Status {
		case domain.DetectionRedacted:
			if err := validateSpan(session.Transcript, d); err != nil {
				return domain.Session{}, err
			}
			byTurn[d.TurnIndex] = append(byTurn[d.TurnIndex], d)
		case domain.DetectionKept:
			kept++
		default:
			return domain.Session{}, domain.Validationf("detection %s has unknown status %q", d.ID, d.Status)
		}
	}

	redacted := 0
	anonymised := make([]domain.Turn, len(session.Transcript))
	for i, turn := range session.Transcript {
		spans := byTurn[turn.Index]
		if len(spans) == 0 {
			anonymised[i] = turn
			continue
		}

		sort.Slice(spans, func(a, b int) bool { return spans[a].StartOffset > spans[b].StartOffset })
		for s := 1; s < len(spans); s++ {
			if spans[s].EndOffset > spans[s-1].StartOffset {
				return domain.Session{}, domain.Validationf("overlapping redaction spans in turn %d", turn.Index)
			}
		}

		text := turn.Text
		for _, span := range spans {
			text = text[:span.StartOffset] + span.ReplacementToken + text[span.EndOffset:]
			redacted++
		}
		turn.Text = text
		anonymised[i] = turn
	}

	session.Transcript = anonymised
	session.AnonymisationLog = domain.AnonymisationLog{
		AutoRedacted:       redacted,
		ResearcherReviewed: kept,
		Excluded:           countExcluded(session.AnonymisationLog.Pending, detections),
	}
	session.Status = domain.SessionStatusAnonymised

	return p.store.UpdateSession(session)
}

// validateSpan verifies a redacted span still addresses the exact
// original substring. Any mismatch rejects the whole commit rather than
// risking a partially redacted transcript.
func validateSpan(turns []domain.Turn, d domain.PiiDetection) error {
	if d.TurnIndex < 0 || d.TurnIndex >= len(turns) {
		return domain.Validationf("detection %s references turn %d which does not exist", d.ID, d.TurnIndex)
	}
	text := turns[d.TurnIndex].Text
	if d.StartOffset < 0 || d.EndOffset > len(text) || d.StartOffset >= d.EndOffset {
		return domain.Validationf("detection %s has invalid offsets [%d,%d) for turn %d", d.ID, d.StartOffset, d.EndOffset, d.TurnIndex)
	}
	if d.OriginalText != "" && text[d.StartOffset:d.EndOffset] != d.OriginalText {
		return domain.Validationf("detection %s no longer matches turn %d text", d.ID, d.TurnIndex)
	}
	if strings.TrimSpace(d.ReplacementToken) == "" {
		return domain.Validationf("detection %s has no replacement token", d.ID)
	}
	return nil
}

// countExcluded counts detections from the last scan the researcher
// left out of the commit entirely.
func countExcluded(pending, submitted []domain.PiiDetection) int {
	if len(pending) == 0 {
		return 0
	}
	seen := map[string]struct{}{}
	for _, d := range submitted {
		seen[d.ID] = struct{}{}
	}
	excluded := 0
	for _, d := range pending {
		if _, ok := seen[d.ID]; !ok {
			excluded++
		}
	}
	return excluded
}
