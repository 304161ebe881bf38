package pipeline

import (
	"context"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

// Engine is the analysis boundary. The pipeline never interprets
// language itself; it validates and merges what the engine returns.
// Implementations are blocking, possibly slow, and externally fallible;
// failures surface as domain.EngineError and never advance any state.
type Engine interface {
	ParseGuide(ctx context.Context, text, objective string, goals []string) (domain.ParsedGuide, error)
	DetectPII(ctx context.Context, turns []domain.Turn, hints domain.PiiHints) ([]domain.PiiDetection, error)
	MapTurnsToSections(ctx context.Context, turns []domain.Turn, sections []domain.GuideSection) ([]domain.TurnAssignment, error)
	ExtractThemes(ctx context.Context, organised domain.OrganisedTranscript) ([]domain.Theme, error)
}
