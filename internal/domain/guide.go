package domain

type FlagType string

const (
	FlagLeading         FlagType = "leading"
	FlagAmbiguous       FlagType = "ambiguous"
	FlagOutOfScope      FlagType = "out_of_scope"
	FlagMissingCoverage FlagType = "missing_coverage"
)

type FlagStatus string

const (
	FlagStatusOpen      FlagStatus = "open"
	FlagStatusDismissed FlagStatus = "dismissed"
)

// AiFlag is a review finding attached to a guide or one of its questions.
// Flags are keyed by ID rather than list position so dismissal survives
// reordering and concurrent edits. The only legal transition is
// open -> dismissed.
type AiFlag struct {
	ID         string     `json:"id"`
	Type       FlagType   `json:"type"`
	Message    string     `json:"message"`
	Suggestion string     `json:"suggestion,omitempty"`
	Status     FlagStatus `json:"status"`
}

// Question identifiers are stable foreign keys: section mappings created
// during organisation reference them, so they must never be renumbered
// after first assignment.
type Question struct {
	QuestionID string   `json:"questionId"`
	Text       string   `json:"text"`
	MappedGoal string   `json:"mappedGoal,omitempty"`
	Required   bool     `json:"required"`
	Probes     []string `json:"probes"`
	Flags      []AiFlag `json:"flags"`
}

type GuideSection struct {
	SectionID   string     `json:"sectionId"`
	SectionName string     `json:"sectionName"`
	TimeBracket string     `json:"timeBracket,omitempty"`
	Questions   []Question `json:"questions"`
}

// ResearchGuide is 1:1 with its project. Once locked the sections and
// questions are immutable; only flag statuses may still change.
type ResearchGuide struct {
	ProjectID                string         `json:"projectId"`
	ProjectName              string         `json:"projectName"`
	Objective                string         `json:"objective"`
	ResearchGoals            []string       `json:"researchGoals"`
	Sections                 []GuideSection `json:"sections"`
	ReviewFlags              []AiFlag       `json:"reviewFlags"`
	CoverageGaps             []string       `json:"coverageGaps"`
	EstimatedDurationMinutes int            `json:"estimatedDurationMinutes,omitempty"`
	Version                  int            `json:"version"`
	Locked                   bool           `json:"locked"`
}

// Section returns the section with the given ID, or nil.
func (g *ResearchGuide) Section(sectionID string) *GuideSection {
	for i := range g.Sections {
		if g.Sections[i].SectionID == sectionID {
			return &g.Sections[i]
		}
	}
	return nil
}

// SuggestedProbe is a follow-up question the reviewer proposed for an
// existing guide question.
type SuggestedProbe struct {
	QuestionID string `json:"questionId"`
	Probe      string `json:"probe"`
}

// GuideReview is what guide ingestion returns for immediate display:
// the parsed guide plus everything the reviewer found.
type GuideReview struct {
	Guide                    ResearchGuide    `json:"guide"`
	Flags                    []AiFlag         `json:"flags"`
	SuggestedProbes          []SuggestedProbe `json:"suggestedProbes"`
	CoverageGaps             []string         `json:"coverageGaps"`
	EstimatedDurationMinutes int              `json:"estimatedDurationMinutes,omitempty"`
}

// GuidePatch carries a structural guide edit. Nil fields are left
// untouched.
type GuidePatch struct {
	Objective     *string         `json:"objective,omitempty"`
	ResearchGoals *[]string       `json:"researchGoals,omitempty"`
	Sections      *[]GuideSection `json:"sections,omitempty"`
}
