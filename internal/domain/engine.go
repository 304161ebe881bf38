package domain

// PiiHints seeds the PII scan with names that are already known, which
// raises recall on participant and interviewer references.
type PiiHints struct {
	InterviewerName string `json:"interviewerName,omitempty"`
	ParticipantName string `json:"participantName,omitempty"`
}

// ParsedGuide is the analysis engine's output for a raw guide upload.
type ParsedGuide struct {
	Sections                 []GuideSection
	Flags                    []AiFlag
	SuggestedProbes          []SuggestedProbe
	CoverageGaps             []string
	EstimatedDurationMinutes int
}

// TurnAssignment maps one transcript turn to one guide section with the
// engine's confidence in the match.
type TurnAssignment struct {
	TurnIndex  int
	SectionID  string
	Confidence float64
}
