package domain

// SessionStatus moves strictly forward. Every stage operation guards its
// required source status and applies exactly one advance; nothing ever
// moves a session backward.
type SessionStatus string

const (
	SessionStatusUploaded   SessionStatus = "uploaded"
	SessionStatusAnonymised SessionStatus = "anonymised"
	SessionStatusOrganised  SessionStatus = "organised"
	SessionStatusThemed     SessionStatus = "themed"
)

// Next returns the status that follows s in the pipeline, or "" when s is
// terminal or unknown. The pipeline only ever advances via this edge list.
func (s SessionStatus) Next() SessionStatus {
	switch s {
	case SessionStatusUploaded:
		return SessionStatusAnonymised
	case SessionStatusAnonymised:
		return SessionStatusOrganised
	case SessionStatusOrganised:
		return SessionStatusThemed
	}
	return ""
}

// Turn is one utterance of the transcript. Index-addressed and immutable
// after parsing; only the redaction commit replaces a turn's text, and it
// replaces the whole string.
type Turn struct {
	Index         int    `json:"index"`
	Speaker       string `json:"speaker"`
	Text          string `json:"text"`
	Timestamp     string `json:"timestamp,omitempty"`
	IsInterviewer bool   `json:"isInterviewer"`
}

type DetectionStatus string

const (
	DetectionRedacted DetectionStatus = "redacted"
	DetectionKept     DetectionStatus = "kept"
)

// PiiDetection is a proposal: a candidate span in one turn's original
// text. It has no effect on the transcript until committed. Offsets are
// byte offsets into the pre-redaction turn text.
type PiiDetection struct {
	ID               string          `json:"id"`
	TurnIndex        int             `json:"turnIndex"`
	StartOffset      int             `json:"startOffset"`
	EndOffset        int             `json:"endOffset"`
	OriginalText     string          `json:"originalText"`
	PiiType          string          `json:"piiType"`
	ReplacementToken string          `json:"replacementToken"`
	Confidence       float64         `json:"confidence"`
	Status           DetectionStatus `json:"status"`
}

// AnonymisationLog records what the redaction commit did. Pending holds
// the latest scan result only while the session is still uploaded; the
// commit clears it so no original text survives anywhere in the session.
type AnonymisationLog struct {
	AutoRedacted       int            `json:"autoRedacted"`
	ResearcherReviewed int            `json:"researcherReviewed"`
	Excluded           int            `json:"excluded"`
	Pending            []PiiDetection `json:"pending,omitempty"`
}

type CoverageStatus string

const (
	CoverageCovered    CoverageStatus = "covered"
	CoveragePartial    CoverageStatus = "partial"
	CoverageNotCovered CoverageStatus = "not_covered"
)

type MappedTurn struct {
	Index             int     `json:"index"`
	Speaker           string  `json:"speaker"`
	Text              string  `json:"text"`
	Timestamp         string  `json:"timestamp,omitempty"`
	MappingConfidence float64 `json:"mappingConfidence"`
}

type SectionMapping struct {
	SectionID      string         `json:"sectionId"`
	SectionName    string         `json:"sectionName"`
	TimeBracket    string         `json:"timeBracket,omitempty"`
	CoverageStatus CoverageStatus `json:"coverageStatus"`
	MappedTurns    []MappedTurn   `json:"mappedTurns"`
	CoverageNotes  string         `json:"coverageNotes,omitempty"`
}

// OrganisedTranscript is the guide-aligned view of an anonymised
// transcript: one mapping per guide section, in guide order, plus the
// turns that did not land in any section.
type OrganisedTranscript struct {
	SessionID       string           `json:"sessionId"`
	ParticipantID   string           `json:"participantId"`
	SectionMappings []SectionMapping `json:"sectionMappings"`
	OffScriptTurns  []Turn           `json:"offScriptTurns"`
}

type Session struct {
	ID               string               `json:"id"`
	ProjectID        string               `json:"projectId"`
	ParticipantID    string               `json:"participantId"`
	Transcript       []Turn               `json:"transcript"`
	AnonymisationLog AnonymisationLog     `json:"anonymisationLog"`
	Organised        *OrganisedTranscript `json:"organised,omitempty"`
	UploadedAt       int64                `json:"uploadedAt"`
	Status           SessionStatus        `json:"status"`
}
