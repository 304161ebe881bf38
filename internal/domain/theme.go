package domain

type ThemeStatus string

const (
	ThemeStatusProposed  ThemeStatus = "proposed"
	ThemeStatusAccepted  ThemeStatus = "accepted"
	ThemeStatusDiscarded ThemeStatus = "discarded"
)

// ThemeEvidence ties a theme back to a specific place in the organised
// transcript, so every theme stays traceable to a verbatim quote.
type ThemeEvidence struct {
	Quote           string `json:"quote"`
	ParticipantID   string `json:"participantId"`
	Timestamp       string `json:"timestamp,omitempty"`
	TurnIndex       int    `json:"turnIndex"`
	GuideSection    string `json:"guideSection,omitempty"`
	GuideQuestionID string `json:"guideQuestionId,omitempty"`
}

// Theme starts proposed and moves exactly once, to accepted or discarded.
// Both destinations are terminal.
type Theme struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Evidence        []ThemeEvidence `json:"evidence"`
	InstanceCount   int             `json:"instanceCount"`
	Status          ThemeStatus     `json:"status"`
	ResearcherNotes string          `json:"researcherNotes,omitempty"`
}

type SessionThemes struct {
	SessionID     string  `json:"sessionId"`
	ParticipantID string  `json:"participantId"`
	Themes        []Theme `json:"themes"`
}
