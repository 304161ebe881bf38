package domain

// Project owns one research guide and any number of interview sessions.
// Its status is always derived from the guide and session states, never
// stored, so it can not drift out of sync with its children.
type Project struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	CreatedAt        int64  `json:"createdAt"`
	SessionCount     int    `json:"sessionCount"`
	ParticipantCount int    `json:"participantCount"`
}

type ProjectStatus string

const (
	ProjectStatusSetup         ProjectStatus = "setup"
	ProjectStatusGuideUploaded ProjectStatus = "guide_uploaded"
	ProjectStatusGuideLocked   ProjectStatus = "guide_locked"
	ProjectStatusCollecting    ProjectStatus = "collecting"
	ProjectStatusSynthesising  ProjectStatus = "synthesising"
	ProjectStatusComplete      ProjectStatus = "complete"
)

// DeriveProjectStatus computes the project rollup from its constituents.
// A project is "synthesising" once every session has reached themed, and
// "complete" once no theme is left in the proposed state.
func DeriveProjectStatus(guide *ResearchGuide, sessions []Session, themes []SessionThemes) ProjectStatus {
	if guide == nil {
		return ProjectStatusSetup
	}
	if !guide.Locked {
		return ProjectStatusGuideUploaded
	}
	if len(sessions) == 0 {
		return ProjectStatusGuideLocked
	}

	for _, s := range sessions {
		if s.Status != SessionStatusThemed {
			return ProjectStatusCollecting
		}
	}

	for _, st := range themes {
		for _, theme := range st.Themes {
			if theme.Status == ThemeStatusProposed {
				return ProjectStatusSynthesising
			}
		}
	}
	return ProjectStatusComplete
}
