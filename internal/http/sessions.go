package http

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

func (a *API) handleUploadTranscript(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := a.store.GetProject(projectID); err != nil {
		respondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "missing transcript file")
		return
	}
	log.Printf("Received transcript upload: project=%s filename=%s size=%d", projectID, fileHeader.Filename, fileHeader.Size)

	upload, err := fileHeader.Open()
	if err != nil {
		log.Printf("error opening transcript upload: %v", err)
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return
	}
	defer upload.Close()

	content, err := io.ReadAll(upload)
	if err != nil {
		log.Printf("error reading transcript upload: %v", err)
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return
	}

	session, err := a.pipe.UploadTranscript(projectID, string(content))
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Session %s created for project %s", session.ID, projectID)

	c.JSON(http.StatusCreated, session)
}

func (a *API) handleListSessions(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := a.store.GetProject(projectID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.store.ListSessions(projectID))
}

func (a *API) handleGetSession(c *gin.Context) {
	session, ok := a.sessionInProject(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session)
}

func (a *API) handleScanPII(c *gin.Context) {
	session, ok := a.sessionInProject(c)
	if !ok {
		return
	}

	var hints domain.PiiHints
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&hints); err != nil {
			respondMessage(c, http.StatusBadRequest, "invalid payload")
			return
		}
	}

	detections, err := a.pipe.ScanPII(c.Request.Context(), session.ID, hints)
	if err != nil {
		log.Printf("pii scan failed for session %s: %v", session.ID, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detections)
}

func (a *API) handleAnonymise(c *gin.Context) {
	session, ok := a.sessionInProject(c)
	if !ok {
		return
	}

	var payload struct {
		Detections []domain.PiiDetection `json:"detections"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid payload")
		return
	}

	updated, err := a.pipe.Anonymise(session.ID, payload.Detections)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (a *API) handleOrganise(c *gin.Context) {
	session, ok := a.sessionInProject(c)
	if !ok {
		return
	}

	organised, err := a.pipe.Organise(c.Request.Context(), session.ID)
	if err != nil {
		log.Printf("organise failed for session %s: %v", session.ID, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, organised)
}

func (a *API) handleExtractThemes(c *gin.Context) {
	session, ok := a.sessionInProject(c)
	if !ok {
		return
	}

	themes, err := a.pipe.ExtractThemes(c.Request.Context(), session.ID)
	if err != nil {
		log.Printf("theme extraction failed for session %s: %v", session.ID, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, themes)
}

// sessionInProject resolves the session route params and enforces that
// the session belongs to the addressed project.
func (a *API) sessionInProject(c *gin.Context) (domain.Session, bool) {
	session, err := a.store.GetSession(c.Param("sessionId"))
	if err != nil || session.ProjectID != c.Param("id") {
		respondMessage(c, http.StatusNotFound, "session not found")
		return domain.Session{}, false
	}
	return session, true
}
