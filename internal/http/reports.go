package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

func (a *API) handleGenerateReport(c *gin.Context) {
	session, ok := a.sessionInProject(c)
	if !ok {
		return
	}

	if session.Status != domain.SessionStatusThemed {
		respondMessage(c, http.StatusConflict, "session must be themed before a report can be generated")
		return
	}

	project, err := a.store.GetProject(session.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	themes, err := a.store.GetThemes(session.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	reportPath := a.files.ReportPath(session.ID)
	if err := a.pdf.GenerateReport(project, session, themes, reportPath); err != nil {
		respondMessage(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"reportPath": reportPath})
}

func (a *API) handleShareReport(c *gin.Context) {
	session, ok := a.sessionInProject(c)
	if !ok {
		return
	}

	if _, err := os.Stat(a.files.ReportPath(session.ID)); err != nil {
		respondMessage(c, http.StatusBadRequest, "no report available for this session")
		return
	}

	url, expiresAt, err := a.share.Generate(session.ID)
	if err != nil {
		respondMessage(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "expiresAt": expiresAt.UTC()})
}

func (a *API) handleServeReport(c *gin.Context) {
	sessionID := c.Param("sessionId")
	expiresParam := c.Query("exp")
	signature := c.Query("sig")

	if expiresParam == "" || signature == "" {
		respondMessage(c, http.StatusBadRequest, "missing signature")
		return
	}

	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid expiration")
		return
	}

	if expires < time.Now().Unix() {
		respondMessage(c, http.StatusGone, "link expired")
		return
	}

	path := c.Request.URL.Path
	if !a.share.Validate(path, expires, signature) {
		respondMessage(c, http.StatusForbidden, "invalid signature")
		return
	}

	reportPath := a.files.ReportPath(sessionID)
	if _, err := os.Stat(reportPath); err != nil {
		respondMessage(c, http.StatusNotFound, "report not found")
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(reportPath, filepath.Base(reportPath))
}
