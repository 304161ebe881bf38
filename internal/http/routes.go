package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/beuysscout/InsightTool-v2/internal/config"
	"github.com/beuysscout/InsightTool-v2/internal/domain"
	"github.com/beuysscout/InsightTool-v2/internal/pipeline"
	"github.com/beuysscout/InsightTool-v2/internal/services"
	"github.com/beuysscout/InsightTool-v2/internal/storage"
)

type API struct {
	cfg    config.Config
	files  *storage.FileManager
	store  *storage.Store
	pipe   *pipeline.Pipeline
	guides *pipeline.GuideManager
	pdf    *services.PDFService
	share  *services.ShareService
}

func NewAPI(cfg config.Config, fm *storage.FileManager, store *storage.Store, pipe *pipeline.Pipeline, guides *pipeline.GuideManager, pdf *services.PDFService, share *services.ShareService) *API {
	return &API{cfg: cfg, files: fm, store: store, pipe: pipe, guides: guides, pdf: pdf, share: share}
}

func registerRoutes(r *gin.Engine, api *API) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", api.handleHealth)

		apiGroup.POST("/projects", api.handleCreateProject)
		apiGroup.GET("/projects", api.handleListProjects)
		apiGroup.GET("/projects/:id", api.handleGetProject)
		apiGroup.DELETE("/projects/:id", api.handleDeleteProject)

		apiGroup.POST("/projects/:id/guide/upload", api.handleUploadGuide)
		apiGroup.GET("/projects/:id/guide", api.handleGetGuide)
		apiGroup.PUT("/projects/:id/guide", api.handleUpdateGuide)
		apiGroup.POST("/projects/:id/guide/lock", api.handleLockGuide)
		apiGroup.POST("/projects/:id/guide/flags/:flagId/dismiss", api.handleDismissFlag)

		apiGroup.POST("/projects/:id/sessions/upload", api.handleUploadTranscript)
		apiGroup.GET("/projects/:id/sessions", api.handleListSessions)
		apiGroup.GET("/projects/:id/sessions/:sessionId", api.handleGetSession)
		apiGroup.POST("/projects/:id/sessions/:sessionId/scan-pii", api.handleScanPII)
		apiGroup.POST("/projects/:id/sessions/:sessionId/anonymise", api.handleAnonymise)
		apiGroup.POST("/projects/:id/sessions/:sessionId/organise", api.handleOrganise)
		apiGroup.POST("/projects/:id/sessions/:sessionId/extract-themes", api.handleExtractThemes)
		apiGroup.POST("/projects/:id/sessions/:sessionId/report", api.handleGenerateReport)
		apiGroup.POST("/projects/:id/sessions/:sessionId/report/share", api.handleShareReport)

		apiGroup.GET("/projects/:id/themes", api.handleListProjectThemes)
		apiGroup.GET("/projects/:id/themes/:sessionId", api.handleGetSessionThemes)
		apiGroup.PUT("/projects/:id/themes/:sessionId/:themeId/status", api.handleUpdateThemeStatus)
	}

	r.GET("/report/:sessionId", api.handleServeReport)
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- Projects ---

func (a *API) handleCreateProject(c *gin.Context) {
	var payload struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	project, err := a.store.CreateProject(strings.TrimSpace(payload.Name))
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := a.pipe.ProjectView(project.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (a *API) handleListProjects(c *gin.Context) {
	c.JSON(http.StatusOK, a.pipe.ListProjectViews())
}

func (a *API) handleGetProject(c *gin.Context) {
	view, err := a.pipe.ProjectView(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *API) handleDeleteProject(c *gin.Context) {
	projectID := c.Param("id")

	sessions := a.store.ListSessions(projectID)
	if err := a.store.DeleteProject(projectID); err != nil {
		respondError(c, err)
		return
	}
	for _, session := range sessions {
		a.files.RemoveReport(session.ID)
	}

	c.Status(http.StatusNoContent)
}

// --- Error mapping ---

func respondError(c *gin.Context, err error) {
	var (
		validationErr *domain.ValidationError
		stateErr      *domain.InvalidStateError
		engineErr     *domain.EngineError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &stateErr),
		errors.Is(err, domain.ErrGuideLocked),
		errors.Is(err, domain.ErrGuideNotLocked),
		errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.As(err, &engineErr):
		status = http.StatusBadGateway
	}

	respondMessage(c, status, err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
