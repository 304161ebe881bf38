package http

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

func (a *API) handleUploadGuide(c *gin.Context) {
	projectID := c.Param("id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "missing guide file")
		return
	}

	upload, err := fileHeader.Open()
	if err != nil {
		log.Printf("error opening guide upload: %v", err)
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return
	}
	defer upload.Close()

	content, err := io.ReadAll(upload)
	if err != nil {
		log.Printf("error reading guide upload: %v", err)
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return
	}

	objective := c.PostForm("objective")
	goals := splitGoals(c.PostForm("research_goals"))

	review, err := a.guides.Ingest(c.Request.Context(), projectID, string(content), objective, goals)
	if err != nil {
		log.Printf("guide ingest failed: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

func (a *API) handleGetGuide(c *gin.Context) {
	guide, err := a.store.GetGuide(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, guide)
}

func (a *API) handleUpdateGuide(c *gin.Context) {
	var patch domain.GuidePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid payload")
		return
	}

	guide, err := a.guides.Update(c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, guide)
}

func (a *API) handleLockGuide(c *gin.Context) {
	guide, err := a.guides.Lock(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, guide)
}

func (a *API) handleDismissFlag(c *gin.Context) {
	guide, err := a.guides.DismissFlag(c.Param("id"), c.Param("flagId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, guide)
}

func splitGoals(raw string) []string {
	goals := []string{}
	for _, goal := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(goal); trimmed != "" {
			goals = append(goals, trimmed)
		}
	}
	return goals
}
