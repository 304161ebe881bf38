package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

func (a *API) handleListProjectThemes(c *gin.Context) {
	themes, err := a.pipe.ListProjectThemes(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, themes)
}

func (a *API) handleGetSessionThemes(c *gin.Context) {
	if _, ok := a.sessionInProject(c); !ok {
		return
	}

	themes, err := a.pipe.SessionThemes(c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, themes)
}

func (a *API) handleUpdateThemeStatus(c *gin.Context) {
	if _, ok := a.sessionInProject(c); !ok {
		return
	}

	var payload struct {
		Status          domain.ThemeStatus `json:"status" binding:"required"`
		ResearcherNotes string             `json:"researcherNotes"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid payload")
		return
	}

	theme, err := a.pipe.SetThemeStatus(c.Param("sessionId"), c.Param("themeId"), payload.Status, payload.ResearcherNotes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, theme)
}
