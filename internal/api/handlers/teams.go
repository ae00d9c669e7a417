package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nkashima/vgc-scout/backend/internal/services"
)

type TeamHandler struct {
	teams *services.TeamService
}

func NewTeamHandler(teams *services.TeamService) *TeamHandler {
	return &TeamHandler{teams: teams}
}

// ListTeams searches stored teams
// GET /api/teams?q=&regulation=&pokemon=&ev_source=&min_confidence=&limit=&offset=
func (h *TeamHandler) ListTeams(c *gin.Context) {
	params := services.TeamSearchParams{
		Query:      c.Query("q"),
		Regulation: c.Query("regulation"),
		Pokemon:    c.Query("pokemon"),
		EVSource:   c.Query("ev_source"),
	}

	if v := c.Query("min_confidence"); v != "" {
		conf, err := strconv.ParseFloat(v, 64)
		if err != nil || conf < 0 || conf > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_confidence must be a number between 0 and 1"})
			return
		}
		params.MinConfidence = conf
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.Offset = n
		}
	}

	result, err := h.teams.SearchTeams(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search teams"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTeam returns one team with per-slot spreads and validation notes
// GET /api/teams/:id
func (h *TeamHandler) GetTeam(c *gin.Context) {
	teamID := c.Param("id")
	if teamID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "team id is required"})
		return
	}

	team, err := h.teams.GetTeam(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load team"})
		return
	}

	c.JSON(http.StatusOK, services.BuildTeamReport(team))
}

// DeleteTeam removes a stored team and its slots
// DELETE /api/admin/teams/:id
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	teamID := c.Param("id")
	if teamID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "team id is required"})
		return
	}

	if err := h.teams.DeleteTeam(teamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete team"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "team deleted", "team_id": teamID})
}
