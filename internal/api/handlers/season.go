package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fitleague/fitleague/internal/services"
	"github.com/fitleague/fitleague/pkg/utils"
)

type SeasonHandler struct {
	seasons   *services.SeasonService
	standings *services.StandingsService
}

func NewSeasonHandler(seasons *services.SeasonService, standings *services.StandingsService) *SeasonHandler {
	return &SeasonHandler{seasons: seasons, standings: standings}
}

// CreateSeason generates a season with its full schedule (admin).
func (h *SeasonHandler) CreateSeason(c *gin.Context) {
	var req services.CreateSeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid season payload", err.Error())
		return
	}

	season, err := h.seasons.CreateSeason(c.Request.Context(), &req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, season)
}

// DeleteSeason removes a season with its schedule and standings (admin).
func (h *SeasonHandler) DeleteSeason(c *gin.Context) {
	seasonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid season ID", err.Error())
		return
	}

	if err := h.seasons.DeleteSeason(c.Request.Context(), seasonID); err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, gin.H{"deleted": seasonID})
}

// GetSeason returns one season.
func (h *SeasonHandler) GetSeason(c *gin.Context) {
	seasonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid season ID", err.Error())
		return
	}

	season, err := h.seasons.GetSeason(c.Request.Context(), seasonID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, season)
}

// GetSchedule lists a season's games in week order.
func (h *SeasonHandler) GetSchedule(c *gin.Context) {
	seasonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid season ID", err.Error())
		return
	}

	games, err := h.seasons.GetSchedule(c.Request.Context(), seasonID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, games)
}

// GetStandings returns the season table in position order.
func (h *SeasonHandler) GetStandings(c *gin.Context) {
	seasonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid season ID", err.Error())
		return
	}

	entries, err := h.standings.GetStandings(c.Request.Context(), seasonID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, entries)
}
