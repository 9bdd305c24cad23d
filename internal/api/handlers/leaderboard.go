package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fitleague/fitleague/internal/services"
	"github.com/fitleague/fitleague/pkg/utils"
)

type LeaderboardHandler struct {
	leaderboard *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboard *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// GetLeaderboard returns users ranked by trailing average.
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	sortBy := c.DefaultQuery("sort_by", "trailing_average")
	if sortBy != "trailing_average" {
		utils.SendValidationError(c, "Unsupported sort_by", sortBy)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.leaderboard.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, entries)
}
