package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fitleague/fitleague/internal/services"
	"github.com/fitleague/fitleague/pkg/utils"
)

type GameHandler struct {
	games     *services.GameService
	evaluator *services.EvaluationService
}

func NewGameHandler(games *services.GameService, evaluator *services.EvaluationService) *GameHandler {
	return &GameHandler{games: games, evaluator: evaluator}
}

// GetLiveGames lists every game currently in progress.
func (h *GameHandler) GetLiveGames(c *gin.Context) {
	views, err := h.games.GetLiveGames(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, views)
}

// GetLiveGame returns the live view of one game.
func (h *GameHandler) GetLiveGame(c *gin.Context) {
	gameID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid game ID", err.Error())
		return
	}

	view, err := h.games.GetLiveGame(c.Request.Context(), gameID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, view)
}

// GetGameSummary returns the evaluation summary of a finished game.
func (h *GameHandler) GetGameSummary(c *gin.Context) {
	gameID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid game ID", err.Error())
		return
	}

	summary, err := h.games.GetGameSummary(c.Request.Context(), gameID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, summary)
}

// EvaluateGame triggers evaluation of one finished game (admin).
func (h *GameHandler) EvaluateGame(c *gin.Context) {
	gameID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid game ID", err.Error())
		return
	}

	summary, err := h.evaluator.EvaluateGame(c.Request.Context(), gameID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	if summary == nil {
		utils.SendSuccess(c, gin.H{"already_evaluated": true})
		return
	}
	utils.SendSuccess(c, summary)
}
