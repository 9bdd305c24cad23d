package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fitleague/fitleague/internal/api/middleware"
	"github.com/fitleague/fitleague/internal/models"
	"github.com/fitleague/fitleague/internal/services"
	"github.com/fitleague/fitleague/pkg/utils"
)

type WorkoutHandler struct {
	workouts *services.WorkoutService
}

func NewWorkoutHandler(workouts *services.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workouts: workouts}
}

// UploadWorkout ingests one workout submission.
func (h *WorkoutHandler) UploadWorkout(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		utils.SendUnauthorized(c, "Authentication required")
		return
	}

	var req models.WorkoutUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid workout payload", err.Error())
		return
	}

	result, err := h.workouts.UploadWorkout(c.Request.Context(), userID, &req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, result)
}

type syncCheckRequest struct {
	Workouts []models.SyncCheckEntry `json:"workouts" binding:"required"`
}

// CheckSyncStatus tells the client which of its workouts are missing
// server-side.
func (h *WorkoutHandler) CheckSyncStatus(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		utils.SendUnauthorized(c, "Authentication required")
		return
	}

	var req syncCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid sync check payload", err.Error())
		return
	}

	unsynced, err := h.workouts.CheckSyncStatus(c.Request.Context(), userID, req.Workouts)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, gin.H{"unsynced": unsynced})
}

// GetWorkout returns one workout, subject to visibility.
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		utils.SendUnauthorized(c, "Authentication required")
		return
	}

	workoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid workout ID", err.Error())
		return
	}

	workout, err := h.workouts.GetWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, workout)
}

// GetWorkoutHistory lists the caller's workouts newest first.
func (h *WorkoutHandler) GetWorkoutHistory(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		utils.SendUnauthorized(c, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	workouts, total, err := h.workouts.GetWorkoutHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccessWithMeta(c, workouts, &utils.Meta{Total: total})
}
