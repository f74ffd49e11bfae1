package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/guild-recruit/db/models"
)

// ScheduleLister is the read side of the raid calendar.
type ScheduleLister interface {
	List(ctx context.Context) ([]models.RaidNight, error)
}

// ScheduleHandler serves the public raid calendar shown next to the vacancy board.
type ScheduleHandler struct {
	schedule ScheduleLister
	logger   *zap.Logger
}

func NewScheduleHandler(schedule ScheduleLister, logger *zap.Logger) *ScheduleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleHandler{schedule: schedule, logger: logger}
}

func (h *ScheduleHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/schedule", h.GetSchedule)
}

func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	nights, err := h.schedule.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list raid schedule failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": nights})
}
