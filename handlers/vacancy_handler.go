package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/guild-recruit/db"
	"github.com/wuwenbin0122/guild-recruit/db/models"
)

// VacancyLister is the read side of the vacancy repository.
type VacancyLister interface {
	List(ctx context.Context, filter db.VacancyFilter) ([]models.Vacancy, int64, error)
}

// VacancyHandler serves the public recruitment board.
type VacancyHandler struct {
	vacancies VacancyLister
	logger    *zap.Logger
}

func NewVacancyHandler(vacancies VacancyLister, logger *zap.Logger) *VacancyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VacancyHandler{vacancies: vacancies, logger: logger}
}

func (h *VacancyHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/vacancies", h.GetVacancies)
}

type vacancyListResponse struct {
	Data       []models.Vacancy `json:"data"`
	Pagination pagination       `json:"pagination"`
}

type pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// GetVacancies responds with vacancies filtered by optional role and class
// parameters, most urgent first, with pagination.
func (h *VacancyHandler) GetVacancies(c *gin.Context) {
	page := parsePositiveInt(c.Query("page"), 1)
	pageSize := parsePositiveInt(c.Query("page_size"), 20)
	if pageSize > 50 {
		pageSize = 50
	}

	vacancies, total, err := h.vacancies.List(c.Request.Context(), db.VacancyFilter{
		Role:  strings.TrimSpace(c.Query("role")),
		Class: strings.TrimSpace(c.Query("class")),
		Page:  page,
		Size:  pageSize,
	})
	if err != nil {
		h.logger.Error("list vacancies failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, vacancyListResponse{
		Data: vacancies,
		Pagination: pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

func parsePositiveInt(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}

	return value
}
