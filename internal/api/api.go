package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/guild-recruit/internal/applications"
	"github.com/wuwenbin0122/guild-recruit/internal/auth"
	"github.com/wuwenbin0122/guild-recruit/internal/characters"
	"github.com/wuwenbin0122/guild-recruit/internal/models"
	"github.com/wuwenbin0122/guild-recruit/internal/review"
)

type Handler struct {
	authService *auth.Service
	apps        *applications.Service
	logger      *zap.Logger

	credentialLimiter *RateLimiter
}

type Option func(*Handler)

func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithCredentialLimiter throttles register and login per client address.
func WithCredentialLimiter(limiter *RateLimiter) Option {
	return func(h *Handler) { h.credentialLimiter = limiter }
}

func NewHandler(authService *auth.Service, apps *applications.Service, opts ...Option) *Handler {
	h := &Handler{authService: authService, apps: apps, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	apiGroup := router.Group("/api")

	credentials := apiGroup.Group("")
	if h.credentialLimiter != nil {
		credentials.Use(h.credentialLimiter.Middleware())
	}
	credentials.POST("/register", h.handleRegister)
	credentials.POST("/login", h.handleLogin)

	member := apiGroup.Group("", h.authService.RequireAuth())
	member.GET("/me", h.handleMe)
	member.GET("/me/applications", h.handleMyApplications)
	member.POST("/applications", h.handleSubmit)

	officer := apiGroup.Group("", h.authService.RequireAuth(models.RoleOfficer))
	officer.GET("/applications", h.handleList)
	officer.GET("/applications/:id", h.handleGet)
	officer.GET("/applications/:id/profile", h.handleProfile)
	officer.PUT("/applications/:id/status", h.handleUpdateStatus)
	officer.GET("/dashboard", h.handleDashboard)
	officer.GET("/characters/:realm/:name", h.handleCharacter)
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type statusRequest struct {
	Status       string  `json:"status" binding:"required"`
	OfficerNotes *string `json:"officerNotes"`
}

func (h *Handler) handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "username and password are required", err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), auth.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("user registered", zap.String("username", result.User.Username))
	c.JSON(http.StatusCreated, newAuthResponse(result))
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "username and password are required", err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), auth.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

func (h *Handler) handleMe(c *gin.Context) {
	identity, ok := auth.CurrentUser(c)
	if !ok {
		h.fail(c, auth.ErrMissingToken)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       identity.ID,
		"username": identity.Username,
		"role":     identity.Role,
	})
}

func (h *Handler) handleMyApplications(c *gin.Context) {
	identity, ok := auth.CurrentUser(c)
	if !ok {
		h.fail(c, auth.ErrMissingToken)
		return
	}

	apps, err := h.apps.ListForUser(c.Request.Context(), identity.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, apps)
}

func (h *Handler) handleSubmit(c *gin.Context) {
	identity, ok := auth.CurrentUser(c)
	if !ok {
		h.fail(c, auth.ErrMissingToken)
		return
	}

	var fields models.ApplicationFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload", err)
		return
	}

	app, err := h.apps.Submit(c.Request.Context(), identity.ID, fields)
	if err != nil {
		h.fail(c, err)
		return
	}

	if identity.Role.IsOfficer() {
		c.JSON(http.StatusCreated, app)
		return
	}
	c.JSON(http.StatusCreated, app.ForCandidate())
}

func (h *Handler) handleList(c *gin.Context) {
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	apps, err := h.apps.List(c.Request.Context(), criteria)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, apps)
}

func (h *Handler) handleGet(c *gin.Context) {
	id, ok := applicationID(c)
	if !ok {
		return
	}

	app, err := h.apps.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, app)
}

func (h *Handler) handleProfile(c *gin.Context) {
	id, ok := applicationID(c)
	if !ok {
		return
	}

	profile, err := h.apps.Profile(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *Handler) handleUpdateStatus(c *gin.Context) {
	id, ok := applicationID(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "status is required", err)
		return
	}

	status, err := models.ParseStatus(req.Status)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	app, err := h.apps.UpdateStatus(c.Request.Context(), id, status, req.OfficerNotes)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, app)
}

func (h *Handler) handleDashboard(c *gin.Context) {
	summary, err := h.apps.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) handleCharacter(c *gin.Context) {
	profile, err := h.apps.Character(c.Request.Context(), c.Param("name"), c.Param("realm"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func applicationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "invalid application id", errors.New("invalid application id"))
		return 0, false
	}
	return id, true
}

// criteriaFromQuery reads filters and ordering from the query string.
// Without sortBy the newest applications come first.
func criteriaFromQuery(c *gin.Context) (review.Criteria, error) {
	criteria := review.Criteria{
		Search:      strings.TrimSpace(c.Query("search")),
		Class:       c.Query("class"),
		DesiredRole: c.Query("role"),
	}

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return criteria, err
		}
		criteria.Status = status
	}

	if raw := c.Query("minIlvl"); raw != "" {
		minIlvl, err := strconv.ParseFloat(raw, 64)
		if err != nil || minIlvl < 0 {
			return criteria, errors.New("minIlvl must be a non-negative number")
		}
		criteria.MinIlvl = minIlvl
	}

	sortBy, err := review.ParseSortField(c.Query("sortBy"), review.SortByCreatedAt)
	if err != nil {
		return criteria, err
	}
	order, err := review.ParseOrder(c.Query("order"), review.Descending)
	if err != nil {
		return criteria, err
	}
	criteria.SortBy = sortBy
	criteria.Order = order

	return criteria, nil
}

func newAuthResponse(result *auth.AuthResult) gin.H {
	return gin.H{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt.Format(time.RFC3339),
		"user": gin.H{
			"id":        result.User.ID,
			"username":  result.User.Username,
			"role":      result.User.Role,
			"createdAt": result.User.CreatedAt.Format(time.RFC3339),
			"updatedAt": result.User.UpdatedAt.Format(time.RFC3339),
		},
	}
}

// fail maps a service error to its status. Unexpected errors are logged and
// answered with a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	writeError(c, status, message, err)
}

func statusFor(err error) (int, string) {
	var verr *applications.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, auth.ErrInvalidUsername):
		return http.StatusBadRequest, "Username must be 3-32 characters"
	case errors.Is(err, auth.ErrPasswordTooWeak):
		return http.StatusBadRequest, "Password must be 6-72 characters"
	case errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict, "Username already taken"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrForbidden):
		return auth.StatusFor(err), auth.Message(err)
	case errors.Is(err, applications.ErrApplicationNotFound):
		return http.StatusNotFound, "Application not found"
	case errors.Is(err, applications.ErrProfileNotFound):
		return http.StatusNotFound, "No character profile archived for this application"
	case errors.Is(err, characters.ErrCharacterNotFound):
		return http.StatusNotFound, "Character not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
