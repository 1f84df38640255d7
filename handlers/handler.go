package handlers

import (
	"log/slog"
	"net/http"

	"tasklist/store"
	"tasklist/utils"

	"github.com/gin-gonic/gin"
)

// Handler serves the task and user endpoints.
type Handler struct {
	store  store.Store
	cache  *utils.TaskCache
	mailer *utils.Mailer
	logger *slog.Logger
}

// New returns a Handler. cache and mailer may be nil.
func New(s store.Store, cache *utils.TaskCache, mailer *utils.Mailer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{store: s, cache: cache, mailer: mailer, logger: logger}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message" example:"Task not found."`
}

// MessageResponse is returned by operations that only confirm an action.
type MessageResponse struct {
	Message string `json:"message" example:"Task 'Write docs' deleted successfully"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: msg})
}

func (h *Handler) log(c *gin.Context) *slog.Logger {
	return h.logger.With("request_id", c.GetString(requestIDKey))
}

// HealthHandler godoc
// @Summary      Health check
// @Tags         Documentation
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Failure      503  {object}  ErrorResponse
// @Router       /health [get]
func (h *Handler) HealthHandler(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.log(c).Error("health check failed", "err", err)
		writeError(c, http.StatusServiceUnavailable, "Database unavailable.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
