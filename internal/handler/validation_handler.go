package handler

import (
	"context"
	"net/http"

	"teambot/internal/middleware"
	"teambot/internal/model"
	"teambot/internal/service"
	"teambot/pkg/logger"
	"teambot/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionChecker reports whether a user has an open direct session
type SessionChecker interface {
	IsConnected(userID uuid.UUID) bool
}

type ValidationHandler struct {
	validationService service.ValidationService
	sessions          SessionChecker
}

func NewValidationHandler(validationService service.ValidationService, sessions SessionChecker) *ValidationHandler {
	return &ValidationHandler{validationService: validationService, sessions: sessions}
}

func (h *ValidationHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/receipts/validation", middleware.RequireRole(model.RoleAdmin), h.StartValidation)
}

// StartValidation handles POST /api/receipts/validation
// @Summary      Start receipt validation
// @Description  Starts a sequential review of pending receipts over the caller's direct session (admin only)
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Success      202  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/receipts/validation [post]
func (h *ValidationHandler) StartValidation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid session"))
		return
	}

	// Prompts travel over the reviewer's private session, so one must be open
	if !h.sessions.IsConnected(userID) {
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, "Open a direct session first to review receipts"))
		return
	}

	// The run outlives this request; prompts and the summary are delivered
	// over the direct session.
	go func() {
		summary, err := h.validationService.Run(context.Background(), userID)
		if err != nil {
			logger.Error("validation run error", userFieldFor(userID), zap.Error(err))
			return
		}
		logger.Info("validation run finished",
			userFieldFor(userID),
			zap.String("status", string(summary.Status)),
			zap.Int("accepted", summary.Accepted),
			zap.Int("refused", summary.Refused),
			zap.Int("skipped", summary.Skipped),
			zap.Int("auto_skipped", summary.AutoSkipped),
		)
	}()

	c.JSON(http.StatusAccepted, response.Success(http.StatusAccepted, gin.H{"message": "validation started"}))
}

func userFieldFor(id uuid.UUID) zap.Field {
	return zap.String("user", id.String())
}
