package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/application/user/dto"
	"github.com/orris-inc/tollgate/internal/interfaces/http/middleware"
	"github.com/orris-inc/tollgate/internal/shared/logger"
	"github.com/orris-inc/tollgate/internal/shared/utils"
)

type getUserUseCase interface {
	Execute(ctx context.Context, userID uint) (*dto.UserResponse, error)
}

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	getUserUC getUserUseCase
	logger    logger.Interface
}

// NewUserHandler creates a new user handler
func NewUserHandler(getUserUC getUserUseCase, log logger.Interface) *UserHandler {
	return &UserHandler{
		getUserUC: getUserUC,
		logger:    log,
	}
}

// GetMe handles GET /api/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	user, err := h.getUserUC.Execute(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to get current user", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", user)
}
