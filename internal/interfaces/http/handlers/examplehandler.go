package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/shared/constants"
	"github.com/orris-inc/tollgate/internal/shared/utils"
)

// ExampleHandler backs the demo routes that show the billing gates in use.
type ExampleHandler struct{}

func NewExampleHandler() *ExampleHandler {
	return &ExampleHandler{}
}

// Premium handles GET /api/examples/premium
func (h *ExampleHandler) Premium(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"content": "premium content unlocked"})
}

// Generate handles POST /api/examples/generate
func (h *ExampleHandler) Generate(c *gin.Context) {
	remaining, _ := c.Get(constants.ContextKeyCreditsRemaining)
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"result":            "generated",
		"credits_remaining": remaining,
	})
}
