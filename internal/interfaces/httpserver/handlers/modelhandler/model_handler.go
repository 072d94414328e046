package modelhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pepperbot/pepper-server/internal/domain/provider"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver/responses"
)

// Handler serves the model catalog.
type Handler struct {
	registry *provider.Registry
}

func NewHandler(registry *provider.Registry) *Handler {
	return &Handler{registry: registry}
}

// ListModels handles GET /v1/models.
func (h *Handler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models": responses.NewModelList(h.registry.Models()),
	})
}
