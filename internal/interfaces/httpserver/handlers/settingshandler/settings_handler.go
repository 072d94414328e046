package settingshandler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/domain/settings"
	"github.com/pepperbot/pepper-server/internal/domain/user"
	"github.com/pepperbot/pepper-server/internal/infrastructure/logger"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver/middlewares"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver/requests"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver/responses"
)

// Handler serves per-user generation settings and conversation resets.
type Handler struct {
	users *user.Service
	store *conversation.Service
}

func NewHandler(users *user.Service, store *conversation.Service) *Handler {
	return &Handler{users: users, store: store}
}

func (h *Handler) resolveUser(c *gin.Context) (*user.User, bool) {
	externalID, err := strconv.ParseInt(c.Param("externalUserID"), 10, 64)
	if err != nil || externalID == 0 {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:     "invalid external user id",
			RequestID: middlewares.RequestIDFromContext(c),
		})
		return nil, false
	}

	usr, err := h.users.EnsureUser(c.Request.Context(), user.Identity{ExternalID: externalID})
	if err != nil {
		log := logger.GetLogger()
		log.Error().Err(err).Msg("failed to resolve user")
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:     "failed to resolve user",
			RequestID: middlewares.RequestIDFromContext(c),
		})
		return nil, false
	}
	return usr, true
}

// GetSettings handles GET /v1/settings/:externalUserID.
func (h *Handler) GetSettings(c *gin.Context) {
	usr, ok := h.resolveUser(c)
	if !ok {
		return
	}

	gen, err := h.store.GetUserSettings(c.Request.Context(), usr.ID)
	if err != nil {
		log := logger.GetLogger()
		log.Error().Err(err).Msg("failed to load settings")
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:     "failed to load settings",
			RequestID: middlewares.RequestIDFromContext(c),
		})
		return
	}

	c.JSON(http.StatusOK, responses.NewSettingsResponse(gen))
}

// UpdateSettings handles PATCH /v1/settings/:externalUserID.
func (h *Handler) UpdateSettings(c *gin.Context) {
	usr, ok := h.resolveUser(c)
	if !ok {
		return
	}

	var req requests.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:     "invalid request body",
			RequestID: middlewares.RequestIDFromContext(c),
		})
		return
	}

	gen, err := h.store.UpdateUserSettings(c.Request.Context(), usr.ID, req.ToDomain())
	if err != nil {
		if errors.Is(err, settings.ErrInvalidSettings) {
			c.JSON(http.StatusUnprocessableEntity, responses.ErrorResponse{
				Error:     err.Error(),
				RequestID: middlewares.RequestIDFromContext(c),
			})
			return
		}
		log := logger.GetLogger()
		log.Error().Err(err).Msg("failed to update settings")
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:     "failed to update settings",
			RequestID: middlewares.RequestIDFromContext(c),
		})
		return
	}

	c.JSON(http.StatusOK, responses.NewSettingsResponse(gen))
}

// NewConversation handles POST /v1/conversations/:externalUserID/new.
func (h *Handler) NewConversation(c *gin.Context) {
	usr, ok := h.resolveUser(c)
	if !ok {
		return
	}

	conv, err := h.store.StartNewConversation(c.Request.Context(), usr.ID)
	if err != nil {
		log := logger.GetLogger()
		log.Error().Err(err).Msg("failed to start conversation")
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:     "failed to start conversation",
			RequestID: middlewares.RequestIDFromContext(c),
		})
		return
	}

	c.JSON(http.StatusCreated, responses.ConversationResponse{
		ConversationID: conv.PublicID,
		Active:         conv.Active,
	})
}
