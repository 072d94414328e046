package chathandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pepperbot/pepper-server/internal/domain/chat"
	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/domain/provider"
	"github.com/pepperbot/pepper-server/internal/domain/user"
	"github.com/pepperbot/pepper-server/internal/infrastructure/logger"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver/middlewares"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver/requests"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver/responses"
	"github.com/pepperbot/pepper-server/internal/utils/functional"
)

// Handler serves the chat endpoint.
type Handler struct {
	orchestrator *chat.Orchestrator
}

func NewHandler(orchestrator *chat.Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// Chat handles POST /v1/chat.
func (h *Handler) Chat(c *gin.Context) {
	var req requests.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:     "invalid request body",
			RequestID: middlewares.RequestIDFromContext(c),
		})
		return
	}
	if !req.HasContent() {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:     "message needs text or at least one attachment",
			RequestID: middlewares.RequestIDFromContext(c),
		})
		return
	}

	attachments := functional.Map(req.Attachments, func(att requests.ChatAttachment) conversation.Attachment {
		return conversation.Attachment{
			MimeType:   att.MimeType,
			StorageRef: att.StorageRef,
		}
	})

	result, err := h.orchestrator.Handle(c.Request.Context(), chat.Request{
		Identity: user.Identity{
			ExternalID: req.ExternalUserID,
			Username:   req.Username,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
		},
		Text:            req.Text,
		Attachments:     attachments,
		NewConversation: req.IsNewConversation(),
	})
	if err != nil {
		h.renderFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.NewChatResponse(result))
}

func (h *Handler) renderFailure(c *gin.Context, err error) {
	requestID := middlewares.RequestIDFromContext(c)
	log := logger.GetLogger()
	log.Error().Err(err).Str("request_id", requestID).Msg("chat request failed")

	kind, ok := chat.FailureKindOf(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:     "internal error",
			RequestID: requestID,
		})
		return
	}

	status := http.StatusInternalServerError
	message := "internal error"
	switch kind {
	case chat.FailureConfiguration:
		status = http.StatusBadRequest
		message = "invalid configuration"
		if errors.Is(err, provider.ErrUnknownModel) {
			message = "unknown model configured, update your settings"
		}
	case chat.FailureConversationReset:
		status = http.StatusConflict
		message = "conversation was reset, send your message again"
	case chat.FailureProvider:
		status = http.StatusBadGateway
		message = "the model provider could not serve the request"
		if provKind, ok := provider.KindOf(err); ok && provKind == provider.ErrorKindRateLimited {
			status = http.StatusTooManyRequests
			message = "the model provider is rate limiting requests"
		}
	case chat.FailureStorage:
		message = "storage failure"
	}

	c.JSON(status, responses.ErrorResponse{
		Error:     message,
		Code:      string(kind),
		RequestID: requestID,
	})
}
