package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hrassist/service"
)

// ChatController is the orchestrator's HTTP front door.
type ChatController struct {
	chat     *service.ChatService
	resolver *service.Resolver
	logger   *logrus.Logger
}

func NewChatController(chat *service.ChatService, resolver *service.Resolver, logger *logrus.Logger) *ChatController {
	return &ChatController{chat: chat, resolver: resolver, logger: logger}
}

// Chat runs one turn: resolve identity and thread from request metadata,
// then hand the inbound messages and personalization payload to the
// orchestrator.
func (ch *ChatController) Chat(c *gin.Context) {
	var reqData struct {
		Messages []service.InboundMessage `json:"messages" binding:"required"`
		UserData map[string]any           `json:"user_data"`
	}
	if err := c.ShouldBindJSON(&reqData); err != nil {
		ch.logger.Warnf("[%s] Invalid input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	userIDCookie, _ := c.Cookie(service.CookieUserID)
	identity := ch.resolver.Resolve(
		c.GetHeader(service.HeaderUserID),
		userIDCookie,
		c.GetHeader(service.HeaderThreadID),
	)

	result, err := ch.chat.RunTurn(c.Request.Context(), service.TurnRequest{
		Identity: identity,
		Messages: reqData.Messages,
		UserData: reqData.UserData,
	})
	if err != nil {
		ch.logger.Warnf("[%s] Turn failed for thread %s: %s", c.GetString("requestId"), identity.ThreadID, err)
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrToolLoopExceeded) || errors.Is(err, service.ErrReasoningFailed) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": "Failed to run chat turn"})
		return
	}

	c.Header(service.HeaderThreadID, result.ThreadID)
	c.JSON(http.StatusOK, result)
}
