package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hrassist/model"
	"hrassist/service"
)

// ConversationController ...
type ConversationController struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewConversationController(db *gorm.DB, logger *logrus.Logger) *ConversationController {
	return &ConversationController{db: db, logger: logger}
}

func (ctrl *ConversationController) Create(c *gin.Context) {
	var payload struct {
		UserID uint   `json:"user_id" binding:"required"`
		Title  string `json:"title"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if payload.Title == "" {
		payload.Title = "New Conversation"
	}

	conv := model.Conversation{
		UserID:   payload.UserID,
		Title:    payload.Title,
		ThreadID: service.NewThreadID(),
		IsActive: true,
	}
	if err := model.CreateConversation(ctrl.db, &conv); err != nil {
		ctrl.logger.Warnf("[%s] Failed to create conversation: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create conversation"})
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (ctrl *ConversationController) ListByUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	includeInactive := c.Query("include_inactive") == "true"

	conversations, err := model.ListUserConversations(ctrl.db, uint(userID), includeInactive)
	if err != nil {
		ctrl.logger.Warnf("[%s] Failed to list conversations: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list conversations"})
		return
	}
	c.JSON(http.StatusOK, conversations)
}

func (ctrl *ConversationController) Get(c *gin.Context) {
	conversationID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return
	}

	conv, err := model.GetConversation(ctrl.db, uint(conversationID))
	if err != nil {
		ctrl.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (ctrl *ConversationController) GetByThread(c *gin.Context) {
	conv, err := model.GetConversationByThread(ctrl.db, c.Param("thread_id"))
	if err != nil {
		ctrl.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (ctrl *ConversationController) Update(c *gin.Context) {
	conversationID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return
	}

	var payload struct {
		Title    *string `json:"title"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if payload.Title == nil && payload.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	conv, err := model.UpdateConversation(ctrl.db, uint(conversationID), payload.Title, payload.IsActive)
	if err != nil {
		ctrl.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (ctrl *ConversationController) Delete(c *gin.Context) {
	conversationID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return
	}
	soft := c.DefaultQuery("soft_delete", "true") != "false"

	if err := model.DeleteConversation(ctrl.db, uint(conversationID), soft); err != nil {
		ctrl.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Conversation deleted",
		"conversation_id": conversationID,
	})
}

func (ctrl *ConversationController) ListMessages(c *gin.Context) {
	conversationID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	messages, err := model.ListMessages(ctrl.db, uint(conversationID), limit, 0)
	if err != nil {
		ctrl.logger.Warnf("[%s] Failed to list messages: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (ctrl *ConversationController) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, model.ErrConversationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	ctrl.logger.Warnf("[%s] Conversation operation failed: %s", c.GetString("requestId"), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Conversation operation failed"})
}
