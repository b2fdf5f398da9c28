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

// MessageController ...
type MessageController struct {
	db     *gorm.DB
	store  *service.MessageStore
	logger *logrus.Logger
}

func NewMessageController(db *gorm.DB, store *service.MessageStore, logger *logrus.Logger) *MessageController {
	return &MessageController{db: db, store: store, logger: logger}
}

func (ctrl *MessageController) Create(c *gin.Context) {
	var payload struct {
		ConversationID uint   `json:"conversation_id" binding:"required"`
		Role           string `json:"role" binding:"required"`
		Content        string `json:"content" binding:"required"`
		ClientID       string `json:"client_message_id"`
		Timestamp      string `json:"timestamp"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if _, err := model.GetConversation(ctrl.db, payload.ConversationID); err != nil {
		if errors.Is(err, model.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		ctrl.logger.Warnf("[%s] Conversation lookup failed: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create message"})
		return
	}

	content := service.ExtractContent(payload.Content, payload.ClientID, payload.Timestamp)
	if content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message content is empty"})
		return
	}

	messageID, err := ctrl.store.Save(payload.ConversationID, service.RoleFromString(payload.Role), *content)
	if err != nil {
		ctrl.logger.Warnf("[%s] Failed to create message: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create message"})
		return
	}
	if messageID == 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "duplicate": true})
		return
	}

	message, err := model.GetMessage(ctrl.db, messageID)
	if err != nil {
		ctrl.logger.Warnf("[%s] Saved message %d unreadable: %s", c.GetString("requestId"), messageID, err)
		c.JSON(http.StatusOK, gin.H{"success": true, "message_id": messageID})
		return
	}
	c.JSON(http.StatusOK, message)
}

func (ctrl *MessageController) List(c *gin.Context) {
	conversationID, err := strconv.ParseUint(c.Query("conversation_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := model.ListMessages(ctrl.db, uint(conversationID), limit, offset)
	if err != nil {
		ctrl.logger.Warnf("[%s] Failed to list messages: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (ctrl *MessageController) Get(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("message_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message id"})
		return
	}

	message, err := model.GetMessage(ctrl.db, uint(messageID))
	if err != nil {
		if errors.Is(err, model.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		}
		ctrl.logger.Warnf("[%s] Failed to get message: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get message"})
		return
	}
	c.JSON(http.StatusOK, message)
}

func (ctrl *MessageController) Delete(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("message_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message id"})
		return
	}

	conversationID, err := model.DeleteMessage(ctrl.db, uint(messageID))
	if err != nil {
		if errors.Is(err, model.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		}
		ctrl.logger.Warnf("[%s] Failed to delete message: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete message"})
		return
	}

	if err := model.TouchConversation(ctrl.db, conversationID); err != nil {
		ctrl.logger.Warnf("[%s] Failed to touch conversation %d: %s", c.GetString("requestId"), conversationID, err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message deleted", "message_id": messageID})
}

func (ctrl *MessageController) Count(c *gin.Context) {
	conversationID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return
	}

	count, err := model.CountMessages(ctrl.db, uint(conversationID))
	if err != nil {
		ctrl.logger.Warnf("[%s] Failed to count messages: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": conversationID, "count": count})
}

func (ctrl *MessageController) DeleteAll(c *gin.Context) {
	conversationID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return
	}

	if err := model.DeleteConversationMessages(ctrl.db, uint(conversationID)); err != nil {
		ctrl.logger.Warnf("[%s] Failed to delete conversation messages: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Messages deleted", "conversation_id": conversationID})
}
