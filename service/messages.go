package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hrassist/model"
)

// Role is the tagged variant persisted with every message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// RoleFromString maps an external role tag onto the enum. Unknown tags
// fall back to user, matching how clients label plain chat input.
func RoleFromString(tag string) Role {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "user", "human":
		return RoleUser
	case "assistant", "ai":
		return RoleAssistant
	case "system":
		return RoleSystem
	case "tool":
		return RoleTool
	default:
		return RoleUser
	}
}

// MessageContent is the structured JSON stored in the messages table.
type MessageContent struct {
	Text     string          `json:"text"`
	Metadata MessageMetadata `json:"metadata"`
}

type MessageMetadata struct {
	ClientMessageID *string `json:"client_message_id"`
	Timestamp       *string `json:"timestamp"`
}

// ExtractContent normalizes raw message text into persistable content.
// Blank text yields nil: the message is a no-op, not an error.
func ExtractContent(text, clientMessageID, timestamp string) *MessageContent {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	content := MessageContent{Text: text}
	if clientMessageID != "" {
		content.Metadata.ClientMessageID = &clientMessageID
	}
	if timestamp != "" {
		content.Metadata.Timestamp = &timestamp
	}
	return &content
}

// MessageStore adapts engine messages into persisted rows.
type MessageStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewMessageStore(db *gorm.DB, logger *logrus.Logger) *MessageStore {
	return &MessageStore{db: db, logger: logger}
}

// Save persists one message. When the content carries a client message id
// that already exists, the save is an idempotent no-op and returns 0.
// Inserts bump the parent conversation's updated_at.
func (s *MessageStore) Save(conversationID uint, role Role, content MessageContent) (uint, error) {
	var dedupKey *string
	if content.Metadata.ClientMessageID != nil {
		dedupKey = content.Metadata.ClientMessageID
		exists, err := model.MessageExistsByDedupKey(s.db, *dedupKey)
		if err != nil {
			return 0, err
		}
		if exists {
			s.logger.Infof("skipping duplicate message %s", *dedupKey)
			return 0, nil
		}
	}

	payload, err := json.Marshal(content)
	if err != nil {
		return 0, fmt.Errorf("failed to encode message content: %w", err)
	}

	msg := model.Message{
		ConversationID: conversationID,
		Role:           string(role),
		Content:        datatypes.JSON(payload),
		DedupKey:       dedupKey,
	}
	inserted, err := model.CreateMessage(s.db, &msg)
	if err != nil {
		return 0, err
	}
	if !inserted {
		// Lost a dedup race to a concurrent save.
		return 0, nil
	}

	if err := model.TouchConversation(s.db, conversationID); err != nil {
		s.logger.Warnf("failed to touch conversation %d: %s", conversationID, err)
	}
	return msg.MessageID, nil
}
