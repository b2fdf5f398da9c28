package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Message is one append-only row of a conversation. Content is structured
// JSON ({"text": ..., "metadata": {...}}); DedupKey carries the client's
// own message id so retried turns cannot double-insert.
type Message struct {
	MessageID      uint           `gorm:"primaryKey;autoIncrement;column:message_id" json:"message_id"`
	ConversationID uint           `gorm:"index;column:conversation_id" json:"conversation_id"`
	Role           string         `gorm:"type:varchar(20);not null" json:"role"`
	Content        datatypes.JSON `gorm:"not null" json:"content"`
	DedupKey       *string        `gorm:"type:varchar(255);uniqueIndex;column:dedup_key" json:"dedup_key,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

var ErrMessageNotFound = errors.New("message not found")

// CreateMessage inserts one message row. The ON CONFLICT guard on
// dedup_key backstops the caller's exists-check: a lost race reports a
// no-op (returns false) instead of failing.
func CreateMessage(db *gorm.DB, msg *Message) (bool, error) {
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedup_key"}},
		DoNothing: true,
	}).Create(msg)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create message: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func MessageExistsByDedupKey(db *gorm.DB, dedupKey string) (bool, error) {
	var count int64
	if err := db.Model(&Message{}).Where("dedup_key = ?", dedupKey).Count(&count).Error; err != nil {
		return false, fmt.Errorf("database query failed: %w", err)
	}
	return count > 0, nil
}

func GetMessage(db *gorm.DB, messageID uint) (*Message, error) {
	var msg Message
	if err := db.Where("message_id = ?", messageID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &msg, nil
}

func ListMessages(db *gorm.DB, conversationID uint, limit, offset int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}

	var messages []Message
	if err := db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC, message_id ASC").
		Limit(limit).Offset(offset).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return messages, nil
}

func CountMessages(db *gorm.DB, conversationID uint) (int64, error) {
	var count int64
	if err := db.Model(&Message{}).Where("conversation_id = ?", conversationID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("database query failed: %w", err)
	}
	return count, nil
}

func DeleteMessage(db *gorm.DB, messageID uint) (uint, error) {
	msg, err := GetMessage(db, messageID)
	if err != nil {
		return 0, err
	}
	if err := db.Delete(&Message{}, "message_id = ?", messageID).Error; err != nil {
		return 0, fmt.Errorf("failed to delete message: %w", err)
	}
	return msg.ConversationID, nil
}

func DeleteConversationMessages(db *gorm.DB, conversationID uint) error {
	if err := db.Where("conversation_id = ?", conversationID).Delete(&Message{}).Error; err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}
