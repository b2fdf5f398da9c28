package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Conversation maps one client-held thread id to a persisted chat session.
type Conversation struct {
	ConversationID uint      `gorm:"primaryKey;autoIncrement;column:conversation_id" json:"conversation_id"`
	UserID         uint      `gorm:"index;column:user_id" json:"user_id"`
	Title          string    `gorm:"type:varchar(255)" json:"title"`
	ThreadID       string    `gorm:"type:varchar(255);not null;uniqueIndex;column:thread_id" json:"thread_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
}

func (Conversation) TableName() string { return "conversations" }

var ErrConversationNotFound = errors.New("conversation not found")

func CreateConversation(db *gorm.DB, conv *Conversation) error {
	if err := db.Create(conv).Error; err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func GetConversation(db *gorm.DB, conversationID uint) (*Conversation, error) {
	var conv Conversation
	if err := db.Where("conversation_id = ?", conversationID).First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &conv, nil
}

func GetConversationByThread(db *gorm.DB, threadID string) (*Conversation, error) {
	var conv Conversation
	if err := db.Where("thread_id = ?", threadID).First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &conv, nil
}

// GetOrCreateConversationByThread resolves the conversation for a thread,
// creating it when absent. The insert runs with ON CONFLICT DO NOTHING on
// the thread_id unique index, so two racing callers both land on the same
// row: whichever insert loses the race falls through to the re-read.
func GetOrCreateConversationByThread(db *gorm.DB, userID uint, threadID, title string) (*Conversation, error) {
	conv := Conversation{UserID: userID, Title: title, ThreadID: threadID}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "thread_id"}},
		DoNothing: true,
	}).Create(&conv).Error; err != nil {
		return nil, fmt.Errorf("failed to upsert conversation: %w", err)
	}

	return GetConversationByThread(db, threadID)
}

func ListUserConversations(db *gorm.DB, userID uint, includeInactive bool) ([]Conversation, error) {
	query := db.Where("user_id = ?", userID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var conversations []Conversation
	if err := query.Order("updated_at DESC").Find(&conversations).Error; err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return conversations, nil
}

// UpdateConversation patches title and/or is_active. Nil fields are left
// untouched.
func UpdateConversation(db *gorm.DB, conversationID uint, title *string, isActive *bool) (*Conversation, error) {
	updates := map[string]interface{}{}
	if title != nil {
		updates["title"] = *title
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}
	if len(updates) == 0 {
		return nil, errors.New("no fields to update")
	}

	result := db.Model(&Conversation{}).Where("conversation_id = ?", conversationID).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrConversationNotFound
	}
	return GetConversation(db, conversationID)
}

// DeleteConversation soft-deletes by default; hard delete removes the row
// and its messages.
func DeleteConversation(db *gorm.DB, conversationID uint, soft bool) error {
	if soft {
		result := db.Model(&Conversation{}).Where("conversation_id = ?", conversationID).
			Update("is_active", false)
		if result.Error != nil {
			return fmt.Errorf("failed to delete conversation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrConversationNotFound
		}
		return nil
	}

	if err := db.Where("conversation_id = ?", conversationID).Delete(&Message{}).Error; err != nil {
		return fmt.Errorf("failed to delete conversation messages: %w", err)
	}
	result := db.Where("conversation_id = ?", conversationID).Delete(&Conversation{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete conversation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// TouchConversation bumps updated_at after a message append.
func TouchConversation(db *gorm.DB, conversationID uint) error {
	if err := db.Model(&Conversation{}).Where("conversation_id = ?", conversationID).
		Update("updated_at", time.Now()).Error; err != nil {
		return fmt.Errorf("failed to touch conversation %d: %w", conversationID, err)
	}
	return nil
}
