package service

import (
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"hrassist/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, model.InstallDB(db))
	return db
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRoleFromString(t *testing.T) {
	assert.Equal(t, RoleUser, RoleFromString("user"))
	assert.Equal(t, RoleUser, RoleFromString("human"))
	assert.Equal(t, RoleAssistant, RoleFromString("assistant"))
	assert.Equal(t, RoleAssistant, RoleFromString("AI"))
	assert.Equal(t, RoleSystem, RoleFromString("system"))
	assert.Equal(t, RoleTool, RoleFromString(" tool "))
	assert.Equal(t, RoleUser, RoleFromString("banana"))
	assert.Equal(t, RoleUser, RoleFromString(""))
}

func TestExtractContent(t *testing.T) {
	assert.Nil(t, ExtractContent("", "m1", ""))
	assert.Nil(t, ExtractContent("   \n\t", "m1", ""))

	content := ExtractContent("  hello  ", "m1", "2026-09-01T10:00:00Z")
	require.NotNil(t, content)
	assert.Equal(t, "hello", content.Text)
	require.NotNil(t, content.Metadata.ClientMessageID)
	assert.Equal(t, "m1", *content.Metadata.ClientMessageID)
	require.NotNil(t, content.Metadata.Timestamp)

	bare := ExtractContent("hello", "", "")
	require.NotNil(t, bare)
	assert.Nil(t, bare.Metadata.ClientMessageID)
	assert.Nil(t, bare.Metadata.Timestamp)
}

func TestMessageStoreSaveDedup(t *testing.T) {
	db := newTestDB(t)
	store := NewMessageStore(db, testLogger())

	conv, err := model.GetOrCreateConversationByThread(db, 1, "thread_store", "New Conversation")
	require.NoError(t, err)

	content := ExtractContent("how many leave days left?", "client-1", "")
	require.NotNil(t, content)

	first, err := store.Save(conv.ConversationID, RoleUser, *content)
	require.NoError(t, err)
	assert.NotZero(t, first)

	second, err := store.Save(conv.ConversationID, RoleUser, *content)
	require.NoError(t, err)
	assert.Zero(t, second)

	count, err := model.CountMessages(db, conv.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMessageStoreSaveTouchesConversation(t *testing.T) {
	db := newTestDB(t)
	store := NewMessageStore(db, testLogger())

	conv, err := model.GetOrCreateConversationByThread(db, 1, "thread_touch", "New Conversation")
	require.NoError(t, err)
	before := conv.UpdatedAt

	content := ExtractContent("ping", "", "")
	id, err := store.Save(conv.ConversationID, RoleUser, *content)
	require.NoError(t, err)
	require.NotZero(t, id)

	after, err := model.GetConversation(db, conv.ConversationID)
	require.NoError(t, err)
	assert.False(t, after.UpdatedAt.Before(before))
}
