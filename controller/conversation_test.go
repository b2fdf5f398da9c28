package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hrassist/model"
	"hrassist/service"
)

func newConversationRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := testLogger()
	convCtrl := NewConversationController(db, logger)
	msgCtrl := NewMessageController(db, service.NewMessageStore(db, logger), logger)

	r := gin.New()
	v1 := r.Group("/v1")
	v1.POST("/conversations", convCtrl.Create)
	v1.GET("/conversations/user/:user_id", convCtrl.ListByUser)
	v1.GET("/conversations/:conversation_id", convCtrl.Get)
	v1.GET("/conversations/thread/:thread_id", convCtrl.GetByThread)
	v1.PATCH("/conversations/:conversation_id", convCtrl.Update)
	v1.DELETE("/conversations/:conversation_id", convCtrl.Delete)
	v1.GET("/conversations/:conversation_id/messages", convCtrl.ListMessages)
	v1.POST("/messages", msgCtrl.Create)
	v1.GET("/messages/count/:conversation_id", msgCtrl.Count)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestConversationLifecycle(t *testing.T) {
	db := newTestDB(t)
	r := newConversationRouter(t, db)

	// Create
	w := doJSON(t, r, http.MethodPost, "/v1/conversations", map[string]any{"user_id": 4, "title": "Leave questions"})
	require.Equal(t, http.StatusOK, w.Code)

	var conv model.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	require.NotZero(t, conv.ConversationID)
	assert.Equal(t, "Leave questions", conv.Title)
	assert.NotEmpty(t, conv.ThreadID)

	// Get by id and by thread
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/v1/conversations/%d", conv.ConversationID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v1/conversations/thread/"+conv.ThreadID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Patch the title
	w = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/v1/conversations/%d", conv.ConversationID),
		map[string]any{"title": "Annual leave"})
	require.Equal(t, http.StatusOK, w.Code)
	var patched model.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &patched))
	assert.Equal(t, "Annual leave", patched.Title)

	// List for the user
	w = doJSON(t, r, http.MethodGet, "/v1/conversations/user/4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []model.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	// Soft delete hides it from the default listing.
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/v1/conversations/%d", conv.ConversationID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v1/conversations/user/4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Empty(t, listed)

	w = doJSON(t, r, http.MethodGet, "/v1/conversations/user/4?include_inactive=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestConversationNotFound(t *testing.T) {
	db := newTestDB(t)
	r := newConversationRouter(t, db)

	w := doJSON(t, r, http.MethodGet, "/v1/conversations/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v1/conversations/thread/thread_nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/v1/conversations/9999", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageEndpointDedup(t *testing.T) {
	db := newTestDB(t)
	r := newConversationRouter(t, db)

	conv, err := model.GetOrCreateConversationByThread(db, 4, "thread_msgs", "New Conversation")
	require.NoError(t, err)

	body := map[string]any{
		"conversation_id":   conv.ConversationID,
		"role":              "user",
		"content":           "first message",
		"client_message_id": "client-7",
	}
	w := doJSON(t, r, http.MethodPost, "/v1/messages", body)
	require.Equal(t, http.StatusOK, w.Code)

	// Retried with the same client id: accepted, but no second row.
	w = doJSON(t, r, http.MethodPost, "/v1/messages", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"duplicate":true`)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/v1/messages/count/%d", conv.ConversationID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestMessageEndpointUnknownConversation(t *testing.T) {
	db := newTestDB(t)
	r := newConversationRouter(t, db)

	w := doJSON(t, r, http.MethodPost, "/v1/messages", map[string]any{
		"conversation_id": 12345,
		"role":            "user",
		"content":         "hello",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
