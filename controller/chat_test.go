package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"hrassist/model"
	"hrassist/service"
	"hrassist/tools"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:ctrl_%s?mode=memory&cache=shared", t.Name())
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

// cannedCompleter always replies with the same completion.
type cannedCompleter struct {
	resp *openai.ChatCompletion
}

func (c *cannedCompleter) Complete(_ context.Context, _ openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.resp, nil
}

type emptyRetriever struct{}

func (emptyRetriever) Search(_ context.Context, _ string) ([]tools.Reference, error) {
	return []tools.Reference{}, nil
}

func newChatRouter(t *testing.T, db *gorm.DB, llm tools.Completer, maxRounds int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := testLogger()
	registry := tools.NewRegistry(emptyRetriever{}, llm, t.TempDir(), t.TempDir(), logger)
	chat := service.NewChatService(db, llm, registry, maxRounds, logger)
	resolver := service.NewResolver(db, logger)
	ctrl := NewChatController(chat, resolver, logger)

	r := gin.New()
	r.POST("/v1/chat", ctrl.Chat)
	return r
}

func postChat(t *testing.T, r *gin.Engine, body map[string]any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatEndpoint(t *testing.T) {
	db := newTestDB(t)
	llm := &cannedCompleter{resp: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "You have 16 annual days left."}},
		},
	}}
	r := newChatRouter(t, db, llm, 8)

	w := postChat(t, r, map[string]any{
		"messages": []map[string]string{{"id": "m1", "role": "user", "content": "How many days left?"}},
	}, map[string]string{
		service.HeaderUserID:   "1",
		service.HeaderThreadID: "thread_ctrl",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "thread_ctrl", w.Header().Get(service.HeaderThreadID))

	var result service.TurnResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "You have 16 annual days left.", result.Answer)
	assert.Equal(t, "thread_ctrl", result.ThreadID)

	// The turn was bound to an auto-created conversation.
	conv, err := model.GetConversationByThread(db, "thread_ctrl")
	require.NoError(t, err)
	count, err := model.CountMessages(db, conv.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestChatEndpointGeneratesThreadID(t *testing.T) {
	db := newTestDB(t)
	llm := &cannedCompleter{resp: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "Hello."}},
		},
	}}
	r := newChatRouter(t, db, llm, 8)

	w := postChat(t, r, map[string]any{
		"messages": []map[string]string{{"id": "m1", "role": "user", "content": "hi"}},
	}, map[string]string{service.HeaderUserID: "1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(service.HeaderThreadID))
}

func TestChatEndpointRejectsMissingMessages(t *testing.T) {
	db := newTestDB(t)
	r := newChatRouter(t, db, &cannedCompleter{}, 8)

	w := postChat(t, r, map[string]any{"user_data": map[string]string{}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEndpointToolLoopIsBadGateway(t *testing.T) {
	db := newTestDB(t)
	llm := &cannedCompleter{resp: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{
				Role: "assistant",
				ToolCalls: []openai.ChatCompletionMessageToolCall{
					{ID: "call_1", Function: openai.ChatCompletionMessageToolCallFunction{
						Name:      tools.ToolGetPromotionTable,
						Arguments: "{}",
					}},
				},
			}},
		},
	}}
	r := newChatRouter(t, db, llm, 1)

	w := postChat(t, r, map[string]any{
		"messages": []map[string]string{{"id": "m1", "role": "user", "content": "loop"}},
	}, map[string]string{service.HeaderUserID: "1", service.HeaderThreadID: "thread_loop"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
