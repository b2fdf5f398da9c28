package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrassist/model"
	"hrassist/tools"
)

// scriptedCompleter replays a fixed response sequence, repeating the last
// entry once the script runs out, and records every request it saw.
type scriptedCompleter struct {
	script   []*openai.ChatCompletion
	err      error
	requests []openai.ChatCompletionNewParams
}

func (s *scriptedCompleter) Complete(_ context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	s.requests = append(s.requests, params)
	if s.err != nil {
		return nil, s.err
	}
	idx := len(s.requests) - 1
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	return s.script[idx], nil
}

func answerResponse(text string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: text}},
		},
	}
}

func toolCallResponse(id, name, arguments string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{
				Role: "assistant",
				ToolCalls: []openai.ChatCompletionMessageToolCall{
					{
						ID: id,
						Function: openai.ChatCompletionMessageToolCallFunction{
							Name:      name,
							Arguments: arguments,
						},
					},
				},
			}},
		},
	}
}

type stubRetriever struct {
	refs []tools.Reference
}

func (s *stubRetriever) Search(_ context.Context, _ string) ([]tools.Reference, error) {
	return s.refs, nil
}

func newTestChat(t *testing.T, llm tools.Completer, retriever tools.Retriever, maxRounds int) (*ChatService, *Resolver) {
	t.Helper()
	db := newTestDB(t)
	logger := testLogger()
	registry := tools.NewRegistry(retriever, llm, t.TempDir(), t.TempDir(), logger)
	return NewChatService(db, llm, registry, maxRounds, logger), NewResolver(db, logger)
}

func countUserMessages(params openai.ChatCompletionNewParams) int {
	n := 0
	for _, msg := range params.Messages {
		if msg.OfUser != nil {
			n++
		}
	}
	return n
}

func TestRunTurnDirectAnswer(t *testing.T) {
	llm := &scriptedCompleter{script: []*openai.ChatCompletion{
		answerResponse("You have 21 annual leave days per year."),
	}}
	chat, resolver := newTestChat(t, llm, &stubRetriever{}, 8)

	identity := resolver.Resolve("1", "", "thread_direct")
	require.NotZero(t, identity.ConversationID)

	result, err := chat.RunTurn(context.Background(), TurnRequest{
		Identity: identity,
		Messages: []InboundMessage{{ID: "m1", Role: "user", Content: "How many annual leave days do I get?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "You have 21 annual leave days per year.", result.Answer)
	assert.Empty(t, result.References)
	assert.Equal(t, "thread_direct", result.ThreadID)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, RoleUser, result.Messages[0].Role)
	assert.Equal(t, RoleAssistant, result.Messages[1].Role)

	count, err := model.CountMessages(chat.db, identity.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRunTurnDuplicateInboundNotReplayedTwice(t *testing.T) {
	llm := &scriptedCompleter{script: []*openai.ChatCompletion{answerResponse("Answered.")}}
	chat, resolver := newTestChat(t, llm, &stubRetriever{}, 8)

	identity := resolver.Resolve("1", "", "thread_dup")
	inbound := []InboundMessage{{ID: "m1", Role: "user", Content: "hello"}}

	_, err := chat.RunTurn(context.Background(), TurnRequest{Identity: identity, Messages: inbound})
	require.NoError(t, err)

	// Retry of the same client message: it is already in the replayed
	// history, so the prompt must carry it exactly once.
	_, err = chat.RunTurn(context.Background(), TurnRequest{Identity: identity, Messages: inbound})
	require.NoError(t, err)

	require.Len(t, llm.requests, 2)
	assert.Equal(t, 1, countUserMessages(llm.requests[1]))

	var userRows int64
	require.NoError(t, chat.db.Model(&model.Message{}).
		Where("conversation_id = ? AND role = ?", identity.ConversationID, "user").
		Count(&userRows).Error)
	assert.Equal(t, int64(1), userRows)
}

func TestRunTurnToolDispatch(t *testing.T) {
	refs := []tools.Reference{{Content: "Staff accrue 21 days.", Source: "leave_policy.md", Page: 1, Index: 1}}
	llm := &scriptedCompleter{script: []*openai.ChatCompletion{
		toolCallResponse("call_1", tools.ToolRetrievePolicyInfo, `{"query":"annual leave"}`),
		answerResponse("Per policy, staff accrue 21 days."),
	}}
	chat, resolver := newTestChat(t, llm, &stubRetriever{refs: refs}, 8)

	identity := resolver.Resolve("1", "", "thread_tool")
	result, err := chat.RunTurn(context.Background(), TurnRequest{
		Identity: identity,
		Messages: []InboundMessage{{ID: "m1", Role: "user", Content: "What does the leave policy say?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Per policy, staff accrue 21 days.", result.Answer)
	assert.Equal(t, refs, result.References)

	// user + tool payload + assistant answer
	count, err := model.CountMessages(chat.db, identity.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	messages, err := model.ListMessages(chat.db, identity.ConversationID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "tool", messages[1].Role)
	var content MessageContent
	require.NoError(t, json.Unmarshal(messages[1].Content, &content))
	assert.Contains(t, content.Text, "Staff accrue 21 days.")
}

func TestRunTurnToolLoopExceeded(t *testing.T) {
	llm := &scriptedCompleter{script: []*openai.ChatCompletion{
		toolCallResponse("call_x", tools.ToolGetPromotionTable, `{}`),
	}}
	chat, resolver := newTestChat(t, llm, &stubRetriever{}, 2)

	identity := resolver.Resolve("1", "", "thread_loop")
	_, err := chat.RunTurn(context.Background(), TurnRequest{
		Identity: identity,
		Messages: []InboundMessage{{ID: "m1", Role: "user", Content: "loop forever"}},
	})
	require.ErrorIs(t, err, ErrToolLoopExceeded)

	// The partial turn is still persisted for audit.
	count, err := model.CountMessages(chat.db, identity.ConversationID)
	require.NoError(t, err)
	assert.Greater(t, count, int64(1))
}

func TestRunTurnReasoningFailed(t *testing.T) {
	llm := &scriptedCompleter{err: errors.New("connection refused")}
	chat, resolver := newTestChat(t, llm, &stubRetriever{}, 8)

	identity := resolver.Resolve("1", "", "thread_down")
	_, err := chat.RunTurn(context.Background(), TurnRequest{
		Identity: identity,
		Messages: []InboundMessage{{ID: "m1", Role: "user", Content: "hello"}},
	})
	assert.ErrorIs(t, err, ErrReasoningFailed)
}

func TestRunTurnDegradedModeAnswersWithoutPersisting(t *testing.T) {
	llm := &scriptedCompleter{script: []*openai.ChatCompletion{answerResponse("Still here.")}}
	chat, _ := newTestChat(t, llm, &stubRetriever{}, 8)

	result, err := chat.RunTurn(context.Background(), TurnRequest{
		Identity: TurnIdentity{ThreadID: "thread_degraded"},
		Messages: []InboundMessage{{Role: "user", Content: "anyone home?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Still here.", result.Answer)

	var total int64
	require.NoError(t, chat.db.Model(&model.Message{}).Count(&total).Error)
	assert.Zero(t, total)
}

func TestRunTurnSkipsBlankInbound(t *testing.T) {
	llm := &scriptedCompleter{script: []*openai.ChatCompletion{answerResponse("ok")}}
	chat, resolver := newTestChat(t, llm, &stubRetriever{}, 8)

	identity := resolver.Resolve("1", "", "thread_blank")
	result, err := chat.RunTurn(context.Background(), TurnRequest{
		Identity: identity,
		Messages: []InboundMessage{
			{ID: "m1", Role: "user", Content: "   "},
			{ID: "m2", Role: "user", Content: "real question"},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, "real question", result.Messages[0].Content)

	var userRows int64
	require.NoError(t, chat.db.Model(&model.Message{}).
		Where("conversation_id = ? AND role = ?", identity.ConversationID, "user").
		Count(&userRows).Error)
	assert.Equal(t, int64(1), userRows)
}

func TestRunTurnIncludesUserData(t *testing.T) {
	llm := &scriptedCompleter{script: []*openai.ChatCompletion{answerResponse("ok")}}
	chat, resolver := newTestChat(t, llm, &stubRetriever{}, 8)

	identity := resolver.Resolve("1", "", "thread_userdata")
	_, err := chat.RunTurn(context.Background(), TurnRequest{
		Identity: identity,
		Messages: []InboundMessage{{ID: "m1", Role: "user", Content: "hi"}},
		UserData: map[string]any{"full_name": "Caroline Sabty"},
	})
	require.NoError(t, err)

	require.Len(t, llm.requests, 1)
	systemTexts := 0
	for _, msg := range llm.requests[0].Messages {
		if msg.OfSystem != nil {
			systemTexts++
		}
	}
	// Base system prompt plus the personalization block.
	assert.Equal(t, 2, systemTexts)
}
