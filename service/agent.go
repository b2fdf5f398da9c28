package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hrassist/model"
	"hrassist/tools"
)

const defaultSystemPrompt = "You are the GIU HR assistant. You answer university staff questions about " +
	"administrative policy, check promotion eligibility, and generate filled HR leave forms. " +
	"Use the available tools whenever the question needs policy lookup, eligibility scoring, or form handling; " +
	"otherwise answer directly. Be concise and cite policy passages when you used retrieval."

// How much persisted history is replayed into one reasoning call.
const maxHistoryMessages = 100

var (
	ErrReasoningFailed  = errors.New("reasoning engine failed")
	ErrToolLoopExceeded = errors.New("tool call round limit exceeded")
)

// InboundMessage is one role-tagged content item from the chat request.
// ID is the client's own message id, used as the dedup key.
type InboundMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// TurnRequest is everything one orchestration turn needs: the resolved
// identity, the newly arrived messages, and the caller's optional
// personalization payload (preserved as-is, never refetched).
type TurnRequest struct {
	Identity TurnIdentity
	Messages []InboundMessage
	UserData map[string]any
}

type TurnMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type TurnResult struct {
	Answer     string            `json:"answer"`
	References []tools.Reference `json:"references"`
	Messages   []TurnMessage     `json:"messages"`
	ThreadID   string            `json:"thread_id"`
}

// ChatService drives the turn state machine: persist inbound, reason,
// dispatch tools, persist outbound. All collaborators are injected at
// construction.
type ChatService struct {
	db            *gorm.DB
	llm           tools.Completer
	registry      *tools.Registry
	store         *MessageStore
	systemPrompt  string
	maxToolRounds int
	logger        *logrus.Logger
}

func NewChatService(db *gorm.DB, llm tools.Completer, registry *tools.Registry, maxToolRounds int, logger *logrus.Logger) *ChatService {
	if maxToolRounds <= 0 {
		maxToolRounds = 8
	}
	return &ChatService{
		db:            db,
		llm:           llm,
		registry:      registry,
		store:         NewMessageStore(db, logger),
		systemPrompt:  defaultSystemPrompt,
		maxToolRounds: maxToolRounds,
		logger:        logger,
	}
}

// RunTurn executes one full request/response cycle and returns the final
// answer, the retrieved references, and the turn's message list. Message
// persistence is best-effort throughout: a store failure is logged, never
// surfaced. The only terminal failures are an unreachable/unusable
// reasoning engine and an exceeded tool round cap.
func (s *ChatService) RunTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	identity := req.Identity
	canPersist := identity.ConversationID != 0

	// History is read before the inbound persist so new messages are
	// appended to the prompt exactly once.
	var history []model.Message
	if canPersist {
		var err error
		history, err = model.ListMessages(s.db, identity.ConversationID, maxHistoryMessages, 0)
		if err != nil {
			s.logger.Warnf("failed to load history for conversation %d: %s", identity.ConversationID, err)
		}
	}

	result := &TurnResult{
		References: []tools.Reference{},
		ThreadID:   identity.ThreadID,
	}

	prompt := s.basePrompt(req.UserData)
	prompt = append(prompt, historyToPrompt(history)...)

	// PERSIST_INBOUND: save new user messages, dedup-keyed on the
	// client message id; messages without extractable text are no-ops.
	for _, inbound := range req.Messages {
		if RoleFromString(inbound.Role) != RoleUser {
			continue
		}
		content := ExtractContent(inbound.Content, inbound.ID, inbound.Timestamp)
		if content == nil {
			s.logger.Warnf("user message %q has no text after extraction, skipping", inbound.ID)
			continue
		}

		appendToPrompt := true
		if canPersist {
			id, err := s.store.Save(identity.ConversationID, RoleUser, *content)
			if err != nil {
				s.logger.Warnf("failed to save user message: %s", err)
			} else if id == 0 && inbound.ID != "" {
				// Duplicate of an already persisted message, so it is
				// part of the replayed history.
				appendToPrompt = false
			}
		}
		if appendToPrompt {
			prompt = append(prompt, openai.UserMessage(content.Text))
		}
		result.Messages = append(result.Messages, TurnMessage{Role: RoleUser, Content: content.Text})
	}

	// REASONING / TOOL_DISPATCH loop.
	var produced []TurnMessage
	answer := ""
	var loopErr error
	for round := 0; ; round++ {
		if round > s.maxToolRounds {
			s.logger.Warnf("conversation %d exceeded %d tool rounds", identity.ConversationID, s.maxToolRounds)
			loopErr = fmt.Errorf("%w after %d rounds", ErrToolLoopExceeded, s.maxToolRounds)
			break
		}

		resp, err := s.llm.Complete(ctx, openai.ChatCompletionNewParams{
			Messages: prompt,
			Tools:    s.registry.Definitions(),
		})
		if err != nil {
			loopErr = fmt.Errorf("%w: %v", ErrReasoningFailed, err)
			break
		}

		message := resp.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			answer = message.Content
			if answer != "" {
				produced = append(produced, TurnMessage{Role: RoleAssistant, Content: answer})
			}
			break
		}

		if message.Content != "" {
			produced = append(produced, TurnMessage{Role: RoleAssistant, Content: message.Content})
		}
		prompt = append(prompt, message.ToParam())

		for _, call := range message.ToolCalls {
			s.logger.Infof("dispatching tool %s for conversation %d", call.Function.Name, identity.ConversationID)
			payload, refs := s.registry.Dispatch(ctx, identity.UserID, call.Function.Name, call.Function.Arguments)
			if len(refs) > 0 {
				result.References = append(result.References, refs...)
			}
			prompt = append(prompt, openai.ToolMessage(payload, call.ID))
			produced = append(produced, TurnMessage{Role: RoleTool, Content: payload})
		}
	}

	// PERSIST_OUTBOUND: assistant and tool messages from this turn;
	// runs even when the loop failed so partial turns stay auditable.
	if canPersist {
		for _, msg := range produced {
			content := ExtractContent(msg.Content, "", "")
			if content == nil {
				continue
			}
			if _, err := s.store.Save(identity.ConversationID, msg.Role, *content); err != nil {
				s.logger.Warnf("failed to save %s message: %s", msg.Role, err)
			}
		}
	}

	if loopErr != nil {
		return nil, loopErr
	}

	result.Answer = answer
	result.Messages = append(result.Messages, produced...)
	return result, nil
}

// basePrompt builds the fixed head of every reasoning call: system prompt
// first, then the personalization block when the caller supplied one.
func (s *ChatService) basePrompt(userData map[string]any) []openai.ChatCompletionMessageParamUnion {
	prompt := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(s.systemPrompt),
	}
	if len(userData) > 0 {
		encoded, err := json.Marshal(userData)
		if err != nil {
			s.logger.Warnf("failed to encode personalization data: %s", err)
		} else {
			prompt = append(prompt, openai.SystemMessage("USER DATA for personalization:\n"+string(encoded)))
		}
	}
	return prompt
}

// historyToPrompt replays persisted rows into engine messages. Tool rows
// become system context notes: their tool_call pairing is not persisted,
// so replaying them as tool messages would be rejected upstream.
func historyToPrompt(history []model.Message) []openai.ChatCompletionMessageParamUnion {
	var prompt []openai.ChatCompletionMessageParamUnion
	for _, row := range history {
		var content MessageContent
		if err := json.Unmarshal(row.Content, &content); err != nil || content.Text == "" {
			continue
		}
		switch RoleFromString(row.Role) {
		case RoleUser:
			prompt = append(prompt, openai.UserMessage(content.Text))
		case RoleAssistant:
			prompt = append(prompt, openai.AssistantMessage(content.Text))
		case RoleTool:
			prompt = append(prompt, openai.SystemMessage("Earlier tool result:\n"+content.Text))
		}
	}
	return prompt
}
