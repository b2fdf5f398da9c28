package service

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hrassist/model"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderThreadID = "X-Thread-ID"
	CookieUserID   = "user_id"
)

// TurnIdentity is the resolved (user, thread, conversation) triple for one
// turn. ConversationID stays 0 in degraded mode: the turn still answers,
// nothing is persisted.
type TurnIdentity struct {
	UserID         uint
	ThreadID       string
	ConversationID uint
}

// Resolver binds request metadata to a conversation row, auto-creating it
// exactly once per thread.
type Resolver struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewResolver(db *gorm.DB, logger *logrus.Logger) *Resolver {
	return &Resolver{db: db, logger: logger}
}

// Resolve determines the acting user (header first, cookie fallback) and
// the conversation for the thread header. Persistence problems are logged
// and never block the turn.
func (r *Resolver) Resolve(userIDHeader, userIDCookie, threadIDHeader string) TurnIdentity {
	identity := TurnIdentity{}

	rawUser := userIDHeader
	if rawUser == "" {
		rawUser = userIDCookie
	}
	if rawUser != "" {
		if id, err := strconv.ParseUint(rawUser, 10, 32); err == nil {
			identity.UserID = uint(id)
		} else {
			r.logger.Warnf("unparseable user id %q: %s", rawUser, err)
		}
	}

	identity.ThreadID = threadIDHeader
	if identity.ThreadID == "" {
		identity.ThreadID = NewThreadID()
		r.logger.Warnf("no thread id provided, generated new: %s", identity.ThreadID)
	}

	conv, err := model.GetConversationByThread(r.db, identity.ThreadID)
	if err == nil {
		identity.ConversationID = conv.ConversationID
		return identity
	}
	if err != model.ErrConversationNotFound {
		r.logger.Warnf("conversation lookup failed for thread %s: %s", identity.ThreadID, err)
		return identity
	}

	if identity.UserID == 0 {
		r.logger.Warnf("cannot auto-create conversation for thread %s without a user id", identity.ThreadID)
		return identity
	}

	conv, err = model.GetOrCreateConversationByThread(r.db, identity.UserID, identity.ThreadID, "New Conversation")
	if err != nil {
		r.logger.Warnf("conversation auto-create failed for thread %s: %s", identity.ThreadID, err)
		return identity
	}
	identity.ConversationID = conv.ConversationID
	return identity
}

// NewThreadID generates an opaque thread correlation id.
func NewThreadID() string {
	return "thread_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}
