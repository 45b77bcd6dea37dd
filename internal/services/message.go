package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mat1312/psicologo/internal/model"
	"github.com/mat1312/psicologo/internal/store"
)

// MessageService appends and lists session messages.
type MessageService struct {
	store store.Store
}

func NewMessageService(s store.Store) *MessageService { return &MessageService{store: s} }

func (s *MessageService) AppendMessage(ctx context.Context, m *model.Message) (*model.Message, error) {
	if strings.TrimSpace(m.Content) == "" {
		return nil, fmt.Errorf("%w: message content is empty", model.ErrValidation)
	}
	if m.Role != model.MessageRoleUser && m.Role != model.MessageRoleAssistant {
		return nil, fmt.Errorf("%w: unknown message role %q", model.ErrValidation, m.Role)
	}
	return s.store.Messages().Append(ctx, m)
}

// ListMessages returns the session's messages in seq order, strictly after
// afterSeq when positive.
func (s *MessageService) ListMessages(ctx context.Context, sessionID string, afterSeq int64, limit int) ([]*model.Message, error) {
	if _, err := s.store.Sessions().Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.Messages().List(ctx, model.ListMessagesRequest{
		SessionID: sessionID,
		AfterSeq:  afterSeq,
		Limit:     limit,
	})
}
