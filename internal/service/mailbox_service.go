package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cwrk-planet/signaling-service/internal/domain"
	"github.com/cwrk-planet/signaling-service/pkg/errs"
)

type SendInput struct {
	RoomID     string
	Payload    json.RawMessage
	Type       string
	FromUserID string
}

type MailboxService struct {
	Deps
}

func NewMailboxService(deps Deps) *MailboxService {
	return &MailboxService{Deps: deps.withDefaults()}
}

// Send overwrites the pending entry of this kind. The room is not looked up.
func (s *MailboxService) Send(ctx context.Context, kind domain.MailboxKind, in SendInput) error {
	if in.RoomID == "" {
		return domain.ErrInvalidRoomID
	}
	if len(in.Payload) == 0 || string(in.Payload) == "null" {
		return fmt.Errorf("%s payload is required: %w", kind, errs.ErrInvalidInput)
	}
	if in.Type == "" {
		in.Type = string(kind)
	}

	e := &domain.MailboxEntry{
		RoomID:     in.RoomID,
		Payload:    in.Payload,
		Type:       in.Type,
		FromUserID: in.FromUserID,
		Timestamp:  s.Clock.Now().UnixMilli(),
	}
	if err := s.Mailbox.Put(ctx, kind, e); err != nil {
		return fmt.Errorf("mailbox.Put: %w", err)
	}
	s.Metrics.Mailbox(string(kind), "sent")
	return nil
}

// Take hands out the pending entry once under sequential access.
func (s *MailboxService) Take(ctx context.Context, kind domain.MailboxKind, roomID string) (*domain.MailboxEntry, error) {
	if roomID == "" {
		return nil, domain.ErrInvalidRoomID
	}
	e, err := s.Mailbox.Take(ctx, kind, roomID)
	if errors.Is(err, errs.ErrNotFound) {
		s.Metrics.Mailbox(string(kind), "missed")
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("mailbox.Take: %w", err)
	}
	s.Metrics.Mailbox(string(kind), "delivered")
	return e, nil
}
