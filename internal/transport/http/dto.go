package http

import (
	"encoding/json"

	"github.com/cwrk-planet/signaling-service/internal/domain"
)

type CreateRoomRequest struct {
	BroadcasterID    string `json:"broadcasterId" validate:"omitempty,max=128"`
	BroadcasterName  string `json:"broadcasterName" validate:"required,max=128"`
	CustomName       string `json:"customName" validate:"max=256"`
	EncryptedRoomKey string `json:"encryptedRoomKey" validate:"max=8192"`
	KeyHash          string `json:"keyHash" validate:"max=512"`
}

type CreatePartyRoomRequest struct {
	CreateRoomRequest
	ParentRoomID string   `json:"parentRoomId" validate:"omitempty,max=128"`
	InvitedUsers []string `json:"invitedUsers" validate:"max=256,dive,required,max=128"`
}

type RoomIDRequest struct {
	RoomID string `json:"roomId" validate:"required,max=128"`
}

type OfferRequest struct {
	RoomID     string          `json:"roomId" validate:"required,max=128"`
	Offer      json.RawMessage `json:"offer"`
	Type       string          `json:"type" validate:"max=32"`
	FromUserID string          `json:"fromUserId" validate:"max=128"`
}

type AnswerRequest struct {
	RoomID     string          `json:"roomId" validate:"required,max=128"`
	Answer     json.RawMessage `json:"answer"`
	Type       string          `json:"type" validate:"max=32"`
	FromUserID string          `json:"fromUserId" validate:"max=128"`
}

type InviteRequest struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,max=256,dive,required,max=128"`
}

func mailboxBody(kind domain.MailboxKind, e *domain.MailboxEntry) map[string]any {
	body := map[string]any{
		string(kind): e.Payload,
		"roomId":     e.RoomID,
		"type":       e.Type,
		"timestamp":  e.Timestamp,
	}
	if e.FromUserID != "" {
		body["fromUserId"] = e.FromUserID
	}
	return body
}
