package domain

import "encoding/json"

type MailboxKind string

const (
	KindOffer  MailboxKind = "offer"
	KindAnswer MailboxKind = "answer"
)

func (k MailboxKind) NotFound() error {
	if k == KindAnswer {
		return ErrAnswerNotFound
	}
	return ErrOfferNotFound
}

// MailboxEntry is a single pending offer or answer. Payload is relayed untouched.
type MailboxEntry struct {
	RoomID     string          `json:"roomId"`
	Payload    json.RawMessage `json:"payload"`
	Type       string          `json:"type"`
	FromUserID string          `json:"fromUserId,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}
