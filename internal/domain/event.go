package domain

type EventType string

const (
	EventRoomCreated  EventType = "room.created"
	EventRoomJoined   EventType = "room.joined"
	EventRoomLeft     EventType = "room.left"
	EventRoomEmptied  EventType = "room.emptied"
	EventPartyCreated EventType = "party.created"
	EventPartyInvited EventType = "party.invited"
)

// RoomEvent is a lifecycle notification. It never carries keys or SDP.
type RoomEvent struct {
	Type             EventType `json:"type"`
	RoomID           string    `json:"roomId"`
	ParentRoomID     string    `json:"parentRoomId,omitempty"`
	UserID           string    `json:"userId,omitempty"`
	ParticipantCount int       `json:"participantCount"`
	InvitedUsers     []string  `json:"invitedUsers,omitempty"`
	At               int64     `json:"at"`
}
