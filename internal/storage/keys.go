package storage

// Keys builds every key the service writes, under one prefix.
type Keys struct {
	prefix string
}

func NewKeys(prefix string) Keys {
	return Keys{prefix: prefix}
}

func (k Keys) Room(roomID string) string { return k.prefix + "room:" + roomID }

// Mailbox is the single slot for kind ("offer" or "answer") in a room.
func (k Keys) Mailbox(kind, roomID string) string { return k.prefix + kind + ":" + roomID }

func (k Keys) ActiveRooms() string { return k.prefix + "rooms:active" }

func (k Keys) PartyRooms(parentRoomID string) string {
	return k.prefix + "rooms:party:" + parentRoomID
}

func (k Keys) RateLimit(bucket, subject string) string {
	return k.prefix + "ratelimit:" + bucket + ":" + subject
}
