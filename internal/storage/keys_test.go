package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	k := NewKeys("signaling:")
	assert.Equal(t, "signaling:room:r1", k.Room("r1"))
	assert.Equal(t, "signaling:offer:r1", k.Mailbox("offer", "r1"))
	assert.Equal(t, "signaling:answer:r1", k.Mailbox("answer", "r1"))
	assert.Equal(t, "signaling:rooms:active", k.ActiveRooms())
	assert.Equal(t, "signaling:rooms:party:p1", k.PartyRooms("p1"))
	assert.Equal(t, "signaling:ratelimit:create:u1", k.RateLimit("create", "u1"))
}
