package domain

import (
	"slices"
	"time"
)

type Room struct {
	RoomID           string   `json:"roomId"`
	BroadcasterID    string   `json:"broadcasterId"`
	BroadcasterName  string   `json:"broadcasterName"`
	CustomName       string   `json:"customName,omitempty"`
	CreatedAt        int64    `json:"createdAt"`
	ParticipantCount int      `json:"participantCount"`
	IsPublic         bool     `json:"isPublic"`
	LastActivity     int64    `json:"lastActivity"`
	EncryptedRoomKey string   `json:"encryptedRoomKey,omitempty"`
	KeyHash          string   `json:"keyHash,omitempty"`
	KeyVersion       int      `json:"keyVersion,omitempty"`
	IsPartyRoom      bool     `json:"isPartyRoom"`
	ParentRoomID     string   `json:"parentRoomId,omitempty"`
	CreatedBy        string   `json:"createdBy,omitempty"`
	InvitedUsers     []string `json:"invitedUsers,omitempty"`
}

// Touch advances LastActivity; it never moves backwards.
func (r *Room) Touch(now time.Time) {
	if ms := now.UnixMilli(); ms > r.LastActivity {
		r.LastActivity = ms
	}
}

// ActiveAt reports whether the room saw activity less than window ago.
func (r *Room) ActiveAt(now time.Time, window time.Duration) bool {
	return now.UnixMilli()-r.LastActivity < window.Milliseconds()
}

func (r *Room) CanInvite(userID string) bool {
	return userID != "" && (userID == r.CreatedBy || userID == r.BroadcasterID)
}

// Invite merges ids into InvitedUsers and reports whether anything was added.
func (r *Room) Invite(ids ...string) bool {
	merged := Dedupe(append(slices.Clone(r.InvitedUsers), ids...))
	changed := len(merged) != len(r.InvitedUsers)
	r.InvitedUsers = merged
	return changed
}

// Dedupe drops empty and repeated ids, keeping first-seen order.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SortByActivity orders rooms most recently active first.
func SortByActivity(rooms []*Room) {
	slices.SortStableFunc(rooms, func(a, b *Room) int {
		switch {
		case a.LastActivity > b.LastActivity:
			return -1
		case a.LastActivity < b.LastActivity:
			return 1
		default:
			return 0
		}
	})
}
