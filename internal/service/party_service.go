package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/signaling-service/internal/domain"
)

type CreatePartyRoomInput struct {
	CreateRoomInput
	ParentRoomID string
	InvitedUsers []string
}

type PartyService struct {
	Deps
}

func NewPartyService(deps Deps) *PartyService {
	return &PartyService{Deps: deps.withDefaults()}
}

// CreatePartyRoom creates a room like CreateRoom and, given a parent, lists it
// under that parent. The parent is not required to exist.
func (s *PartyService) CreatePartyRoom(ctx context.Context, in CreatePartyRoomInput) (*domain.Room, error) {
	room := s.newRoom(in.CreateRoomInput)
	room.IsPartyRoom = true
	room.ParentRoomID = in.ParentRoomID
	room.CreatedBy = in.BroadcasterID
	room.InvitedUsers = domain.Dedupe(in.InvitedUsers)

	if err := s.Rooms.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("rooms.Save: %w", err)
	}
	if err := s.Index.AddActive(ctx, room.RoomID); err != nil {
		return nil, fmt.Errorf("index.AddActive: %w", err)
	}
	if room.ParentRoomID != "" {
		if err := s.Index.AddParty(ctx, room.ParentRoomID, room.RoomID); err != nil {
			return nil, fmt.Errorf("index.AddParty: %w", err)
		}
	}

	s.publish(ctx, domain.RoomEvent{
		Type:             domain.EventPartyCreated,
		RoomID:           room.RoomID,
		ParentRoomID:     room.ParentRoomID,
		UserID:           room.CreatedBy,
		ParticipantCount: room.ParticipantCount,
		InvitedUsers:     room.InvitedUsers,
	})
	return room, nil
}

// GetPartyRooms lists live party rooms under parentRoomID, most recent first.
func (s *PartyService) GetPartyRooms(ctx context.Context, parentRoomID string) ([]*domain.Room, error) {
	ids, err := s.Index.Party(ctx, parentRoomID)
	if err != nil {
		return nil, fmt.Errorf("index.Party: %w", err)
	}

	now := s.Clock.Now()
	rooms, kept, err := s.prune(ctx, ids, func(r *domain.Room) bool {
		return r.IsPartyRoom && r.ActiveAt(now, s.StaleAfter)
	})
	if err != nil {
		return nil, fmt.Errorf("prune party: %w", err)
	}

	if !sameIDs(ids, kept) {
		s.Metrics.Pruned("party", len(ids)-len(kept))
		if err := s.Index.ReplaceParty(ctx, parentRoomID, kept); err != nil {
			slog.WarnContext(ctx, "service: write back party index failed",
				slog.String("parent_room_id", parentRoomID), slog.Any("err", err))
		}
	}
	return rooms, nil
}

// Invite adds userIDs to the room's invite list. Only the creator or the
// broadcaster may invite; every check runs before anything is written.
func (s *PartyService) Invite(ctx context.Context, roomID, callerID string, userIDs []string) ([]string, error) {
	userIDs = domain.Dedupe(userIDs)
	if len(userIDs) == 0 {
		return nil, domain.ErrEmptyInvite
	}

	room, err := s.Rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsPartyRoom {
		return nil, domain.ErrNotPartyRoom
	}
	if !room.CanInvite(callerID) {
		return nil, domain.ErrNotRoomOwner
	}

	room.Invite(userIDs...)
	room.Touch(s.Clock.Now())
	if err := s.Rooms.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("rooms.Save: %w", err)
	}

	s.publish(ctx, domain.RoomEvent{
		Type:             domain.EventPartyInvited,
		RoomID:           room.RoomID,
		ParentRoomID:     room.ParentRoomID,
		UserID:           callerID,
		ParticipantCount: room.ParticipantCount,
		InvitedUsers:     userIDs,
	})
	return room.InvitedUsers, nil
}
