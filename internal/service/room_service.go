package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/signaling-service/internal/domain"

	"github.com/google/uuid"
)

type CreateRoomInput struct {
	BroadcasterID    string
	BroadcasterName  string
	CustomName       string
	EncryptedRoomKey string
	KeyHash          string
}

type RoomService struct {
	Deps
}

func NewRoomService(deps Deps) *RoomService {
	return &RoomService{Deps: deps.withDefaults()}
}

// newRoom stamps the fields shared by plain and party rooms.
func (d Deps) newRoom(in CreateRoomInput) *domain.Room {
	now := d.Clock.Now().UnixMilli()
	room := &domain.Room{
		RoomID:           uuid.NewString(),
		BroadcasterID:    in.BroadcasterID,
		BroadcasterName:  in.BroadcasterName,
		CustomName:       in.CustomName,
		CreatedAt:        now,
		ParticipantCount: 1,
		IsPublic:         true,
		LastActivity:     now,
		EncryptedRoomKey: in.EncryptedRoomKey,
		KeyHash:          in.KeyHash,
	}
	if in.EncryptedRoomKey != "" {
		room.KeyVersion = 1
	}
	return room
}

// CreateRoom stores a new public room and lists it in the active index.
func (s *RoomService) CreateRoom(ctx context.Context, in CreateRoomInput) (*domain.Room, error) {
	room := s.newRoom(in)
	if err := s.Rooms.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("rooms.Save: %w", err)
	}
	if err := s.Index.AddActive(ctx, room.RoomID); err != nil {
		return nil, fmt.Errorf("index.AddActive: %w", err)
	}

	s.publish(ctx, domain.RoomEvent{
		Type:             domain.EventRoomCreated,
		RoomID:           room.RoomID,
		UserID:           room.BroadcasterID,
		ParticipantCount: room.ParticipantCount,
	})
	return room, nil
}

// JoinRoom bumps the participant count. The index is left alone.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, userID string) (*domain.Room, error) {
	room, err := s.Rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	room.ParticipantCount++
	room.Touch(s.Clock.Now())
	if err := s.Rooms.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("rooms.Save: %w", err)
	}

	s.publish(ctx, domain.RoomEvent{
		Type:             domain.EventRoomJoined,
		RoomID:           room.RoomID,
		UserID:           userID,
		ParticipantCount: room.ParticipantCount,
	})
	return room, nil
}

// Heartbeat refreshes activity and TTL. A room that is already gone is not recreated.
func (s *RoomService) Heartbeat(ctx context.Context, roomID string) error {
	room, err := s.Rooms.Get(ctx, roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	room.Touch(s.Clock.Now())
	if err := s.Rooms.Save(ctx, room); err != nil {
		return fmt.Errorf("rooms.Save: %w", err)
	}
	return nil
}

// LeaveRoom decrements the participant count. An empty room leaves the active
// index and its record is left to expire; leaving it again is a no-op, so the
// TTL is not re-armed.
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, userID string) error {
	room, err := s.Rooms.Get(ctx, roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if room.ParticipantCount <= 0 {
		return nil
	}
	room.ParticipantCount--
	if err := s.Rooms.Save(ctx, room); err != nil {
		return fmt.Errorf("rooms.Save: %w", err)
	}

	s.publish(ctx, domain.RoomEvent{
		Type:             domain.EventRoomLeft,
		RoomID:           room.RoomID,
		UserID:           userID,
		ParticipantCount: room.ParticipantCount,
	})
	if room.ParticipantCount > 0 {
		return nil
	}

	if err := s.Index.RemoveActive(ctx, room.RoomID); err != nil {
		return fmt.Errorf("index.RemoveActive: %w", err)
	}
	s.publish(ctx, domain.RoomEvent{Type: domain.EventRoomEmptied, RoomID: room.RoomID})
	return nil
}

// ListActiveRooms returns public rooms active within StaleAfter, most recent
// first, and writes the pruned index back when it changed.
func (s *RoomService) ListActiveRooms(ctx context.Context) ([]*domain.Room, error) {
	ids, err := s.Index.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("index.Active: %w", err)
	}

	now := s.Clock.Now()
	rooms, kept, err := s.prune(ctx, ids, func(r *domain.Room) bool {
		return r.IsPublic && r.ActiveAt(now, s.StaleAfter)
	})
	if err != nil {
		return nil, fmt.Errorf("prune active: %w", err)
	}

	if !sameIDs(ids, kept) {
		s.Metrics.Pruned("active", len(ids)-len(kept))
		if err := s.Index.ReplaceActive(ctx, kept); err != nil {
			// listing still succeeds; the next read retries the cleanup
			slog.WarnContext(ctx, "service: write back active index failed", slog.Any("err", err))
		}
	}
	return rooms, nil
}
