package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cwrk-planet/signaling-service/internal/domain"
	"github.com/cwrk-planet/signaling-service/internal/storage"
)

// RoomRepository stores room records under a sliding TTL: every Save re-arms it.
type RoomRepository struct {
	store storage.Store
	keys  storage.Keys
	ttl   time.Duration
}

func NewRoomRepository(store storage.Store, keys storage.Keys, ttl time.Duration) *RoomRepository {
	return &RoomRepository{store: store, keys: keys, ttl: ttl}
}

func (r *RoomRepository) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	var room domain.Room
	err := storage.GetJSON(ctx, r.store, r.keys.Room(roomID), &room)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", roomID, err)
	}
	return &room, nil
}

func (r *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	if err := storage.SetJSON(ctx, r.store, r.keys.Room(room.RoomID), room, r.ttl); err != nil {
		return fmt.Errorf("room %s: %w", room.RoomID, err)
	}
	return nil
}
