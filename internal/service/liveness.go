package service

import (
	"context"
	"errors"
	"slices"

	"github.com/cwrk-planet/signaling-service/internal/domain"
)

// prune loads every indexed room and splits the index into rooms that pass keep
// and ids worth keeping. Missing records and rejected rooms are dropped; ids
// appear at most once in the result.
func (d Deps) prune(ctx context.Context, ids []string, keep func(*domain.Room) bool) ([]*domain.Room, []string, error) {
	ids = domain.Dedupe(ids)
	rooms := make([]*domain.Room, 0, len(ids))
	kept := make([]string, 0, len(ids))

	for _, id := range ids {
		room, err := d.Rooms.Get(ctx, id)
		if errors.Is(err, domain.ErrRoomNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if !keep(room) {
			continue
		}
		rooms = append(rooms, room)
		kept = append(kept, id)
	}

	domain.SortByActivity(rooms)
	return rooms, kept, nil
}

func sameIDs(a, b []string) bool {
	return slices.Equal(a, b)
}
