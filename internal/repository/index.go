package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/cwrk-planet/signaling-service/internal/storage"
)

// IndexRepository keeps the discovery lists: the global active-room index
// and one party index per parent room. Neither expires; readers prune them
// and an emptied party index is deleted.
// Every mutation is read-modify-write over a single key, so concurrent writers
// can lose each other's updates. Room records stay authoritative.
type IndexRepository struct {
	store storage.Store
	keys  storage.Keys
}

func NewIndexRepository(store storage.Store, keys storage.Keys) *IndexRepository {
	return &IndexRepository{store: store, keys: keys}
}

func (r *IndexRepository) Active(ctx context.Context) ([]string, error) {
	return r.read(ctx, r.keys.ActiveRooms())
}

func (r *IndexRepository) AddActive(ctx context.Context, roomID string) error {
	ids, err := r.Active(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(ids, roomID) {
		return nil
	}
	return r.write(ctx, r.keys.ActiveRooms(), append(ids, roomID))
}

func (r *IndexRepository) RemoveActive(ctx context.Context, roomID string) error {
	ids, err := r.Active(ctx)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == roomID })
	if len(kept) == len(ids) {
		return nil
	}
	return r.write(ctx, r.keys.ActiveRooms(), kept)
}

func (r *IndexRepository) ReplaceActive(ctx context.Context, ids []string) error {
	return r.write(ctx, r.keys.ActiveRooms(), ids)
}

func (r *IndexRepository) Party(ctx context.Context, parentRoomID string) ([]string, error) {
	return r.read(ctx, r.keys.PartyRooms(parentRoomID))
}

// AddParty appends without checking the parent exists.
func (r *IndexRepository) AddParty(ctx context.Context, parentRoomID, roomID string) error {
	ids, err := r.Party(ctx, parentRoomID)
	if err != nil {
		return err
	}
	if !slices.Contains(ids, roomID) {
		ids = append(ids, roomID)
	}
	return r.write(ctx, r.keys.PartyRooms(parentRoomID), ids)
}

// ReplaceParty rewrites the index; an empty list removes the key.
func (r *IndexRepository) ReplaceParty(ctx context.Context, parentRoomID string, ids []string) error {
	key := r.keys.PartyRooms(parentRoomID)
	if len(ids) == 0 {
		if err := r.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("index %s: %w", key, err)
		}
		return nil
	}
	return r.write(ctx, key, ids)
}

func (r *IndexRepository) read(ctx context.Context, key string) ([]string, error) {
	var ids []string
	err := storage.GetJSON(ctx, r.store, key, &ids)
	if errors.Is(err, storage.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", key, err)
	}
	return ids, nil
}

func (r *IndexRepository) write(ctx context.Context, key string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	if err := storage.SetJSON(ctx, r.store, key, ids, 0); err != nil {
		return fmt.Errorf("index %s: %w", key, err)
	}
	return nil
}
