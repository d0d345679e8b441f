package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwrk-planet/signaling-service/internal/domain"
	"github.com/cwrk-planet/signaling-service/internal/storage"
)

// MailboxRepository holds one pending entry per room and kind.
type MailboxRepository struct {
	store storage.Store
	keys  storage.Keys
	ttl   time.Duration
}

func NewMailboxRepository(store storage.Store, keys storage.Keys, ttl time.Duration) *MailboxRepository {
	return &MailboxRepository{store: store, keys: keys, ttl: ttl}
}

// Put overwrites whatever is pending. Last write wins.
func (r *MailboxRepository) Put(ctx context.Context, kind domain.MailboxKind, e *domain.MailboxEntry) error {
	key := r.keys.Mailbox(string(kind), e.RoomID)
	if err := storage.SetJSON(ctx, r.store, key, e, r.ttl); err != nil {
		return fmt.Errorf("mailbox %s: %w", key, err)
	}
	return nil
}

// Take reads then deletes the entry. The two steps are separate store calls:
// readers racing inside that gap can both receive the entry.
func (r *MailboxRepository) Take(ctx context.Context, kind domain.MailboxKind, roomID string) (*domain.MailboxEntry, error) {
	key := r.keys.Mailbox(string(kind), roomID)

	var e domain.MailboxEntry
	err := storage.GetJSON(ctx, r.store, key, &e)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, kind.NotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("mailbox %s: %w", key, err)
	}

	if err := r.store.Delete(ctx, key); err != nil {
		// entry expires on its own; still deliver it
		slog.WarnContext(ctx, "mailbox: delete after read failed", slog.String("key", key), slog.Any("err", err))
	}
	return &e, nil
}
