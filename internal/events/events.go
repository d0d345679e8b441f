// Package events publishes room lifecycle notifications.
package events

import (
	"context"

	"github.com/cwrk-planet/signaling-service/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, ev domain.RoomEvent) error
	Close() error
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, domain.RoomEvent) error { return nil }
func (Noop) Close() error                                    { return nil }
