package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cwrk-planet/signaling-service/internal/domain"
	"github.com/cwrk-planet/signaling-service/internal/events"
	"github.com/cwrk-planet/signaling-service/internal/metrics"
	"github.com/cwrk-planet/signaling-service/internal/repository"

	"github.com/benbjohnson/clock"
)

// Deps is what every service shares.
type Deps struct {
	Rooms   *repository.RoomRepository
	Index   *repository.IndexRepository
	Mailbox *repository.MailboxRepository

	Events  events.Publisher
	Metrics *metrics.Metrics
	Clock   clock.Clock

	// StaleAfter hides rooms from discovery once they go quiet this long.
	StaleAfter time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.StaleAfter <= 0 {
		d.StaleAfter = 5 * time.Minute
	}
	return d
}

// publish is best-effort: a broker outage never fails the request.
func (d Deps) publish(ctx context.Context, ev domain.RoomEvent) {
	ev.At = d.Clock.Now().UnixMilli()
	err := d.Events.Publish(ctx, ev)
	d.Metrics.Event(string(ev.Type), err)
	if err != nil {
		slog.WarnContext(ctx, "service: publish event failed",
			slog.String("type", string(ev.Type)),
			slog.String("room_id", ev.RoomID),
			slog.Any("err", err),
		)
	}
}
