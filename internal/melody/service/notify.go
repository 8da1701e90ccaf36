package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/notify"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/idx"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/slogx"
)

// Frame types pushed over a live stream. Notification frames are also
// persisted; statistics frames are ephemeral snapshots.
const (
	FrameNotification = "notification"
	FrameStatistics   = "statistics"
)

// envelope is the JSON shape of every live-stream frame.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Notifier persists notifications and fans them out to the recipient's
// open live streams. Delivery is store-and-maybe-forward: the record is
// written first, and a recipient with no open stream simply picks it up
// from the stored list later.
type Notifier struct {
	Store store.Store
	Hub   *notify.Hub
}

// Dispatch stores a notification for the recipient and forwards it to
// any live streams the recipient holds open.
func (n *Notifier) Dispatch(ctx context.Context, to, title, body string) (domain.Notification, error) {
	event := domain.Notification{
		ID:    idx.New().String(),
		To:    to,
		Title: title,
		Body:  body,
		Time:  time.Now().UnixMilli(),
	}

	if err := n.Store.Notifications().CreateNotification(ctx, event); err != nil {
		return domain.Notification{}, err
	}

	n.publish(ctx, to, envelope{Type: FrameNotification, Data: event})

	return event, nil
}

// PushStatistics forwards a statistics snapshot to the recipient's open
// streams. Snapshots are not stored; a recipient with no stream open
// misses nothing they cannot recompute.
func (n *Notifier) PushStatistics(ctx context.Context, to string, stats domain.Statistics) {
	if !n.Hub.Online(to) {
		return
	}
	n.publish(ctx, to, envelope{Type: FrameStatistics, Data: stats})
}

// List returns the recipient's stored notifications, newest first.
func (n *Notifier) List(ctx context.Context, to string) ([]domain.Notification, error) {
	return n.Store.Notifications().ListByRecipient(ctx, to)
}

// MarkRead flags the recipient's notifications with time <= cutoff as
// read and reports how many records changed.
func (n *Notifier) MarkRead(ctx context.Context, to string, cutoff int64) (int64, error) {
	return n.Store.Notifications().MarkRead(ctx, to, cutoff)
}

// Subscribe opens a live stream for the recipient.
func (n *Notifier) Subscribe(to string) *notify.Stream {
	return n.Hub.Subscribe(to)
}

// Unsubscribe closes out a live stream opened with Subscribe.
func (n *Notifier) Unsubscribe(to string, s *notify.Stream) {
	n.Hub.Unsubscribe(to, s)
}

func (n *Notifier) publish(ctx context.Context, to string, env envelope) {
	frame, err := json.Marshal(env)
	if err != nil {
		slogx.FromContext(ctx).Error("marshal live frame",
			slog.Any("error", err),
			slog.String("type", env.Type),
		)
		return
	}
	n.Hub.Publish(to, frame)
}
