package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/notify"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store/storetest"
	"github.com/stretchr/testify/require"
)

func recvFrame(t *testing.T, s *notify.Stream) envelope {
	t.Helper()
	select {
	case b := <-s.C():
		var env envelope
		require.NoError(t, json.Unmarshal(b, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return envelope{}
	}
}

func TestDispatchStoresAndForwards(t *testing.T) {
	st := storetest.New()
	n := &Notifier{Store: st, Hub: notify.NewHub()}
	ctx := context.Background()

	stream := n.Subscribe("alice")
	defer n.Unsubscribe("alice", stream)

	event, err := n.Dispatch(ctx, "alice", "New favourite", "bob favourited your song")
	require.NoError(t, err)
	require.NotEmpty(t, event.ID)
	require.False(t, event.Read)

	env := recvFrame(t, stream)
	require.Equal(t, FrameNotification, env.Type)

	payload, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var got domain.Notification
	require.NoError(t, json.Unmarshal(payload, &got))
	require.Equal(t, event.ID, got.ID)
	require.Equal(t, "New favourite", got.Title)

	// Stored regardless of live delivery.
	list, err := n.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, event.ID, list[0].ID)
}

func TestDispatchWithoutStreamStillStores(t *testing.T) {
	st := storetest.New()
	n := &Notifier{Store: st, Hub: notify.NewHub()}
	ctx := context.Background()

	_, err := n.Dispatch(ctx, "offline-user", "hello", "body")
	require.NoError(t, err)

	list, err := n.List(ctx, "offline-user")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestListNewestFirst(t *testing.T) {
	st := storetest.New()
	n := &Notifier{Store: st, Hub: notify.NewHub()}
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := n.Dispatch(ctx, "alice", title, "")
		require.NoError(t, err)
	}

	list, err := n.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "third", list[0].Title)
	require.Equal(t, "first", list[2].Title)
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	st := storetest.New()
	n := &Notifier{Store: st, Hub: notify.NewHub()}
	ctx := context.Background()

	a, err := n.Dispatch(ctx, "alice", "a", "")
	require.NoError(t, err)
	_, err = n.Dispatch(ctx, "bob", "b", "")
	require.NoError(t, err)

	changed, err := n.MarkRead(ctx, "alice", a.Time)
	require.NoError(t, err)
	require.EqualValues(t, 1, changed)

	bobs, err := n.List(ctx, "bob")
	require.NoError(t, err)
	require.False(t, bobs[0].Read, "another recipient's events must stay untouched")
}

func TestPushStatisticsEphemeral(t *testing.T) {
	st := storetest.New()
	n := &Notifier{Store: st, Hub: notify.NewHub()}
	ctx := context.Background()

	stream := n.Subscribe("alice")
	defer n.Unsubscribe("alice", stream)

	n.PushStatistics(ctx, "alice", domain.Statistics{TotalSongs: 7})

	env := recvFrame(t, stream)
	require.Equal(t, FrameStatistics, env.Type)

	// Snapshots never land in the stored list.
	list, err := n.List(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, list)
}
