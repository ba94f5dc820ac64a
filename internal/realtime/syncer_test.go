package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

type fakeStream struct {
	changes chan events.Change
	closed  atomic.Int32
}

func newFakeStream() *fakeStream {
	return &fakeStream{changes: make(chan events.Change, 4)}
}

func (s *fakeStream) Changes() <-chan events.Change { return s.changes }

func (s *fakeStream) Close() error {
	s.closed.Add(1)
	return nil
}

type fakeSubscriber struct {
	stream *fakeStream
	err    error
}

func (f *fakeSubscriber) Subscribe(ctx context.Context) (events.Stream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

type fakeLoader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeLoader) ListForAdmin(ctx context.Context) ([]order.AdminView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]order.AdminView, f.calls)
	for i := range out {
		out[i] = order.AdminView{Order: order.Order{ID: string(rune('a' + i))}}
	}
	return out, nil
}

func (f *fakeLoader) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func next(t *testing.T, feed *Feed) Snapshot {
	t.Helper()
	select {
	case s, ok := <-feed.Updates():
		require.True(t, ok, "feed closed")
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot")
		return Snapshot{}
	}
}

func TestWatch_InitialLoadThenReloadPerChange(t *testing.T) {
	stream := newFakeStream()
	loader := &fakeLoader{}
	syncer := NewSyncer(loader, &fakeSubscriber{stream: stream}, nil, zaptest.NewLogger(t))

	feed, err := syncer.Watch(context.Background(), "admin-1")
	require.NoError(t, err)
	defer feed.Close()

	first := next(t, feed)
	assert.Equal(t, "initial", first.Trigger)
	assert.Len(t, first.Orders, 1)

	stream.changes <- events.Change{Table: "orders", Event: events.EventOrderStatusChanged, OrderID: "a"}
	second := next(t, feed)
	assert.Equal(t, "orders", second.Trigger)
	assert.Len(t, second.Orders, 2)

	stream.changes <- events.Change{Table: "order_items"}
	third := next(t, feed)
	assert.Equal(t, "order_items", third.Trigger)
	assert.Len(t, third.Orders, 3)
}

func TestWatch_ReloadFailureKeepsFeedOpen(t *testing.T) {
	stream := newFakeStream()
	loader := &fakeLoader{}
	syncer := NewSyncer(loader, &fakeSubscriber{stream: stream}, nil, zaptest.NewLogger(t))

	feed, err := syncer.Watch(context.Background(), "admin-1")
	require.NoError(t, err)
	defer feed.Close()
	next(t, feed)

	loader.setErr(errors.New("db down"))
	stream.changes <- events.Change{Table: "orders"}

	require.Eventually(t, func() bool {
		loader.mu.Lock()
		defer loader.mu.Unlock()
		return loader.calls == 2
	}, time.Second, 10*time.Millisecond)

	loader.setErr(nil)
	stream.changes <- events.Change{Table: "orders"}
	snap := next(t, feed)
	assert.Len(t, snap.Orders, 3)
}

func TestWatch_InitialLoadFailure(t *testing.T) {
	stream := newFakeStream()
	loader := &fakeLoader{err: errors.New("db down")}
	syncer := NewSyncer(loader, &fakeSubscriber{stream: stream}, nil, zaptest.NewLogger(t))

	_, err := syncer.Watch(context.Background(), "admin-1")
	require.Error(t, err)
	assert.Equal(t, int32(1), stream.closed.Load())
}

func TestWatch_SubscribeFailure(t *testing.T) {
	syncer := NewSyncer(&fakeLoader{}, &fakeSubscriber{err: errors.New("broker down")}, nil, zaptest.NewLogger(t))

	_, err := syncer.Watch(context.Background(), "admin-1")
	assert.ErrorContains(t, err, "broker down")
}

func TestFeed_CloseTearsDownOnce(t *testing.T) {
	stream := newFakeStream()
	syncer := NewSyncer(&fakeLoader{}, &fakeSubscriber{stream: stream}, nil, zaptest.NewLogger(t))

	feed, err := syncer.Watch(context.Background(), "admin-1")
	require.NoError(t, err)

	require.NoError(t, feed.Close())
	require.NoError(t, feed.Close())
	assert.Equal(t, int32(1), stream.closed.Load())

	<-feed.Done()
	for range feed.Updates() {
	}
}

func TestFeed_EndsWhenStreamEnds(t *testing.T) {
	stream := newFakeStream()
	syncer := NewSyncer(&fakeLoader{}, &fakeSubscriber{stream: stream}, nil, zaptest.NewLogger(t))

	feed, err := syncer.Watch(context.Background(), "admin-1")
	require.NoError(t, err)
	defer feed.Close()

	close(stream.changes)

	select {
	case <-feed.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not stop")
	}
}

func TestFeed_OfferKeepsLatest(t *testing.T) {
	f := &Feed{updates: make(chan Snapshot, 1)}
	f.offer(Snapshot{Trigger: "one"})
	f.offer(Snapshot{Trigger: "two"})

	assert.Equal(t, "two", (<-f.Updates()).Trigger)
}
