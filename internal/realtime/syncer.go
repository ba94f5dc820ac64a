// Package realtime keeps an admin's order list current by reloading it
// whenever an order or order item changes.
package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

// Loader fetches the full admin order list: headers, items and owners.
type Loader interface {
	ListForAdmin(ctx context.Context) ([]order.AdminView, error)
}

type Subscriber interface {
	Subscribe(ctx context.Context) (events.Stream, error)
}

// Snapshot is one full load of the admin order list.
type Snapshot struct {
	Orders   []order.AdminView `json:"orders"`
	Trigger  string            `json:"trigger"`
	LoadedAt time.Time         `json:"loadedAt"`
}

type Syncer struct {
	loader     Loader
	subscriber Subscriber
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewSyncer(loader Loader, subscriber Subscriber, m *metrics.Metrics, logger *zap.Logger) *Syncer {
	return &Syncer{loader: loader, subscriber: subscriber, metrics: m, logger: logger, now: time.Now}
}

// Watch subscribes to order changes and returns a feed whose first snapshot
// is the initial load. Every change after that triggers a full reload; no
// deltas are merged. The feed lives until Close or until ctx is done.
func (s *Syncer) Watch(ctx context.Context, adminID string) (*Feed, error) {
	ctx, cancel := context.WithCancel(ctx)

	stream, err := s.subscriber.Subscribe(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe order changes: %w", err)
	}

	initial, err := s.load(ctx, "initial")
	if err != nil {
		cancel()
		_ = stream.Close()
		return nil, err
	}

	f := &Feed{
		updates: make(chan Snapshot, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
		stream:  stream,
	}
	f.offer(initial)

	s.metrics.ViewerJoined()
	s.logger.Info("realtime order feed opened", zap.String("admin_id", adminID), zap.Int("orders", len(initial.Orders)))

	go s.run(ctx, adminID, f)
	return f, nil
}

func (s *Syncer) run(ctx context.Context, adminID string, f *Feed) {
	defer func() {
		s.logger.Info("realtime order feed closed", zap.String("admin_id", adminID))
		s.metrics.ViewerLeft()
		close(f.updates)
		close(f.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-f.stream.Changes():
			if !ok {
				s.logger.Warn("order change stream ended", zap.String("admin_id", adminID))
				return
			}
			snap, err := s.load(ctx, c.Table)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("reload orders failed", zap.String("admin_id", adminID), zap.String("table", c.Table), zap.Error(err))
				continue
			}
			f.offer(snap)
		}
	}
}

func (s *Syncer) load(ctx context.Context, trigger string) (Snapshot, error) {
	views, err := s.loader.ListForAdmin(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load admin orders: %w", err)
	}
	return Snapshot{Orders: views, Trigger: trigger, LoadedAt: s.now()}, nil
}

// Feed is a live view of the admin order list.
type Feed struct {
	updates   chan Snapshot
	cancel    context.CancelFunc
	done      chan struct{}
	stream    events.Stream
	closeOnce sync.Once
	closeErr  error
}

// Updates yields snapshots. A reader that falls behind only sees the latest
// one. The channel is closed when the feed ends.
func (f *Feed) Updates() <-chan Snapshot {
	return f.updates
}

// Done is closed once the feed has stopped.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

func (f *Feed) Close() error {
	f.closeOnce.Do(func() {
		f.cancel()
		<-f.done
		f.closeErr = f.stream.Close()
	})
	return f.closeErr
}

// offer replaces an unread snapshot. Only the feed goroutine sends, so the
// second send cannot block.
func (f *Feed) offer(s Snapshot) {
	select {
	case f.updates <- s:
		return
	default:
	}
	select {
	case <-f.updates:
	default:
	}
	f.updates <- s
}
