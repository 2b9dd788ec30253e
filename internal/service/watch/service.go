package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"campusport/internal/domain"
	redisx "campusport/internal/redis"
)

// BookingStore is the read slice feeding live snapshots.
type BookingStore interface {
	ListAll(ctx context.Context) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
}

// Events delivers change notifications; in production this is the redis
// bookings-changed channel.
type Events interface {
	Subscribe(ctx context.Context, handler func(ctx context.Context, change redisx.BookingChange)) error
}

type Config struct {
	RefreshTimeout time.Duration
}

// Service fans booking snapshots out to live subscribers. Every mutation
// notification triggers a re-query, and each affected subscriber receives
// the full current result set, never deltas. A subscription holds resources
// until cancelled.
type Service struct {
	bookings BookingStore
	events   Events
	cfg      Config

	mu     sync.Mutex
	nextID int64
	subs   map[int64]*subscriber
}

type subscriber struct {
	id     int64
	all    bool
	userID string
	ch     chan []domain.Booking
}

// Subscription is a live feed registration. Snapshots arrive on C; Cancel
// releases the registration and closes C.
type Subscription struct {
	C      <-chan []domain.Booking
	cancel func()
}

func (s *Subscription) Cancel() {
	s.cancel()
}

func New(bookings BookingStore, events Events, cfg Config) *Service {
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 5 * time.Second
	}

	return &Service{
		bookings: bookings,
		events:   events,
		cfg:      cfg,
		subs:     make(map[int64]*subscriber),
	}
}

// Run pumps change notifications into snapshot refreshes until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	const op = "service.watch.Run"

	if s.events == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	err := s.events.Subscribe(ctx, func(ctx context.Context, change redisx.BookingChange) {
		s.Refresh(ctx, change.UserID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SubscribeAll registers a feed of every booking, date descending. The
// current snapshot is delivered immediately.
func (s *Service) SubscribeAll(ctx context.Context) (*Subscription, error) {
	const op = "service.watch.SubscribeAll"

	initial, err := s.bookings.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.register(&subscriber{all: true}, initial), nil
}

// SubscribeOwn registers a feed of one requester's bookings, date
// ascending. The current snapshot is delivered immediately.
func (s *Service) SubscribeOwn(ctx context.Context, userID string) (*Subscription, error) {
	const op = "service.watch.SubscribeOwn"

	initial, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.register(&subscriber{userID: userID}, initial), nil
}

func (s *Service) register(sub *subscriber, initial []domain.Booking) *Subscription {
	sub.ch = make(chan []domain.Booking, 1)
	sub.ch <- initial

	s.mu.Lock()
	s.nextID++
	sub.id = s.nextID
	s.subs[sub.id] = sub
	s.mu.Unlock()

	return &Subscription{
		C: sub.ch,
		cancel: func() {
			s.mu.Lock()
			if _, ok := s.subs[sub.id]; ok {
				delete(s.subs, sub.id)
				close(sub.ch)
			}
			s.mu.Unlock()
		},
	}
}

// Refresh re-queries the store and pushes fresh snapshots to every feed of
// all bookings, plus the feeds owned by changedUserID. Slow consumers are
// coalesced to the latest snapshot rather than blocking the loop.
func (s *Service) Refresh(ctx context.Context, changedUserID string) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RefreshTimeout)
	defer cancel()

	s.mu.Lock()
	targets := make([]*subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.all || sub.userID == changedUserID {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	var allSnap []domain.Booking
	var allLoaded bool
	ownSnaps := make(map[string][]domain.Booking)

	for _, sub := range targets {
		var snap []domain.Booking
		var err error

		if sub.all {
			if !allLoaded {
				allSnap, err = s.bookings.ListAll(ctx)
				if err != nil {
					continue
				}
				allLoaded = true
			}
			snap = allSnap
		} else {
			cached, ok := ownSnaps[sub.userID]
			if !ok {
				cached, err = s.bookings.ListByUser(ctx, sub.userID)
				if err != nil {
					continue
				}
				ownSnaps[sub.userID] = cached
			}
			snap = cached
		}

		s.push(sub, snap)
	}
}

func (s *Service) push(sub *subscriber, snap []domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.id]; !ok {
		return
	}

	// Drop the stale snapshot if the consumer has not read it yet.
	select {
	case <-sub.ch:
	default:
	}

	select {
	case sub.ch <- snap:
	default:
	}
}
