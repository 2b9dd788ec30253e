package query

import (
	"context"
	"fmt"
	"time"

	"campusport/internal/domain"
	redisx "campusport/internal/redis"
	redisrepo "campusport/internal/repository/redis"
)

// BookingStore is the read slice of the booking store.
type BookingStore interface {
	ListForDay(ctx context.Context, dateStr string) ([]domain.Booking, error)
	ListAll(ctx context.Context) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
}

type Config struct {
	DayGridTTL time.Duration
}

// Service serves one-shot booking reads. The per-day slot grid is cached
// briefly; mutations invalidate it through the workflows.
type Service struct {
	bookings BookingStore
	cache    *redisrepo.Cache
	cfg      Config
}

func New(bookings BookingStore, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.DayGridTTL <= 0 {
		cfg.DayGridTTL = 15 * time.Second
	}

	return &Service{
		bookings: bookings,
		cache:    cache,
		cfg:      cfg,
	}
}

// DayGrid returns the bookings of one calendar day, keyed for rendering the
// hall/slot availability grid.
func (s *Service) DayGrid(ctx context.Context, date time.Time) ([]domain.Booking, error) {
	const op = "service.query.DayGrid"

	dateStr := domain.DayKey(date)

	if s.cache == nil {
		bookings, err := s.bookings.ListForDay(ctx, dateStr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return bookings, nil
	}

	bookings, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyDayGrid(dateStr),
		s.cfg.DayGridTTL,
		func(ctx context.Context) ([]domain.Booking, error) {
			return s.bookings.ListForDay(ctx, dateStr)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

// AllBookings returns every booking, date descending.
func (s *Service) AllBookings(ctx context.Context) ([]domain.Booking, error) {
	const op = "service.query.AllBookings"

	bookings, err := s.bookings.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

// OwnBookings returns one requester's bookings, date ascending.
func (s *Service) OwnBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	const op = "service.query.OwnBookings"

	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}
