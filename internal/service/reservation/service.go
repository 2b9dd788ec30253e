package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campusport/internal/domain"
	"campusport/internal/repository"
	redisrepo "campusport/internal/repository/redis"
)

// Result messages shown to the requester. The conflict message is a normal
// business outcome, not an error.
const (
	MsgSlotTaken       = "Slot already taken"
	MsgConfirmed       = "Booking confirmed!"
	MsgPendingApproval = "Booking request sent! Waiting for approval."
)

// BookingStore is the slice of the booking store the workflow needs. Reserve
// must be atomic: the conflict check and the insert may not interleave with
// a concurrent reservation of the same slot.
type BookingStore interface {
	Reserve(ctx context.Context, b domain.Booking) error
}

// Events broadcasts booking mutations to live feeds.
type Events interface {
	PublishBookingChanged(ctx context.Context, dateStr, userID string) error
}

// Limiter bounds reservation attempts per caller.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, current int64, retryAfter time.Duration, err error)
}

type Request struct {
	HallID    string
	Slot      string
	Date      time.Time
	Requester domain.Actor
	Purpose   string
}

type Result struct {
	Accepted bool
	ID       uuid.UUID
	Status   domain.BookingStatus
	Message  string
}

type Service struct {
	bookings BookingStore
	cache    *redisrepo.Cache
	events   Events
	limiter  Limiter
	now      func() time.Time
}

// New builds the reservation workflow. cache, events and limiter may be nil.
func New(bookings BookingStore, cache *redisrepo.Cache, events Events, limiter Limiter) *Service {
	return &Service{
		bookings: bookings,
		cache:    cache,
		events:   events,
		limiter:  limiter,
		now:      time.Now,
	}
}

// Reserve books a (hall, slot, day) triple for the requester.
//
// The slot label must belong to the fixed calendar and the hall must exist
// in the catalog. An occupied slot is reported as an accepted=false Result,
// not an error. Elevated requesters get an approved booking immediately;
// everyone else starts pending.
//
// Returns:
//   - Result: outcome, assigned status and the user-facing message.
//   - error: reservation.ErrInvalidSlot for an unknown slot label.
//   - error: reservation.ErrHallNotFound for an unknown hall id.
//   - error: reservation.ErrRateLimited when the caller is throttled.
func (s *Service) Reserve(ctx context.Context, req Request, rlKey string) (Result, error) {
	const op = "service.reservation.Reserve"

	if !domain.ValidSlot(req.Slot) {
		return Result{}, fmt.Errorf("%s: %q: %w", op, req.Slot, ErrInvalidSlot)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return Result{}, fmt.Errorf("%s: retry in %s: %w", op, retry, ErrRateLimited)
		}
	}

	status := domain.BookingPending
	if req.Requester.Role.Elevated() {
		status = domain.BookingApproved
	}

	b := domain.Booking{
		ID:       uuid.New(),
		HallID:   req.HallID,
		Slot:     req.Slot,
		Date:     req.Date,
		DateStr:  domain.DayKey(req.Date),
		UserID:   req.Requester.UserID,
		UserName: req.Requester.Name,
		Purpose:  req.Purpose,
		Status:   status,
		Created:  s.now().UTC(),
	}

	if err := s.bookings.Reserve(ctx, b); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return Result{Accepted: false, Message: MsgSlotTaken}, nil
		}

		if errors.Is(err, repository.ErrHallNotFound) {
			return Result{}, fmt.Errorf("%s: %q: %w", op, req.HallID, ErrHallNotFound)
		}

		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateDay(ctx, b.DateStr)
	}
	if s.events != nil {
		_ = s.events.PublishBookingChanged(ctx, b.DateStr, b.UserID)
	}

	msg := MsgPendingApproval
	if status == domain.BookingApproved {
		msg = MsgConfirmed
	}

	return Result{
		Accepted: true,
		ID:       b.ID,
		Status:   status,
		Message:  msg,
	}, nil
}
