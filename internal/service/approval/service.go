package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"campusport/internal/domain"
	"campusport/internal/repository"
	redisrepo "campusport/internal/repository/redis"
)

// BookingStore is the slice of the booking store the workflow needs.
type BookingStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error
	UpdatePurpose(ctx context.Context, id uuid.UUID, purpose string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserStore resolves a booking owner's stored role for moderation checks.
type UserStore interface {
	Role(ctx context.Context, id string) (domain.Role, error)
}

// Events broadcasts booking mutations to live feeds.
type Events interface {
	PublishBookingChanged(ctx context.Context, dateStr, userID string) error
}

// TxStore runs a function over transaction-bound stores, so a moderation
// read and the write it guards commit or roll back together.
type TxStore interface {
	InTx(ctx context.Context, fn func(bookings BookingStore, users UserStore) error) error
}

// Service mutates existing bookings. Authorization is enforced here, not at
// the presentation layer: only elevated actors transition status, only
// owners edit purpose, and deletes are limited to the owner or an elevated
// actor moderating a non-elevated owner's booking.
type Service struct {
	bookings BookingStore
	users    UserStore
	tx       TxStore
	cache    *redisrepo.Cache
	events   Events
}

// New builds the approval workflow. tx, cache and events may be nil; without
// tx the moderated delete falls back to unguarded store calls.
func New(bookings BookingStore, users UserStore, tx TxStore, cache *redisrepo.Cache, events Events) *Service {
	return &Service{
		bookings: bookings,
		users:    users,
		tx:       tx,
		cache:    cache,
		events:   events,
	}
}

// SetStatus transitions a booking to approved or rejected.
//
// Returns:
//   - error: approval.ErrForbidden when the actor is not elevated.
//   - error: approval.ErrInvalidStatus for any other target status.
//   - error: approval.ErrBookingNotFound when no such booking exists.
//   - error: approval.ErrSlotConflict when approving would revive a booking
//     whose slot another live booking occupies by now.
func (s *Service) SetStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.BookingStatus) error {
	const op = "service.approval.SetStatus"

	if !actor.Role.Elevated() {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if status != domain.BookingApproved && status != domain.BookingRejected {
		return fmt.Errorf("%s: %q: %w", op, status, ErrInvalidStatus)
	}

	b, err := s.bookings.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, s.translate(err))
	}

	if err := s.bookings.SetStatus(ctx, id, status); err != nil {
		return fmt.Errorf("%s: %w", op, s.translate(err))
	}

	s.changed(ctx, b)
	return nil
}

// UpdatePurpose edits the free-text purpose of the actor's own booking.
//
// Returns:
//   - error: approval.ErrBookingNotFound when no such booking exists.
//   - error: approval.ErrForbidden when the actor does not own the booking.
func (s *Service) UpdatePurpose(ctx context.Context, actor domain.Actor, id uuid.UUID, purpose string) error {
	const op = "service.approval.UpdatePurpose"

	b, err := s.bookings.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, s.translate(err))
	}

	if b.UserID != actor.UserID {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if err := s.bookings.UpdatePurpose(ctx, id, purpose); err != nil {
		return fmt.Errorf("%s: %w", op, s.translate(err))
	}

	s.changed(ctx, b)
	return nil
}

// Delete removes a booking. Owners may always delete their own; an elevated
// actor may additionally delete a non-elevated owner's booking, but never
// another elevated owner's. The ownership read, the role check and the
// delete run in one transaction when a TxStore is wired.
//
// Returns:
//   - error: approval.ErrBookingNotFound when no such booking exists.
//   - error: approval.ErrForbidden when the policy above refuses the actor.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	const op = "service.approval.Delete"

	var deleted *domain.Booking

	run := func(bookings BookingStore, users UserStore) error {
		b, err := bookings.Get(ctx, id)
		if err != nil {
			return s.translate(err)
		}

		if b.UserID != actor.UserID {
			if !actor.Role.Elevated() {
				return ErrForbidden
			}

			ownerRole, err := users.Role(ctx, b.UserID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			// An owner without a user record is treated as non-elevated.
			if ownerRole.Elevated() {
				return ErrForbidden
			}
		}

		if err := bookings.Delete(ctx, id); err != nil {
			return s.translate(err)
		}

		deleted = b
		return nil
	}

	var err error
	if s.tx != nil {
		err = s.tx.InTx(ctx, run)
	} else {
		err = run(s.bookings, s.users)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.changed(ctx, deleted)
	return nil
}

func (s *Service) changed(ctx context.Context, b *domain.Booking) {
	if s.cache != nil {
		_ = s.cache.InvalidateDay(ctx, b.DateStr)
	}
	if s.events != nil {
		_ = s.events.PublishBookingChanged(ctx, b.DateStr, b.UserID)
	}
}

func (s *Service) translate(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBookingNotFound
	}
	// Re-approving a rejected booking whose slot was re-booked trips the
	// live-slot unique index; that is a business conflict, not a failure.
	if errors.Is(err, repository.ErrConflict) {
		return ErrSlotConflict
	}
	return err
}
