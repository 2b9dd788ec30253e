package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusport/internal/domain"
	"campusport/internal/repository"
)

// UserStore is the slice of the store identity needs.
type UserStore interface {
	Upsert(ctx context.Context, u domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
}

// Service maintains the users collection: a merge-upsert on each login and
// lookups for callers that need a fresh display name instead of the
// denormalized copy on bookings.
type Service struct {
	users UserStore
	now   func() time.Time
}

func New(users UserStore) *Service {
	return &Service{
		users: users,
		now:   time.Now,
	}
}

// SaveUser records the user at login, stamping the last-login time. Fields
// left empty keep their stored values; an unknown role defaults to student.
func (s *Service) SaveUser(ctx context.Context, u domain.User) error {
	const op = "service.identity.SaveUser"

	if u.ID == "" {
		return fmt.Errorf("%s: missing user id", op)
	}

	if u.Role != domain.RoleStudent && u.Role != domain.RoleFaculty {
		u.Role = domain.RoleStudent
	}

	u.LastLogin = s.now().UTC()

	if err := s.users.Upsert(ctx, u); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// GetUser retrieves a user by id.
//
// Returns:
//   - *domain.User: the user when found.
//   - error: identity.ErrUserNotFound when no such user exists.
func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	const op = "service.identity.GetUser"

	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}
