package directory

import (
	"context"
	"fmt"
	"strings"

	"campusport/internal/domain"
)

// FacultyStore is the slice of the store the directory needs.
type FacultyStore interface {
	List(ctx context.Context) ([]domain.Faculty, error)
	Search(ctx context.Context, query string) ([]domain.Faculty, error)
}

// Service serves the faculty directory.
type Service struct {
	faculty FacultyStore
}

func New(faculty FacultyStore) *Service {
	return &Service{faculty: faculty}
}

// List returns all faculty members.
func (s *Service) List(ctx context.Context) ([]domain.Faculty, error) {
	const op = "service.directory.List"

	out, err := s.faculty.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Search matches faculty by name, email or department. A blank query lists
// everyone.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Faculty, error) {
	const op = "service.directory.Search"

	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}

	out, err := s.faculty.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
