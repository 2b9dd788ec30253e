package catalog

import (
	"context"
	"fmt"
	"time"

	"campusport/internal/domain"
	redisx "campusport/internal/redis"
	redisrepo "campusport/internal/repository/redis"
)

// HallStore is the slice of the booking store the catalog needs.
type HallStore interface {
	List(ctx context.Context) ([]domain.Hall, error)
	Count(ctx context.Context) (int64, error)
	CreateBatch(ctx context.Context, halls []domain.Hall) error
}

type Config struct {
	HallListTTL time.Duration
}

type Service struct {
	halls HallStore
	cache *redisrepo.Cache
	cfg   Config
}

// New builds the catalog service. cache may be nil, in which case every
// listing goes to the store.
func New(halls HallStore, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.HallListTTL <= 0 {
		cfg.HallListTTL = 5 * time.Minute
	}

	return &Service{
		halls: halls,
		cache: cache,
		cfg:   cfg,
	}
}

// ListHalls returns all halls in natural id order. On first call against an
// empty store it seeds the default campus venues before listing. A read
// failure is returned as catalog.ErrUnavailable; an empty result only ever
// means the catalog is truly empty.
func (s *Service) ListHalls(ctx context.Context) ([]domain.Hall, error) {
	const op = "service.catalog.ListHalls"

	load := func(ctx context.Context) ([]domain.Hall, error) {
		n, err := s.halls.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		if n == 0 {
			if err := s.halls.CreateBatch(ctx, DefaultHalls()); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
		}

		halls, err := s.halls.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		return halls, nil
	}

	if s.cache == nil {
		halls, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return halls, nil
	}

	halls, err := redisrepo.GetOrSetJSON(ctx, s.cache, redisx.KeyHallList(), s.cfg.HallListTTL, load)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return halls, nil
}

// TimeSlots returns the fixed daily slot labels.
func (s *Service) TimeSlots() []string {
	return domain.TimeSlots()
}

// DefaultHalls is the venue set seeded into an empty catalog: nineteen
// numbered lecture theatres and the open air theatre.
func DefaultHalls() []domain.Hall {
	halls := make([]domain.Hall, 0, 20)
	for i := 1; i <= 19; i++ {
		halls = append(halls, domain.Hall{
			ID:       fmt.Sprintf("LT-%d", i),
			Name:     fmt.Sprintf("Lecture Theatre %d", i),
			Capacity: 150 + (i%3)*50,
			Type:     "Lecture Hall",
		})
	}

	halls = append(halls, domain.Hall{
		ID:       "OAT",
		Name:     "Open Air Theatre",
		Capacity: 800,
		Type:     "Open Air",
	})

	return halls
}
