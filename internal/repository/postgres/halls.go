package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campusport/internal/domain"
)

type HallRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *HallRepo) With(db DB) *HallRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *HallRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// List returns all halls in natural id order ("LT-2" before "LT-10").
//
// Returns:
//   - []domain.Hall: every hall; empty only when the table is empty.
//   - error: the underlying store error when the read fails.
func (r *HallRepo) List(ctx context.Context) ([]domain.Hall, error) {
	const op = "postgres.HallRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx, `SELECT id, name, capacity, type FROM halls`)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Hall
	for rows.Next() {
		var h domain.Hall
		if err := rows.Scan(&h.ID, &h.Name, &h.Capacity, &h.Type); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	// Numeric-aware ordering cannot be expressed as a plain ORDER BY on
	// the text id column.
	sort.Slice(out, func(i, j int) bool {
		return domain.CompareNatural(out[i].ID, out[j].ID) < 0
	})

	return out, nil
}

// Count reports how many halls exist, used for the seed-on-empty check.
func (r *HallRepo) Count(ctx context.Context) (int64, error) {
	const op = "postgres.HallRepo.Count"

	db := r.handle()

	var n int64
	if err := db.QueryRow(ctx, `SELECT count(*) FROM halls`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return n, nil
}

// CreateBatch inserts the given halls, skipping ids that already exist so
// two processes seeding at once do not fail.
func (r *HallRepo) CreateBatch(ctx context.Context, halls []domain.Hall) error {
	const op = "postgres.HallRepo.CreateBatch"

	db := r.handle()

	batch := &pgx.Batch{}
	for _, h := range halls {
		batch.Queue(
			`INSERT INTO halls (id, name, capacity, type)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO NOTHING`,
			h.ID, h.Name, h.Capacity, h.Type,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Exists reports whether a hall with the given id is in the catalog.
func (r *HallRepo) Exists(ctx context.Context, id string) (bool, error) {
	const op = "postgres.HallRepo.Exists"

	db := r.handle()

	var ok bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM halls WHERE id = $1)`,
		id,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return ok, nil
}
