package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"campusport/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *UserRepo) With(db DB) *UserRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *UserRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Upsert merges the user record: provided fields overwrite, while an empty
// roll number or department leaves the stored value untouched.
func (r *UserRepo) Upsert(ctx context.Context, u domain.User) error {
	const op = "postgres.UserRepo.Upsert"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO users (id, email, role, name, roll_number, department, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		    email       = EXCLUDED.email,
		    role        = EXCLUDED.role,
		    name        = EXCLUDED.name,
		    roll_number = CASE WHEN EXCLUDED.roll_number <> '' THEN EXCLUDED.roll_number ELSE users.roll_number END,
		    department  = CASE WHEN EXCLUDED.department <> '' THEN EXCLUDED.department ELSE users.department END,
		    last_login  = EXCLUDED.last_login`,
		u.ID, u.Email, u.Role, u.Name, u.RollNumber, u.Department, u.LastLogin,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Get retrieves a user by id.
//
// Returns:
//   - *domain.User: the user when found.
//   - error: repository.ErrNotFound when no such user exists.
func (r *UserRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	const op = "postgres.UserRepo.Get"

	db := r.handle()

	var u domain.User
	err := db.QueryRow(ctx,
		`SELECT id, email, role, name, roll_number, department, last_login
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Role, &u.Name, &u.RollNumber, &u.Department, &u.LastLogin)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &u, nil
}

// Role returns the stored role for a user id.
//
// Returns:
//   - domain.Role: the role when the user exists.
//   - error: repository.ErrNotFound when no such user exists.
func (r *UserRepo) Role(ctx context.Context, id string) (domain.Role, error) {
	const op = "postgres.UserRepo.Role"

	db := r.handle()

	var role domain.Role
	err := db.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if err != nil {
		return "", fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return role, nil
}
