package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campusport/internal/domain"
)

// FacultyRepo is read-only; the directory is maintained by migration, so it
// never joins a transaction.
type FacultyRepo struct {
	pool *pgxpool.Pool
}

const facultyColumns = `id, name, dept, email, status, location`

// List returns all faculty members ordered by name.
func (r *FacultyRepo) List(ctx context.Context) ([]domain.Faculty, error) {
	const op = "postgres.FacultyRepo.List"

	rows, err := r.pool.Query(ctx,
		`SELECT `+facultyColumns+` FROM faculty ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return scanFaculty(op, rows)
}

// Search returns faculty whose name, email or department contains the query,
// case-insensitively.
func (r *FacultyRepo) Search(ctx context.Context, query string) ([]domain.Faculty, error) {
	const op = "postgres.FacultyRepo.Search"

	rows, err := r.pool.Query(ctx,
		`SELECT `+facultyColumns+`
		 FROM faculty
		 WHERE name ILIKE $1 OR email ILIKE $1 OR dept ILIKE $1
		 ORDER BY name`,
		likePattern(query),
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return scanFaculty(op, rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps a raw query for ILIKE. Pattern metacharacters in user
// input match literally, so "q=%" does not match every row.
func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

func scanFaculty(op string, rows pgx.Rows) ([]domain.Faculty, error) {
	defer rows.Close()

	var out []domain.Faculty
	for rows.Next() {
		var f domain.Faculty
		if err := rows.Scan(&f.ID, &f.Name, &f.Dept, &f.Email, &f.Status, &f.Location); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
