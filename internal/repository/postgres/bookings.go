package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"campusport/internal/domain"
	"campusport/internal/repository"
)

type BookingRepo struct {
	store *Store
	db    DB
}

func (r *BookingRepo) With(db DB) *BookingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *BookingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.store.pool
}

const bookingColumns = `id, hall_id, slot, booked_at, date_str, user_id, user_name, purpose, status, created_at`

// Reserve inserts a booking if and only if its (hall, slot, day) triple is
// not occupied by a non-rejected booking. The hall check, the conflict
// check and the insert run in one serializable transaction; a partial
// unique index backs the same invariant at the storage level.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - b: the booking to insert; ID, DateStr and Created must be set.
//
// Returns:
//   - error: repository.ErrHallNotFound when the hall id is unknown.
//   - error: repository.ErrSlotTaken when the slot is already occupied.
func (r *BookingRepo) Reserve(ctx context.Context, b domain.Booking) error {
	const op = "postgres.BookingRepo.Reserve"

	if r.db != nil {
		if err := r.reserveCore(ctx, r.db, b); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		return nil
	}

	// Serialization failures are retried; the loser of a serializable
	// conflict re-runs the checks and sees the winner's row.
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = r.store.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
			return r.reserveCore(ctx, tx, b)
		})
		if err == nil || !IsRetryable(err) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (r *BookingRepo) reserveCore(ctx context.Context, db DB, b domain.Booking) error {
	hallExists, err := r.store.Halls().With(db).Exists(ctx, b.HallID)
	if err != nil {
		return err
	}

	if !hallExists {
		return repository.ErrHallNotFound
	}

	var taken bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (
		    SELECT 1 FROM bookings
		    WHERE hall_id = $1 AND slot = $2 AND date_str = $3
		      AND status <> 'rejected'
		 )`,
		b.HallID, b.Slot, b.DateStr,
	).Scan(&taken); err != nil {
		return translateDBErr(err)
	}

	if taken {
		return repository.ErrSlotTaken
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO bookings (id, hall_id, slot, booked_at, date_str, user_id, user_name, purpose, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.HallID, b.Slot, b.Date, b.DateStr,
		b.UserID, b.UserName, b.Purpose, b.Status, b.Created,
	); err != nil {
		// The partial unique index catches writers that raced past the
		// check under weaker isolation.
		if errors.Is(translateDBErr(err), repository.ErrConflict) {
			return repository.ErrSlotTaken
		}
		return translateDBErr(err)
	}

	return nil
}

// Get retrieves a booking by id.
//
// Returns:
//   - *domain.Booking: the booking when found.
//   - error: repository.ErrNotFound when no such booking exists.
func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Get"

	db := r.handle()

	var b domain.Booking
	err := db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`,
		id,
	).Scan(
		&b.ID, &b.HallID, &b.Slot, &b.Date, &b.DateStr,
		&b.UserID, &b.UserName, &b.Purpose, &b.Status, &b.Created,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

// SetStatus updates only the status field of a booking.
//
// Returns:
//   - error: repository.ErrNotFound when no such booking exists.
func (r *BookingRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	const op = "postgres.BookingRepo.SetStatus"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE bookings SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// UpdatePurpose updates only the purpose field of a booking.
//
// Returns:
//   - error: repository.ErrNotFound when no such booking exists.
func (r *BookingRepo) UpdatePurpose(ctx context.Context, id uuid.UUID, purpose string) error {
	const op = "postgres.BookingRepo.UpdatePurpose"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE bookings SET purpose = $2 WHERE id = $1`,
		id, purpose,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// Delete removes a booking.
//
// Returns:
//   - error: repository.ErrNotFound when no such booking exists.
func (r *BookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.BookingRepo.Delete"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// ListByUser returns a requester's bookings ordered by date ascending.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListByUser"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE user_id = $1
		 ORDER BY booked_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return scanBookings(op, rows)
}

// ListAll returns every booking ordered by date descending.
func (r *BookingRepo) ListAll(ctx context.Context) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListAll"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 ORDER BY booked_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return scanBookings(op, rows)
}

// ListForDay returns the bookings anchoring a calendar day's slot grid.
func (r *BookingRepo) ListForDay(ctx context.Context, dateStr string) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListForDay"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE date_str = $1
		 ORDER BY hall_id, slot`,
		dateStr,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return scanBookings(op, rows)
}

func scanBookings(op string, rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.HallID, &b.Slot, &b.Date, &b.DateStr,
			&b.UserID, &b.UserName, &b.Purpose, &b.Status, &b.Created,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
