package approval

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusport/internal/domain"
	"campusport/internal/repository"
)

type bookingStoreMock struct {
	get           func(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	setStatus     func(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error
	updatePurpose func(ctx context.Context, id uuid.UUID, purpose string) error
	delete        func(ctx context.Context, id uuid.UUID) error
}

func (m *bookingStoreMock) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return m.get(ctx, id)
}

func (m *bookingStoreMock) SetStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	return m.setStatus(ctx, id, status)
}

func (m *bookingStoreMock) UpdatePurpose(ctx context.Context, id uuid.UUID, purpose string) error {
	return m.updatePurpose(ctx, id, purpose)
}

func (m *bookingStoreMock) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

type userStoreMock struct {
	role func(ctx context.Context, id string) (domain.Role, error)
}

func (m *userStoreMock) Role(ctx context.Context, id string) (domain.Role, error) {
	return m.role(ctx, id)
}

var (
	student = domain.Actor{UserID: "stud-1", Name: "Asha", Role: domain.RoleStudent}
	faculty = domain.Actor{UserID: "fac-1", Name: "Dr. Rao", Role: domain.RoleFaculty}
)

func storedBooking(id uuid.UUID, ownerID string) *domain.Booking {
	return &domain.Booking{
		ID:      id,
		HallID:  "LT-3",
		Slot:    "11:00",
		DateStr: "2026-09-02",
		UserID:  ownerID,
		Status:  domain.BookingPending,
	}
}

func TestSetStatus_NonElevatedForbidden(t *testing.T) {
	svc := New(&bookingStoreMock{}, &userStoreMock{}, nil, nil, nil)

	err := svc.SetStatus(context.Background(), student, uuid.New(), domain.BookingApproved)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSetStatus_OnlyApprovedOrRejected(t *testing.T) {
	svc := New(&bookingStoreMock{}, &userStoreMock{}, nil, nil, nil)

	err := svc.SetStatus(context.Background(), faculty, uuid.New(), domain.BookingPending)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	err = svc.SetStatus(context.Background(), faculty, uuid.New(), domain.BookingStatus("cancelled"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetStatus_Elevated(t *testing.T) {
	id := uuid.New()
	var applied domain.BookingStatus

	store := &bookingStoreMock{
		get: func(ctx context.Context, got uuid.UUID) (*domain.Booking, error) {
			assert.Equal(t, id, got)
			return storedBooking(id, student.UserID), nil
		},
		setStatus: func(ctx context.Context, got uuid.UUID, status domain.BookingStatus) error {
			applied = status
			return nil
		},
	}
	svc := New(store, &userStoreMock{}, nil, nil, nil)

	err := svc.SetStatus(context.Background(), faculty, id, domain.BookingRejected)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingRejected, applied)
}

func TestSetStatus_UnknownBooking(t *testing.T) {
	store := &bookingStoreMock{
		get: func(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
			return nil, repository.ErrNotFound
		},
	}
	svc := New(store, &userStoreMock{}, nil, nil, nil)

	err := svc.SetStatus(context.Background(), faculty, uuid.New(), domain.BookingApproved)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestUpdatePurpose_OwnerOnly(t *testing.T) {
	id := uuid.New()
	var updated string

	store := &bookingStoreMock{
		get: func(ctx context.Context, got uuid.UUID) (*domain.Booking, error) {
			return storedBooking(id, student.UserID), nil
		},
		updatePurpose: func(ctx context.Context, got uuid.UUID, purpose string) error {
			updated = purpose
			return nil
		},
	}
	svc := New(store, &userStoreMock{}, nil, nil, nil)

	err := svc.UpdatePurpose(context.Background(), student, id, "Robotics club demo")
	require.NoError(t, err)
	assert.Equal(t, "Robotics club demo", updated)

	// Even an elevated actor cannot edit someone else's purpose.
	err = svc.UpdatePurpose(context.Background(), faculty, id, "hijacked")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDelete_Owner(t *testing.T) {
	id := uuid.New()
	deleted := false

	store := &bookingStoreMock{
		get: func(ctx context.Context, got uuid.UUID) (*domain.Booking, error) {
			return storedBooking(id, student.UserID), nil
		},
		delete: func(ctx context.Context, got uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	svc := New(store, &userStoreMock{}, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), student, id))
	assert.True(t, deleted)
}

func TestDelete_ElevatedOverNonElevatedOwner(t *testing.T) {
	id := uuid.New()
	deleted := false

	store := &bookingStoreMock{
		get: func(ctx context.Context, got uuid.UUID) (*domain.Booking, error) {
			return storedBooking(id, student.UserID), nil
		},
		delete: func(ctx context.Context, got uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	users := &userStoreMock{
		role: func(ctx context.Context, userID string) (domain.Role, error) {
			return domain.RoleStudent, nil
		},
	}
	svc := New(store, users, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), faculty, id))
	assert.True(t, deleted)
}

func TestDelete_ElevatedOverElevatedOwnerForbidden(t *testing.T) {
	id := uuid.New()

	store := &bookingStoreMock{
		get: func(ctx context.Context, got uuid.UUID) (*domain.Booking, error) {
			return storedBooking(id, "fac-2"), nil
		},
	}
	users := &userStoreMock{
		role: func(ctx context.Context, userID string) (domain.Role, error) {
			return domain.RoleFaculty, nil
		},
	}
	svc := New(store, users, nil, nil, nil)

	err := svc.Delete(context.Background(), faculty, id)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDelete_NonOwnerStudentForbidden(t *testing.T) {
	id := uuid.New()

	store := &bookingStoreMock{
		get: func(ctx context.Context, got uuid.UUID) (*domain.Booking, error) {
			return storedBooking(id, "stud-2"), nil
		},
	}
	svc := New(store, &userStoreMock{}, nil, nil, nil)

	err := svc.Delete(context.Background(), student, id)
	assert.ErrorIs(t, err, ErrForbidden)
}

type txStoreMock struct {
	bookings BookingStore
	users    UserStore
	calls    int
}

func (m *txStoreMock) InTx(ctx context.Context, fn func(bookings BookingStore, users UserStore) error) error {
	m.calls++
	return fn(m.bookings, m.users)
}

func TestSetStatus_ApprovingIntoOccupiedSlotIsConflict(t *testing.T) {
	id := uuid.New()

	store := &bookingStoreMock{
		get: func(ctx context.Context, got uuid.UUID) (*domain.Booking, error) {
			b := storedBooking(id, student.UserID)
			b.Status = domain.BookingRejected
			return b, nil
		},
		setStatus: func(ctx context.Context, got uuid.UUID, status domain.BookingStatus) error {
			return repository.ErrConflict
		},
	}
	svc := New(store, &userStoreMock{}, nil, nil, nil)

	err := svc.SetStatus(context.Background(), faculty, id, domain.BookingApproved)
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestDelete_ModeratedRunsInOneTransaction(t *testing.T) {
	id := uuid.New()
	deleted := false

	store := &bookingStoreMock{
		get: func(ctx context.Context, got uuid.UUID) (*domain.Booking, error) {
			return storedBooking(id, student.UserID), nil
		},
		delete: func(ctx context.Context, got uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	users := &userStoreMock{
		role: func(ctx context.Context, userID string) (domain.Role, error) {
			return domain.RoleStudent, nil
		},
	}
	tx := &txStoreMock{bookings: store, users: users}
	svc := New(store, users, tx, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), faculty, id))
	assert.True(t, deleted)
	assert.Equal(t, 1, tx.calls)
}

func TestDelete_ForbiddenInsideTransactionSkipsDelete(t *testing.T) {
	id := uuid.New()

	store := &bookingStoreMock{
		get: func(ctx context.Context, got uuid.UUID) (*domain.Booking, error) {
			return storedBooking(id, "fac-2"), nil
		},
		delete: func(ctx context.Context, got uuid.UUID) error {
			t.Fatal("delete must not run for a forbidden actor")
			return nil
		},
	}
	users := &userStoreMock{
		role: func(ctx context.Context, userID string) (domain.Role, error) {
			return domain.RoleFaculty, nil
		},
	}
	tx := &txStoreMock{bookings: store, users: users}
	svc := New(store, users, tx, nil, nil)

	err := svc.Delete(context.Background(), faculty, id)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 1, tx.calls)
}

func TestDelete_OwnerWithoutUserRecordTreatedNonElevated(t *testing.T) {
	id := uuid.New()
	deleted := false

	store := &bookingStoreMock{
		get: func(ctx context.Context, got uuid.UUID) (*domain.Booking, error) {
			return storedBooking(id, "ghost"), nil
		},
		delete: func(ctx context.Context, got uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	users := &userStoreMock{
		role: func(ctx context.Context, userID string) (domain.Role, error) {
			return "", repository.ErrNotFound
		},
	}
	svc := New(store, users, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), faculty, id))
	assert.True(t, deleted)
}
