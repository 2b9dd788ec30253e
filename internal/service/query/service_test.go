package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusport/internal/domain"
)

type bookingStoreMock struct {
	listForDay func(ctx context.Context, dateStr string) ([]domain.Booking, error)
	listAll    func(ctx context.Context) ([]domain.Booking, error)
	listByUser func(ctx context.Context, userID string) ([]domain.Booking, error)
}

func (m *bookingStoreMock) ListForDay(ctx context.Context, dateStr string) ([]domain.Booking, error) {
	return m.listForDay(ctx, dateStr)
}

func (m *bookingStoreMock) ListAll(ctx context.Context) ([]domain.Booking, error) {
	return m.listAll(ctx)
}

func (m *bookingStoreMock) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	return m.listByUser(ctx, userID)
}

func TestDayGrid_QueriesByDayKey(t *testing.T) {
	store := &bookingStoreMock{
		listForDay: func(ctx context.Context, dateStr string) ([]domain.Booking, error) {
			assert.Equal(t, "2026-09-02", dateStr)
			return []domain.Booking{{HallID: "LT-1", Slot: "09:00"}}, nil
		},
	}
	svc := New(store, nil, Config{})

	// Mid-day timestamp collapses to its calendar day.
	grid, err := svc.DayGrid(context.Background(), time.Date(2026, 9, 2, 14, 45, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, grid, 1)
}

func TestOwnBookings_ForwardsUserID(t *testing.T) {
	store := &bookingStoreMock{
		listByUser: func(ctx context.Context, userID string) ([]domain.Booking, error) {
			assert.Equal(t, "u1", userID)
			return []domain.Booking{{UserID: "u1"}, {UserID: "u1"}}, nil
		},
	}
	svc := New(store, nil, Config{})

	out, err := svc.OwnBookings(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, out, 2)
}
