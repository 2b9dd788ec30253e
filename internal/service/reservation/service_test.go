package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusport/internal/domain"
	"campusport/internal/repository"
)

type bookingStoreMock struct {
	reserve func(ctx context.Context, b domain.Booking) error
}

func (m *bookingStoreMock) Reserve(ctx context.Context, b domain.Booking) error {
	return m.reserve(ctx, b)
}

type limiterMock struct {
	allow func(ctx context.Context, key string) (bool, int64, time.Duration, error)
}

func (m *limiterMock) Allow(ctx context.Context, key string) (bool, int64, time.Duration, error) {
	return m.allow(ctx, key)
}

type eventsMock struct {
	mu        sync.Mutex
	published []string
}

func (m *eventsMock) PublishBookingChanged(ctx context.Context, dateStr, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, dateStr+"/"+userID)
	return nil
}

// memStore reserves into a map guarded by a mutex, mirroring the database
// guarantee that two live bookings never share a (hall, slot, day) triple.
// Rejected bookings do not occupy the slot.
type memStore struct {
	mu    sync.Mutex
	slots map[string]domain.BookingStatus
}

func newMemStore() *memStore {
	return &memStore{slots: make(map[string]domain.BookingStatus)}
}

func tripleKey(b domain.Booking) string {
	return b.HallID + "|" + b.Slot + "|" + b.DateStr
}

func (m *memStore) Reserve(ctx context.Context, b domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := tripleKey(b)
	if st, ok := m.slots[key]; ok && st != domain.BookingRejected {
		return repository.ErrSlotTaken
	}
	m.slots[key] = b.Status
	return nil
}

func (m *memStore) reject(b domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[tripleKey(b)] = domain.BookingRejected
}

func request(role domain.Role) Request {
	return Request{
		HallID:    "LT-4",
		Slot:      "10:00",
		Date:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Requester: domain.Actor{UserID: "u1", Name: "Asha", Role: role},
		Purpose:   "Guest lecture",
	}
}

func TestReserve_InvalidSlot(t *testing.T) {
	svc := New(newMemStore(), nil, nil, nil)

	req := request(domain.RoleStudent)
	req.Slot = "10:30"

	_, err := svc.Reserve(context.Background(), req, "")
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestReserve_StudentStartsPending(t *testing.T) {
	events := &eventsMock{}
	svc := New(newMemStore(), nil, events, nil)

	res, err := svc.Reserve(context.Background(), request(domain.RoleStudent), "")
	require.NoError(t, err)

	assert.True(t, res.Accepted)
	assert.Equal(t, domain.BookingPending, res.Status)
	assert.Equal(t, MsgPendingApproval, res.Message)
	assert.NotEqual(t, res.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, []string{"2026-09-01/u1"}, events.published)
}

func TestReserve_ElevatedAutoApproves(t *testing.T) {
	svc := New(newMemStore(), nil, nil, nil)

	res, err := svc.Reserve(context.Background(), request(domain.RoleFaculty), "")
	require.NoError(t, err)

	assert.True(t, res.Accepted)
	assert.Equal(t, domain.BookingApproved, res.Status)
	assert.Equal(t, MsgConfirmed, res.Message)
}

func TestReserve_OccupiedSlotIsOutcomeNotError(t *testing.T) {
	events := &eventsMock{}
	store := newMemStore()
	svc := New(store, nil, events, nil)

	first, err := svc.Reserve(context.Background(), request(domain.RoleStudent), "")
	require.NoError(t, err)
	require.True(t, first.Accepted)

	second, err := svc.Reserve(context.Background(), request(domain.RoleFaculty), "")
	require.NoError(t, err)

	assert.False(t, second.Accepted)
	assert.Equal(t, MsgSlotTaken, second.Message)
	// Only the successful reservation is broadcast.
	assert.Len(t, events.published, 1)
}

func TestReserve_RejectedBookingFreesTheSlot(t *testing.T) {
	store := newMemStore()
	svc := New(store, nil, nil, nil)

	req := request(domain.RoleStudent)

	first, err := svc.Reserve(context.Background(), req, "")
	require.NoError(t, err)
	require.True(t, first.Accepted)

	store.reject(domain.Booking{HallID: req.HallID, Slot: req.Slot, DateStr: domain.DayKey(req.Date)})

	second, err := svc.Reserve(context.Background(), req, "")
	require.NoError(t, err)
	assert.True(t, second.Accepted)
}

func TestReserve_HallNotFound(t *testing.T) {
	store := &bookingStoreMock{
		reserve: func(ctx context.Context, b domain.Booking) error {
			return repository.ErrHallNotFound
		},
	}
	svc := New(store, nil, nil, nil)

	_, err := svc.Reserve(context.Background(), request(domain.RoleStudent), "")
	assert.ErrorIs(t, err, ErrHallNotFound)
}

func TestReserve_RateLimited(t *testing.T) {
	limiter := &limiterMock{
		allow: func(ctx context.Context, key string) (bool, int64, time.Duration, error) {
			return false, 11, 30 * time.Second, nil
		},
	}
	svc := New(newMemStore(), nil, nil, limiter)

	_, err := svc.Reserve(context.Background(), request(domain.RoleStudent), "ip:10.0.0.1")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestReserve_ConcurrentSameSlot_AtMostOneWins(t *testing.T) {
	store := newMemStore()
	svc := New(store, nil, nil, nil)

	const attempts = 16

	var wg sync.WaitGroup
	results := make([]Result, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Reserve(context.Background(), request(domain.RoleStudent), "")
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, res := range results {
		if res.Accepted {
			accepted++
		} else {
			assert.Equal(t, MsgSlotTaken, res.Message)
		}
	}
	assert.Equal(t, 1, accepted)
}
