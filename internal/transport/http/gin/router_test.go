package httpgin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusport/internal/domain"
	"campusport/internal/repository"
	"campusport/internal/service"
	"campusport/internal/service/approval"
	"campusport/internal/service/catalog"
	"campusport/internal/service/directory"
	"campusport/internal/service/identity"
	"campusport/internal/service/query"
	"campusport/internal/service/reservation"
	"campusport/internal/service/watch"
)

const testSecret = "test-secret"

type memBookings struct {
	mu    sync.Mutex
	taken map[string]domain.Booking
}

func newMemBookings() *memBookings {
	return &memBookings{taken: make(map[string]domain.Booking)}
}

func (m *memBookings) Reserve(ctx context.Context, b domain.Booking) error {
	key := b.HallID + "|" + b.Slot + "|" + b.DateStr

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.taken[key]; ok {
		return repository.ErrSlotTaken
	}
	m.taken[key] = b
	return nil
}

func (m *memBookings) ListForDay(ctx context.Context, dateStr string) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Booking
	for _, b := range m.taken {
		if b.DateStr == dateStr {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBookings) ListAll(ctx context.Context) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Booking
	for _, b := range m.taken {
		out = append(out, b)
	}
	return out, nil
}

func (m *memBookings) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Booking
	for _, b := range m.taken {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

type memHalls struct{ halls []domain.Hall }

func (m *memHalls) List(ctx context.Context) ([]domain.Hall, error)  { return m.halls, nil }
func (m *memHalls) Count(ctx context.Context) (int64, error)         { return int64(len(m.halls)), nil }
func (m *memHalls) CreateBatch(ctx context.Context, halls []domain.Hall) error {
	m.halls = append(m.halls, halls...)
	return nil
}

type memFaculty struct{}

func (memFaculty) List(ctx context.Context) ([]domain.Faculty, error) {
	return []domain.Faculty{{ID: 1, Name: "Dr. Rao"}}, nil
}

func (memFaculty) Search(ctx context.Context, query string) ([]domain.Faculty, error) {
	return nil, nil
}

type memUsers struct{}

func (memUsers) Upsert(ctx context.Context, u domain.User) error { return nil }
func (memUsers) Get(ctx context.Context, id string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func newTestRouter(t *testing.T, bookings *memBookings) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svcs := &service.Services{
		Catalog:     catalog.New(&memHalls{}, nil, catalog.Config{}),
		Reservation: reservation.New(bookings, nil, nil, nil),
		Query:       query.New(bookings, nil, query.Config{}),
		Watch:       watch.New(bookings, nil, watch.Config{}),
		Directory:   directory.New(memFaculty{}),
		Identity:    identity.New(memUsers{}),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(svcs, nil, testSecret, logger)
}

func bearer(t *testing.T, userID, name string, role domain.Role) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"name": name,
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func doJSON(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	r := newTestRouter(t, newMemBookings())

	w := doJSON(r, http.MethodGet, "/halls", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_HallsSeededAndNaturallyOrdered(t *testing.T) {
	r := newTestRouter(t, newMemBookings())
	token := bearer(t, "u1", "Asha", domain.RoleStudent)

	w := doJSON(r, http.MethodGet, "/halls", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("ETag"))

	var halls []domain.Hall
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &halls))
	assert.Len(t, halls, 20)
}

func TestRouter_ReserveThenConflict(t *testing.T) {
	r := newTestRouter(t, newMemBookings())
	student := bearer(t, "u1", "Asha", domain.RoleStudent)
	prof := bearer(t, "f1", "Dr. Rao", domain.RoleFaculty)

	body := `{"hall_id":"LT-1","slot":"10:00","date":"2026-09-02","purpose":"Seminar"}`

	w := doJSON(r, http.MethodPost, "/bookings", student, body)
	require.Equal(t, http.StatusCreated, w.Code)

	var first ReserveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.True(t, first.Accepted)
	assert.Equal(t, "pending", first.Status)
	assert.Equal(t, reservation.MsgPendingApproval, first.Message)

	w = doJSON(r, http.MethodPost, "/bookings", prof, body)
	require.Equal(t, http.StatusConflict, w.Code)

	var second ReserveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.False(t, second.Accepted)
	assert.Equal(t, reservation.MsgSlotTaken, second.Message)
}

func TestRouter_ReserveValidation(t *testing.T) {
	r := newTestRouter(t, newMemBookings())
	token := bearer(t, "u1", "Asha", domain.RoleStudent)

	w := doJSON(r, http.MethodPost, "/bookings", token,
		`{"hall_id":"LT-1","slot":"10:30","date":"2026-09-02"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/bookings", token,
		`{"hall_id":"LT-1","slot":"10:00","date":"02-09-2026"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_SlotsAndBookingsForDay(t *testing.T) {
	bookings := newMemBookings()
	r := newTestRouter(t, bookings)
	prof := bearer(t, "f1", "Dr. Rao", domain.RoleFaculty)

	w := doJSON(r, http.MethodGet, "/slots", prof, "")
	require.Equal(t, http.StatusOK, w.Code)

	var slots SlotsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	assert.Len(t, slots.Slots, 12)

	body := `{"hall_id":"LT-2","slot":"09:00","date":"2026-09-03"}`
	w = doJSON(r, http.MethodPost, "/bookings", prof, body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodGet, "/bookings?date=2026-09-03", prof, "")
	require.Equal(t, http.StatusOK, w.Code)

	var grid []domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grid))
	require.Len(t, grid, 1)
	assert.Equal(t, domain.BookingApproved, grid[0].Status)
}

type conflictingBookings struct {
	booking domain.Booking
}

func (c conflictingBookings) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	b := c.booking
	b.ID = id
	return &b, nil
}

func (c conflictingBookings) SetStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	return repository.ErrConflict
}

func (c conflictingBookings) UpdatePurpose(ctx context.Context, id uuid.UUID, purpose string) error {
	return nil
}

func (c conflictingBookings) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type noRoles struct{}

func (noRoles) Role(ctx context.Context, id string) (domain.Role, error) {
	return "", repository.ErrNotFound
}

func TestRouter_ApproveIntoOccupiedSlotIs409(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// The slot freed by rejection has been re-booked; reviving the
	// rejected booking collides with the live one.
	store := conflictingBookings{booking: domain.Booking{
		HallID:  "LT-1",
		Slot:    "10:00",
		DateStr: "2026-09-02",
		UserID:  "u1",
		Status:  domain.BookingRejected,
	}}

	svcs := &service.Services{
		Approval: approval.New(store, noRoles{}, nil, nil, nil),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRouter(svcs, nil, testSecret, logger)

	prof := bearer(t, "f1", "Dr. Rao", domain.RoleFaculty)
	w := doJSON(r, http.MethodPatch, "/bookings/"+uuid.NewString()+"/status", prof,
		`{"status":"approved"}`)

	require.Equal(t, http.StatusConflict, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "occupied")
}

func TestRouter_MeNotFound(t *testing.T) {
	r := newTestRouter(t, newMemBookings())
	token := bearer(t, "u1", "Asha", domain.RoleStudent)

	w := doJSON(r, http.MethodGet, "/me", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
