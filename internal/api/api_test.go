package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"avtoservis/internal/auth"
	"avtoservis/internal/config"
	"avtoservis/internal/database"
	"avtoservis/internal/events"
	"avtoservis/internal/models"
	"avtoservis/internal/repository"
	"avtoservis/internal/service"
	"avtoservis/internal/worker"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	t          *testing.T
	handler    http.Handler
	db         *database.DB
	userToken  string
	otherToken string
	adminToken string
	userID     string
	otherID    string
	adminID    string
	carID      string
	svcID      string
}

func setupAPI(t *testing.T) *apiFixture {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenManager("test-secret", 15*time.Minute)
	require.NoError(t, err)

	sessions := repository.NewMemorySessionRepository()
	bus := events.NewEventBus()

	userService := service.NewUserService(db, sessions, tokens, bus, time.Hour, &logger)
	bookingService := service.NewBookingService(db, db, db, db, bus, &logger)
	catalogService := service.NewCatalogService(db, db)
	reports := worker.NewReportWorker(db, t.TempDir(), worker.RetryPolicy{}, &logger)

	srv := NewServer(
		config.ServerConfig{Port: 0},
		config.RateLimitConfig{},
		userService, bookingService, catalogService, reports, tokens, &logger,
	)

	f := &apiFixture{t: t, handler: srv.Handler(), db: db}

	f.userID, f.userToken = f.register("ivan", false)
	f.otherID, f.otherToken = f.register("petr", false)
	f.adminID, f.adminToken = f.register("boss", true)

	// Catalog fixtures owned by ivan.
	car := f.doJSON(http.MethodPost, "/api/v1/cars", f.userToken,
		map[string]any{"make": "Lada", "model": "Vesta"}, http.StatusCreated)
	f.carID = car["id"].(string)

	st := f.doJSON(http.MethodPost, "/api/v1/admin/services", f.adminToken,
		map[string]any{"name": "Замена масла", "price_cents": 250000, "duration_minutes": 60}, http.StatusCreated)
	f.svcID = st["id"].(string)

	return f
}

func (f *apiFixture) register(username string, admin bool) (string, string) {
	body := map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct-horse",
	}
	user := f.doJSON(http.MethodPost, "/api/v1/auth/register", "", body, http.StatusCreated)
	id := user["id"].(string)

	if admin {
		require.NoError(f.t, f.db.UpdateUserRole(f.t.Context(), id, models.RoleAdmin))
	}

	login := f.doJSON(http.MethodPost, "/api/v1/auth/login", "",
		map[string]any{"username": username, "password": "correct-horse"}, http.StatusOK)
	return id, login["access_token"].(string)
}

func (f *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) doJSON(method, path, token string, body any, wantStatus int) map[string]any {
	f.t.Helper()

	rec := f.do(method, path, token, body)
	require.Equal(f.t, wantStatus, rec.Code, "body: %s", rec.Body.String())

	var out map[string]any
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (f *apiFixture) createBooking(token string, extra map[string]any) map[string]any {
	body := map[string]any{
		"car_id":          f.carID,
		"service_type_id": f.svcID,
		"date":            "2026-09-10",
		"time":            "10:30",
	}
	for k, v := range extra {
		body[k] = v
	}
	return f.doJSON(http.MethodPost, "/api/v1/bookings", token, body, http.StatusCreated)
}

func TestHealthz(t *testing.T) {
	f := setupAPI(t)
	rec := f.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodGet, "/api/v1/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/bookings", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodPost, "/api/v1/auth/login", "",
		map[string]any{"username": "ivan", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterDuplicateConflict(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodPost, "/api/v1/auth/register", "",
		map[string]any{"username": "ivan", "email": "ivan@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	f := setupAPI(t)

	login := f.doJSON(http.MethodPost, "/api/v1/auth/login", "",
		map[string]any{"username": "ivan", "password": "correct-horse"}, http.StatusOK)
	refresh := login["refresh_token"].(string)

	rotated := f.doJSON(http.MethodPost, "/api/v1/auth/refresh", "",
		map[string]any{"refresh_token": refresh}, http.StatusOK)
	assert.NotEqual(t, refresh, rotated["refresh_token"])

	// The presented token is single-use.
	rec := f.do(http.MethodPost, "/api/v1/auth/refresh", "",
		map[string]any{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	next := rotated["refresh_token"].(string)
	f.doJSON(http.MethodPost, "/api/v1/auth/logout", "",
		map[string]any{"refresh_token": next}, http.StatusOK)

	rec = f.do(http.MethodPost, "/api/v1/auth/refresh", "",
		map[string]any{"refresh_token": next})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBookingForcesOwnerAndStatus(t *testing.T) {
	f := setupAPI(t)

	// A regular user cannot plant a booking on someone else.
	booking := f.createBooking(f.userToken, map[string]any{"user_id": f.otherID})
	assert.Equal(t, f.userID, booking["user_id"])
	assert.Equal(t, models.StatusPending, booking["status"])
}

func TestCreateBookingAdminOnBehalf(t *testing.T) {
	f := setupAPI(t)

	booking := f.createBooking(f.adminToken, map[string]any{"user_id": f.userID})
	assert.Equal(t, f.userID, booking["user_id"])
	assert.Equal(t, models.StatusPending, booking["status"])
}

func TestCreateBookingValidation(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodPost, "/api/v1/bookings", f.userToken,
		map[string]any{"service_type_id": f.svcID, "date": "2026-09-10", "time": "10:30"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/bookings", f.userToken,
		map[string]any{"car_id": f.carID, "service_type_id": f.svcID, "date": "10.09.2026", "time": "10:30"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/bookings", f.userToken,
		map[string]any{"car_id": f.carID, "service_type_id": f.svcID, "date": "2026-09-10", "time": "25:99"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBookingAccessControl(t *testing.T) {
	f := setupAPI(t)

	booking := f.createBooking(f.userToken, nil)
	id := booking["id"].(string)

	f.doJSON(http.MethodGet, "/api/v1/bookings/"+id, f.userToken, nil, http.StatusOK)
	f.doJSON(http.MethodGet, "/api/v1/bookings/"+id, f.adminToken, nil, http.StatusOK)

	rec := f.do(http.MethodGet, "/api/v1/bookings/"+id, f.otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/bookings/missing-id", f.userToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListBookingsScoping(t *testing.T) {
	f := setupAPI(t)

	f.createBooking(f.userToken, nil)
	f.createBooking(f.adminToken, map[string]any{"user_id": f.otherID})

	mine := f.doJSON(http.MethodGet, "/api/v1/bookings", f.userToken, nil, http.StatusOK)
	assert.Len(t, mine["bookings"], 1)

	all := f.doJSON(http.MethodGet, "/api/v1/bookings", f.adminToken, nil, http.StatusOK)
	assert.Len(t, all["bookings"], 2)
}

func TestPatchBookingNotes(t *testing.T) {
	f := setupAPI(t)

	booking := f.createBooking(f.userToken, nil)
	id := booking["id"].(string)

	updated := f.doJSON(http.MethodPatch, "/api/v1/bookings/"+id, f.userToken,
		map[string]any{"notes": "нужен эвакуатор"}, http.StatusOK)
	assert.Equal(t, "нужен эвакуатор", updated["notes"])

	// Owner cannot smuggle a status change through the field patch.
	rec := f.do(http.MethodPatch, "/api/v1/bookings/"+id, f.userToken,
		map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPatch, "/api/v1/bookings/"+id, f.otherToken,
		map[string]any{"notes": "чужая запись"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	updated = f.doJSON(http.MethodPatch, "/api/v1/bookings/"+id, f.adminToken,
		map[string]any{"status": "confirmed", "time": "12:00"}, http.StatusOK)
	assert.Equal(t, "confirmed", updated["status"])
	assert.Equal(t, "12:00", updated["time"])
}

func TestUpdateBookingStatus(t *testing.T) {
	f := setupAPI(t)

	booking := f.createBooking(f.userToken, nil)
	id := booking["id"].(string)
	statusPath := "/api/v1/bookings/" + id + "/status"

	// Owner cannot confirm own booking.
	rec := f.do(http.MethodPatch, statusPath, f.userToken, map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Unknown status is a validation error, not forbidden.
	rec = f.do(http.MethodPatch, statusPath, f.userToken, map[string]any{"status": "done"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPatch, statusPath, f.otherToken, map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	cancelled := f.doJSON(http.MethodPatch, statusPath, f.userToken,
		map[string]any{"status": "cancelled"}, http.StatusOK)
	assert.Equal(t, models.StatusCancelled, cancelled["status"])

	// Idempotent re-cancel.
	f.doJSON(http.MethodPatch, statusPath, f.userToken,
		map[string]any{"status": "cancelled"}, http.StatusOK)

	// Admin moves it anywhere, including backwards.
	confirmed := f.doJSON(http.MethodPatch, statusPath, f.adminToken,
		map[string]any{"status": "confirmed"}, http.StatusOK)
	assert.Equal(t, models.StatusConfirmed, confirmed["status"])
}

func TestDeleteBooking(t *testing.T) {
	f := setupAPI(t)

	booking := f.createBooking(f.userToken, nil)
	id := booking["id"].(string)

	f.doJSON(http.MethodPatch, "/api/v1/bookings/"+id+"/status", f.adminToken,
		map[string]any{"status": "completed"}, http.StatusOK)

	// Owner cannot erase a completed booking.
	rec := f.do(http.MethodDelete, "/api/v1/bookings/"+id, f.userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.doJSON(http.MethodDelete, "/api/v1/bookings/"+id, f.adminToken, nil, http.StatusOK)

	rec = f.do(http.MethodGet, "/api/v1/bookings/"+id, f.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteBookingOwnerPending(t *testing.T) {
	f := setupAPI(t)

	booking := f.createBooking(f.userToken, nil)
	id := booking["id"].(string)

	rec := f.do(http.MethodDelete, "/api/v1/bookings/"+id, f.otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.doJSON(http.MethodDelete, "/api/v1/bookings/"+id, f.userToken, nil, http.StatusOK)
}

func TestCarsAccessControl(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodGet, "/api/v1/cars/"+f.carID, f.otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	car := f.doJSON(http.MethodGet, "/api/v1/cars/"+f.carID, f.userToken, nil, http.StatusOK)
	assert.Equal(t, "Lada", car["make"])

	mine := f.doJSON(http.MethodGet, "/api/v1/cars", f.otherToken, nil, http.StatusOK)
	assert.Empty(t, mine["cars"])
}

func TestPublicServiceCatalog(t *testing.T) {
	f := setupAPI(t)

	// No token needed for the public catalog.
	listing := f.doJSON(http.MethodGet, "/api/v1/services", "", nil, http.StatusOK)
	assert.Len(t, listing["services"], 1)

	f.doJSON(http.MethodDelete, "/api/v1/admin/services/"+f.svcID, f.adminToken, nil, http.StatusOK)

	listing = f.doJSON(http.MethodGet, "/api/v1/services", "", nil, http.StatusOK)
	assert.Empty(t, listing["services"])

	all := f.doJSON(http.MethodGet, "/api/v1/admin/services", f.adminToken, nil, http.StatusOK)
	assert.Len(t, all["services"], 1)
}

func TestUpdateServiceTypePartial(t *testing.T) {
	f := setupAPI(t)

	// An explicit zero price lands; omitted fields keep their values.
	updated := f.doJSON(http.MethodPut, "/api/v1/admin/services/"+f.svcID, f.adminToken,
		map[string]any{"price_cents": 0}, http.StatusOK)
	assert.EqualValues(t, 0, updated["price_cents"])
	assert.Equal(t, "Замена масла", updated["name"])
	assert.EqualValues(t, 60, updated["duration_minutes"])

	rec := f.do(http.MethodPut, "/api/v1/admin/services/"+f.svcID, f.adminToken,
		map[string]any{"price_cents": -100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminSurfaceForbiddenForUsers(t *testing.T) {
	f := setupAPI(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/admin/users"},
		{http.MethodPatch, fmt.Sprintf("/api/v1/admin/users/%s/role", f.otherID)},
		{http.MethodPost, "/api/v1/admin/services"},
		{http.MethodPost, "/api/v1/admin/reports"},
	}
	for _, p := range paths {
		rec := f.do(p.method, p.path, f.userToken, map[string]any{})
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestAdminChangeRole(t *testing.T) {
	f := setupAPI(t)

	f.doJSON(http.MethodPatch, "/api/v1/admin/users/"+f.otherID+"/role", f.adminToken,
		map[string]any{"role": "admin"}, http.StatusOK)

	users := f.doJSON(http.MethodGet, "/api/v1/admin/users", f.adminToken, nil, http.StatusOK)
	assert.Len(t, users["users"], 3)

	rec := f.do(http.MethodPatch, "/api/v1/admin/users/"+f.otherID+"/role", f.adminToken,
		map[string]any{"role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminEnqueueReport(t *testing.T) {
	f := setupAPI(t)

	f.doJSON(http.MethodPost, "/api/v1/admin/reports", f.adminToken,
		map[string]any{"start_date": "2026-09-01", "end_date": "2026-09-30"}, http.StatusAccepted)

	rec := f.do(http.MethodPost, "/api/v1/admin/reports", f.adminToken,
		map[string]any{"start_date": "2026-09-30", "end_date": "2026-09-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tasks, err := f.db.GetPendingReportTasks(t.Context(), 10)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestMe(t *testing.T) {
	f := setupAPI(t)

	me := f.doJSON(http.MethodGet, "/api/v1/me", f.userToken, nil, http.StatusOK)
	assert.Equal(t, "ivan", me["username"])
	// Password hash never leaves the API.
	_, leaked := me["password_hash"]
	assert.False(t, leaked)
}
