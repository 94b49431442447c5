package admission

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"postboard/internal/models"
	"postboard/internal/storage"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type middlewareFixture struct {
	router     *mux.Router
	store      storage.Storage
	adminToken string
	plainToken string
}

func newMiddlewareFixture(t *testing.T, countDenied bool) *middlewareFixture {
	t.Helper()
	ctx := context.Background()

	memberStore := storage.NewMemoryStorage()

	adminToken, err := models.GenerateToken()
	require.NoError(t, err)
	admin := models.NewMember(models.NewMemberID(), "admin", adminToken, true)
	require.NoError(t, memberStore.SaveMember(ctx, admin))

	plainToken, err := models.GenerateToken()
	require.NoError(t, err)
	plain := models.NewMember(models.NewMemberID(), "plain", plainToken, false)
	require.NoError(t, memberStore.SaveMember(ctx, plain))

	counters := newMemoryCounterStoreAt(time.Now)
	controller := NewController(counters, ControllerOptions{Policy: testPolicy, Enabled: true})
	mw := NewMiddleware(NewResolver(memberStore), controller, true, countDenied)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router := mux.NewRouter()
	public := router.PathPrefix("/public").Subrouter()
	public.Use(mw.Require(PrivilegeNone))
	public.Handle("", ok)

	member := router.PathPrefix("/member").Subrouter()
	member.Use(mw.Require(PrivilegeMember))
	member.Handle("", ok)

	adminRoutes := router.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(mw.Require(PrivilegeAdmin))
	adminRoutes.Handle("", ok)

	return &middlewareFixture{
		router:     router,
		store:      memberStore,
		adminToken: adminToken,
		plainToken: plainToken,
	}
}

func (f *middlewareFixture) do(path, token, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "192.0.2.1:54321"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Code
}

func TestMiddlewareRequiresToken(t *testing.T) {
	f := newMiddlewareFixture(t, false)

	rec := f.do("/member", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, models.ErrorCodeUnauthorized, errorCode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestMiddlewareRejectsUnknownToken(t *testing.T) {
	f := newMiddlewareFixture(t, false)

	rec := f.do("/member", "pb_not-a-real-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsDisabledMember(t *testing.T) {
	f := newMiddlewareFixture(t, false)
	ctx := context.Background()

	member, err := f.store.GetMemberByTokenHash(ctx, models.HashToken(f.plainToken))
	require.NoError(t, err)
	member.Enabled = false
	require.NoError(t, f.store.SaveMember(ctx, member))

	rec := f.do("/member", f.plainToken, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewarePrivilegeGate(t *testing.T) {
	f := newMiddlewareFixture(t, false)

	rec := f.do("/admin", f.plainToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, models.ErrorCodeForbidden, errorCode(t, rec))

	rec = f.do("/admin", f.adminToken, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewarePublicRouteNeedsNoToken(t *testing.T) {
	f := newMiddlewareFixture(t, false)

	rec := f.do("/public", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareEnforcesBudget(t *testing.T) {
	f := newMiddlewareFixture(t, false)

	for i := 0; i < 3; i++ {
		rec := f.do("/member", f.plainToken, "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := f.do("/member", f.plainToken, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, models.ErrorCodeCooldownActive, errorCode(t, rec))

	// A freshly triggered cooldown of exactly 100s must advertise exactly
	// 100, not a padded 101.
	assert.Equal(t, "100", rec.Header().Get("Retry-After"))
}

func TestMiddlewareRetryAfterRoundsUpFractions(t *testing.T) {
	store := &stubCounterStore{eval: Evaluation{
		State:      StateInCooldown,
		RetryAfter: 500 * time.Millisecond,
	}}
	controller := NewController(store, ControllerOptions{Policy: testPolicy, Enabled: true})
	mw := NewMiddleware(nil, controller, true, false)

	handler := mw.Require(PrivilegeNone)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.9:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestMiddlewareBudgetsArePerMember(t *testing.T) {
	f := newMiddlewareFixture(t, false)

	for i := 0; i < 4; i++ {
		f.do("/member", f.plainToken, "")
	}

	rec := f.do("/member", f.adminToken, "")
	assert.Equal(t, http.StatusOK, rec.Code, "another member keeps its own budget")
}

func TestMiddlewarePublicRoutesKeyedByIP(t *testing.T) {
	f := newMiddlewareFixture(t, false)

	for i := 0; i < 4; i++ {
		f.do("/public", "", "198.51.100.7")
	}

	rec := f.do("/public", "", "198.51.100.7")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = f.do("/public", "", "198.51.100.8")
	assert.Equal(t, http.StatusOK, rec.Code, "a different client IP keeps its own budget")
}

func TestMiddlewareDeniedRequestsSpendNoBudget(t *testing.T) {
	f := newMiddlewareFixture(t, false)

	// Forbidden requests are turned away before admission, so the member's
	// budget stays intact.
	for i := 0; i < 5; i++ {
		rec := f.do("/admin", f.plainToken, "")
		require.Equal(t, http.StatusForbidden, rec.Code)
	}

	rec := f.do("/member", f.plainToken, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareCountDeniedSpendsBudget(t *testing.T) {
	f := newMiddlewareFixture(t, true)

	for i := 0; i < 4; i++ {
		f.do("/admin", f.plainToken, "")
	}

	rec := f.do("/member", f.plainToken, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code,
		"with count_denied the forbidden requests consumed the budget")
}

func TestMiddlewareStoreFailureFailClosed(t *testing.T) {
	memberStore := storage.NewMemoryStorage()
	token, err := models.GenerateToken()
	require.NoError(t, err)
	member := models.NewMember(models.NewMemberID(), "m", token, false)
	require.NoError(t, memberStore.SaveMember(context.Background(), member))

	failing := &stubCounterStore{err: assert.AnError}
	controller := NewController(failing, ControllerOptions{Policy: testPolicy, Enabled: true})
	mw := NewMiddleware(NewResolver(memberStore), controller, true, false)

	router := mux.NewRouter()
	sub := router.PathPrefix("/member").Subrouter()
	sub.Use(mw.Require(PrivilegeMember))
	sub.Handle("", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/member", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, models.ErrorCodeRateStoreUnavailable, errorCode(t, rec))
}

func TestMiddlewareSetsMemberContext(t *testing.T) {
	memberStore := storage.NewMemoryStorage()
	token, err := models.GenerateToken()
	require.NoError(t, err)
	member := models.NewMember(models.NewMemberID(), "ctx-member", token, false)
	require.NoError(t, memberStore.SaveMember(context.Background(), member))

	counters := newMemoryCounterStoreAt(time.Now)
	controller := NewController(counters, ControllerOptions{Policy: testPolicy, Enabled: true})
	mw := NewMiddleware(NewResolver(memberStore), controller, true, false)

	var seen *models.Member
	router := mux.NewRouter()
	sub := router.PathPrefix("/member").Subrouter()
	sub.Use(mw.Require(PrivilegeMember))
	sub.Handle("", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = MemberFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/member", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, seen)
	assert.Equal(t, member.ID, seen.ID)
}
