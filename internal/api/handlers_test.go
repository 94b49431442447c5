package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"postboard/internal/admission"
	"postboard/internal/members"
	"postboard/internal/models"
	"postboard/internal/posts"
	"postboard/internal/storage"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiFixture wires a full router over memory storage with a generous rate
// budget so only the dedicated admission tests hit the limiter.
type apiFixture struct {
	router     *mux.Router
	store      storage.Storage
	adminToken string
	plainToken string
}

func laxPolicy() admission.Policy {
	return admission.Policy{
		RequestsPerPeriod: 1000,
		TimePeriod:        time.Minute,
		CooldownPeriod:    time.Minute,
	}
}

func newAPIFixture(t *testing.T, policy admission.Policy) *apiFixture {
	t.Helper()
	ctx := context.Background()

	store := storage.NewMemoryStorage()

	adminToken, err := models.GenerateToken()
	require.NoError(t, err)
	require.NoError(t, store.SaveMember(ctx,
		models.NewMember(models.NewMemberID(), "admin", adminToken, true)))

	plainToken, err := models.GenerateToken()
	require.NoError(t, err)
	require.NoError(t, store.SaveMember(ctx,
		models.NewMember(models.NewMemberID(), "plain", plainToken, false)))

	counters := admission.NewMemoryCounterStore(time.Minute)
	t.Cleanup(func() { counters.Close() })

	controller := admission.NewController(counters, admission.ControllerOptions{
		Policy:  policy,
		Enabled: true,
	})
	adm := admission.NewMiddleware(admission.NewResolver(store), controller, true, false)

	handlers := NewHandlers(
		posts.NewService(store, nil),
		members.NewService(store),
		store,
		counters,
	)

	return &apiFixture{
		router:     SetupRoutes(handlers, adm),
		store:      store,
		adminToken: adminToken,
		plainToken: plainToken,
	}
}

func (f *apiFixture) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.1:54321"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

func (f *apiFixture) createPost(t *testing.T, authorID int64, title string) models.PostResponse {
	t.Helper()
	rec := f.request(t, http.MethodPost, "/api/v1/posts", f.plainToken, models.CreatePostRequest{
		AuthorID: authorID,
		Title:    title,
		Body:     "body of " + title,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.PostResponse
	decodeJSON(t, rec, &created)
	return created
}

func TestHealthCheck(t *testing.T) {
	f := newAPIFixture(t, laxPolicy())

	rec := f.request(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health models.HealthCheckResponse
	decodeJSON(t, rec, &health)
	assert.Equal(t, models.StatusHealthy, health.Status)
	assert.Equal(t, models.StatusHealthy, health.Components["storage"].Status)
	assert.Equal(t, models.StatusHealthy, health.Components["rate_store"].Status)
}

// failingCounterStore is unreachable for every operation.
type failingCounterStore struct{}

func (failingCounterStore) RecordAndEvaluate(context.Context, string, admission.Policy) (admission.Evaluation, error) {
	return admission.Evaluation{}, assert.AnError
}

func (failingCounterStore) Ping(context.Context) error { return assert.AnError }

func (failingCounterStore) Close() error { return nil }

func TestHealthCheckDegradedRateStore(t *testing.T) {
	store := storage.NewMemoryStorage()
	h := NewHandlers(posts.NewService(store, nil), members.NewService(store), store, failingCounterStore{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var health models.HealthCheckResponse
	decodeJSON(t, rec, &health)
	assert.Equal(t, models.StatusDegraded, health.Status)
	assert.Equal(t, models.StatusUnhealthy, health.Components["rate_store"].Status)
	assert.Equal(t, models.StatusHealthy, health.Components["storage"].Status)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newAPIFixture(t, laxPolicy())

	// Unsupported methods on known paths must 405 with the JSON error body,
	// including paths whose methods span privilege levels.
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/api/v1/posts"},
		{http.MethodPut, "/api/v1/posts/1"},
		{http.MethodDelete, "/api/v1/authors/1/posts"},
		{http.MethodPatch, "/api/v1/members/some-id/rotate"},
	}
	for _, p := range paths {
		rec := f.request(t, p.method, p.path, f.plainToken, nil)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", p.method, p.path)

		var errResp models.ErrorResponse
		decodeJSON(t, rec, &errResp)
		assert.Equal(t, models.ErrorCodeInvalidRequest, errResp.Code)
	}

	// Unknown paths still 404.
	rec := f.request(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
