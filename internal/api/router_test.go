package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mern-bugtracker/bug-tracker/internal/api/handler"
	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
	"github.com/mern-bugtracker/bug-tracker/internal/core/ports"
	"github.com/mern-bugtracker/bug-tracker/internal/core/service"
	"github.com/mern-bugtracker/bug-tracker/internal/infrastructure/db/memory"
)

// syncRecorder records activity inline so assertions need no polling.
type syncRecorder struct {
	svc ports.ActivityService
}

func (r syncRecorder) Enqueue(a domain.BugActivity) {
	_ = r.svc.Record(context.Background(), a)
}

type mapReplays struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *mapReplays) Lookup(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

func (m *mapReplays) Remember(_ context.Context, key, bugID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; !ok {
		m.keys[key] = bugID
	}
	return nil
}

type testServer struct {
	e *echo.Echo
}

type serverOption func(*Dependencies)

func withAuth(secret string, required bool) serverOption {
	return func(d *Dependencies) {
		d.JWTSecret = secret
		d.RequireAuth = required
	}
}

func newTestServer(t *testing.T, replays ports.IdempotencyStore, opts ...serverOption) *testServer {
	t.Helper()
	log := zerolog.Nop()

	activity := service.NewActivityService(memory.NewActivityRepository(), log)
	bugs := service.NewBugService(memory.NewBugRepository(), syncRecorder{svc: activity}, replays, log)
	users := service.NewUserService(memory.NewUserRepository(), "test-secret", 0)

	deps := Dependencies{
		Bugs:     bugs,
		Activity: activity,
		Users:    users,
		Log:      log,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return &testServer{e: NewRouter(deps)}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

type bugEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Count   int         `json:"count"`
	Data    *domain.Bug `json:"data"`
}

type bugListEnvelope struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Data    []*domain.Bug `json:"data"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

const validBugJSON = `{"title":"Login button not responding","description":"The login button on the homepage does not respond to user clicks","severity":"high","createdBy":"user@example.com"}`

func (s *testServer) createBug(t *testing.T, body string) *domain.Bug {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/bugs", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[bugEnvelope](t, rec).Data
}

func TestScenario_CreateBug(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/bugs", validBugJSON)
	require.Equal(t, http.StatusCreated, rec.Code)

	env := decode[bugEnvelope](t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "Login button not responding", env.Data.Title)
	assert.Equal(t, domain.StatusOpen, env.Data.Status)
	assert.Equal(t, domain.SeverityHigh, env.Data.Severity)
	assert.Nil(t, env.Data.Assignee)
	assert.True(t, primitive.IsValidObjectID(env.Data.ID))
	assert.False(t, env.Data.CreatedAt.IsZero())
}

func TestScenario_CreateBugMissingTitle(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/bugs", `{"description":"A valid description here","createdBy":"user@example.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env := decode[handler.ErrorEnvelope](t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusBadRequest, env.Error.Status)
	assert.Contains(t, env.Error.Message, "Title is required")
	assert.NotEmpty(t, env.Error.Timestamp)
}

func TestScenario_CreateBugShortDescription(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/bugs", `{"title":"Valid Title","description":"Short","createdBy":"user@example.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env := decode[handler.ErrorEnvelope](t, rec)
	assert.Equal(t, "Description must be at least 10 characters", env.Error.Message)
}

func TestScenario_GetMissingBug(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/bugs/"+primitive.NewObjectID().Hex(), "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	env := decode[handler.ErrorEnvelope](t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Bug not found", env.Error.Message)
	assert.Equal(t, http.StatusNotFound, env.Error.Status)
}

func TestScenario_UpdateBug(t *testing.T) {
	s := newTestServer(t, nil)
	created := s.createBug(t, validBugJSON)

	rec := s.do(t, http.MethodPut, "/api/bugs/"+created.ID,
		`{"title":"Updated Bug Title","description":"This is the updated description for the bug","status":"in-progress"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decode[bugEnvelope](t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, domain.StatusInProgress, env.Data.Status)
	assert.Equal(t, "Updated Bug Title", env.Data.Title)
	assert.Equal(t, "user@example.com", env.Data.CreatedBy)
	assert.Equal(t, created.CreatedAt, env.Data.CreatedAt)
}

func TestScenario_DeleteThenGet(t *testing.T) {
	s := newTestServer(t, nil)
	created := s.createBug(t, validBugJSON)

	rec := s.do(t, http.MethodDelete, "/api/bugs/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[bugEnvelope](t, rec)
	assert.Equal(t, "Bug deleted successfully", env.Message)
	assert.Equal(t, created.ID, env.Data.ID)

	rec = s.do(t, http.MethodGet, "/api/bugs/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTwiceReturns404(t *testing.T) {
	s := newTestServer(t, nil)
	created := s.createBug(t, validBugJSON)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/bugs/"+created.ID, "").Code)
	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodDelete, "/api/bugs/"+created.ID, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	created := s.createBug(t, `{"title":"  Crash on save  ","description":"Saving a draft crashes the editor","assignee":"dev@example.com","status":"resolved","createdBy":"qa@example.com"}`)

	rec := s.do(t, http.MethodGet, "/api/bugs/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[bugEnvelope](t, rec).Data

	assert.Equal(t, created, got)
	assert.Equal(t, "Crash on save", got.Title)
	assert.Equal(t, domain.SeverityMedium, got.Severity)
	assert.Equal(t, domain.StatusResolved, got.Status)
	require.NotNil(t, got.Assignee)
	assert.Equal(t, "dev@example.com", *got.Assignee)
}

func TestListReturnsAllNewestFirst(t *testing.T) {
	s := newTestServer(t, nil)

	var ids []string
	for _, title := range []string{"First reported bug", "Second reported bug", "Third reported bug", "Fourth reported bug"} {
		b := s.createBug(t, `{"title":"`+title+`","description":"Reproducible on every attempt","createdBy":"qa@example.com"}`)
		ids = append(ids, b.ID)
	}

	rec := s.do(t, http.MethodGet, "/api/bugs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[bugListEnvelope](t, rec)

	assert.True(t, env.Success)
	assert.Equal(t, len(ids), env.Count)
	require.Len(t, env.Data, len(ids))
	for i, b := range env.Data {
		assert.Equal(t, ids[len(ids)-1-i], b.ID)
	}
}

func TestListEmpty(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/bugs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"count":0,"data":[]}`, rec.Body.String())
}

func TestInvalidBugID(t *testing.T) {
	s := newTestServer(t, nil)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := s.do(t, method, "/api/bugs/not-an-object-id", "")
		require.Equal(t, http.StatusBadRequest, rec.Code, method)
		assert.Equal(t, "Invalid bug id", decode[handler.ErrorEnvelope](t, rec).Error.Message)
	}

	rec := s.do(t, http.MethodPut, "/api/bugs/123", validBugJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMissingBug(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPut, "/api/bugs/"+primitive.NewObjectID().Hex(), validBugJSON)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateValidationFailure(t *testing.T) {
	s := newTestServer(t, nil)
	created := s.createBug(t, validBugJSON)

	rec := s.do(t, http.MethodPut, "/api/bugs/"+created.ID, `{"title":"abc","description":"short","severity":"urgent"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t,
		"Title must be at least 5 characters, Description must be at least 10 characters, Invalid severity level",
		decode[handler.ErrorEnvelope](t, rec).Error.Message)
}

func TestMalformedJSON(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/bugs", `{"title":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decode[handler.ErrorEnvelope](t, rec).Success)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/api/unknown", "/nope"} {
		rec := s.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		env := decode[handler.ErrorEnvelope](t, rec)
		assert.Equal(t, "Route not found", env.Error.Message)
		assert.Equal(t, http.StatusNotFound, env.Error.Status)
	}
}

func TestTrailingSlash(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/bugs/", "").Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Server is running"}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	ok := newTestServer(t, nil, func(d *Dependencies) {
		d.Readiness = map[string]handler.PingFunc{"mongodb": func(context.Context) error { return nil }}
	})
	assert.Equal(t, http.StatusOK, ok.do(t, http.MethodGet, "/api/health/ready", "").Code)

	down := newTestServer(t, nil, func(d *Dependencies) {
		d.Readiness = map[string]handler.PingFunc{
			"mongodb": func(context.Context) error { return nil },
			"redis":   func(context.Context) error { return pkgerrors.New("connection refused") },
		}
	})
	rec := down.do(t, http.MethodGet, "/api/health/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":{"status":"unhealthy","error":"connection refused"}`)
}

func TestActivityTrail(t *testing.T) {
	s := newTestServer(t, nil)
	created := s.createBug(t, validBugJSON)

	s.do(t, http.MethodPut, "/api/bugs/"+created.ID, `{"title":"Updated Bug Title","description":"This is the updated description for the bug","status":"resolved"}`)
	s.do(t, http.MethodDelete, "/api/bugs/"+created.ID, "")

	rec := s.do(t, http.MethodGet, "/api/bugs/"+created.ID+"/activity", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Count int                   `json:"count"`
		Data  []*domain.BugActivity `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, 3, env.Count)
	assert.Equal(t, domain.ActionDeleted, env.Data[0].Action)
	assert.Equal(t, domain.ActionUpdated, env.Data[1].Action)
	assert.Equal(t, domain.StatusResolved, env.Data[1].Status)
	assert.Equal(t, domain.ActionCreated, env.Data[2].Action)
	assert.Equal(t, "user@example.com", env.Data[2].Actor)
}

func TestIdempotencyKeyReplaysCreate(t *testing.T) {
	s := newTestServer(t, &mapReplays{keys: map[string]string{}})

	first := s.do(t, http.MethodPost, "/api/bugs", validBugJSON, handler.HeaderIdempotencyKey, "abc-123")
	require.Equal(t, http.StatusCreated, first.Code)
	second := s.do(t, http.MethodPost, "/api/bugs", validBugJSON, handler.HeaderIdempotencyKey, "abc-123")
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, decode[bugEnvelope](t, first).Data.ID, decode[bugEnvelope](t, second).Data.ID)

	list := decode[bugListEnvelope](t, s.do(t, http.MethodGet, "/api/bugs", ""))
	assert.Equal(t, 1, list.Count)

	third := s.do(t, http.MethodPost, "/api/bugs", validBugJSON, handler.HeaderIdempotencyKey, "other")
	assert.Equal(t, http.StatusCreated, third.Code)
}

func TestRegisterUser(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/users", `{"email":"test@example.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Missing fields"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/users", `{"name":"x","email":"   ","password":"pw"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Missing fields"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/users", `{"name":"Test","email":"invalid-email","password":"pw"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[handler.ErrorEnvelope](t, rec).Error.Message, "email must be a valid email")

	rec = s.do(t, http.MethodPost, "/api/users", `{"name":"Test","email":"test@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "test@example.com", created.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, http.MethodPost, "/api/users", `{"email":"test@example.com","password":"pw2"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginRouteNeedsSecret(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/api/users/login", `{"email":"a@example.com","password":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequireAuthOnWrites(t *testing.T) {
	s := newTestServer(t, nil, withAuth("test-secret", true))

	rec := s.do(t, http.MethodPost, "/api/bugs", validBugJSON)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	require.Equal(t, http.StatusCreated,
		s.do(t, http.MethodPost, "/api/users", `{"email":"dev@example.com","password":"s3cret"}`).Code)

	rec = s.do(t, http.MethodPost, "/api/users/login", `{"email":"dev@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/users/login", `{"email":"dev@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	rec = s.do(t, http.MethodPost, "/api/bugs",
		`{"title":"Authenticated report","description":"Filed with a bearer token"}`,
		"Authorization", "Bearer "+login.Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "dev@example.com", decode[bugEnvelope](t, rec).Data.CreatedBy)

	// Reads stay public.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/bugs", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.createBug(t, validBugJSON)

	rec := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bugtracker_bugs_created_total")
	assert.Contains(t, rec.Body.String(), "bugtracker_requests_total")
}

func TestSwaggerDoc(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/bugs/{id}"`)
}

type failingBugs struct {
	ports.BugService
}

func (failingBugs) ListBugs(context.Context) ([]*domain.Bug, error) {
	return nil, pkgerrors.New("connection reset by peer")
}

func TestInternalErrorEnvelope(t *testing.T) {
	prod := newTestServer(t, nil, func(d *Dependencies) { d.Bugs = failingBugs{} })
	rec := prod.do(t, http.MethodGet, "/api/bugs", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode[handler.ErrorEnvelope](t, rec)
	assert.Equal(t, "connection reset by peer", env.Error.Message)
	assert.Equal(t, http.StatusInternalServerError, env.Error.Status)
	assert.Empty(t, env.Error.Stack)

	dev := newTestServer(t, nil, func(d *Dependencies) {
		d.Bugs = failingBugs{}
		d.Development = true
	})
	rec = dev.do(t, http.MethodGet, "/api/bugs", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	env = decode[handler.ErrorEnvelope](t, rec)
	assert.Equal(t, "connection reset by peer", env.Error.Message)
	assert.Contains(t, env.Error.Stack, "ListBugs")
}

func TestValidationErrorStackInDevelopment(t *testing.T) {
	prod := newTestServer(t, nil)
	rec := prod.do(t, http.MethodPost, "/api/bugs", `{"description":"no title"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, decode[handler.ErrorEnvelope](t, rec).Error.Stack)

	dev := newTestServer(t, nil, func(d *Dependencies) { d.Development = true })
	rec = dev.do(t, http.MethodPost, "/api/bugs", `{"description":"no title"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[handler.ErrorEnvelope](t, rec)
	assert.Equal(t, http.StatusBadRequest, env.Error.Status)
	assert.Contains(t, env.Error.Stack, "NewHTTPErrorHandler")
}
