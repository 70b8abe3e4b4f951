package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BradenHooton/useradmin/internal/auth"
	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/query"
	"github.com/BradenHooton/useradmin/internal/services"
	pkghttp "github.com/BradenHooton/useradmin/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body), "failed to encode request body")
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAdminContext adds admin claims to the request context
func WithAdminContext(req *http.Request, userID, email string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Type:   auth.TokenTypeAccess,
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// WithChiRouteContext sets chi URL parameters on the request
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// WithChiIDFromURL uses the last path segment as the "id" route parameter,
// so /admin/users/user123 yields id=user123.
func WithChiIDFromURL(r *http.Request) *http.Request {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 {
		return r
	}
	return WithChiRouteContext(r, map[string]string{"id": parts[len(parts)-1]})
}

// DecodeEnvelope decodes a response body, unmarshaling its data into data
// when data is not nil.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data any) pkghttp.Envelope {
	t.Helper()
	var raw struct {
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
		Message pkghttp.Message `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw), "failed to decode response JSON")
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data), "failed to decode response data")
	}
	return pkghttp.Envelope{Data: data, Error: raw.Error, Message: raw.Message}
}

// AssertJSONResponse checks that response has correct status and decodes its data
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) pkghttp.Envelope {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")
	return DecodeEnvelope(t, w, target)
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.Envelope {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	env := DecodeEnvelope(t, w, nil)
	assert.Equal(t, expectedError, env.Error, "Error code mismatch")
	assert.NotEmpty(t, env.Message, "Error message should not be empty")
	return env
}

// MockUserService implements UserService for testing
type MockUserService struct {
	ListUsersFunc  func(ctx context.Context, req query.PageRequest, sort query.SortSpec, filter query.FilterSpec) (*query.PageResult[*models.User], error)
	GetUserFunc    func(ctx context.Context, id string) (*models.User, error)
	CreateUserFunc func(ctx context.Context, in services.NewUser) (*models.User, error)
	UpdateUserFunc func(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	VerifyUserFunc func(ctx context.Context, email, code string) error
}

func (m *MockUserService) ListUsers(ctx context.Context, req query.PageRequest, sort query.SortSpec, filter query.FilterSpec) (*query.PageResult[*models.User], error) {
	if m.ListUsersFunc == nil {
		return query.NewPageResult[*models.User](query.NewPageRequest(req.Page, req.Limit, 0, 0), nil, 0), nil
	}
	return m.ListUsersFunc(ctx, req, sort, filter)
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetUserFunc(ctx, id)
}

func (m *MockUserService) CreateUser(ctx context.Context, in services.NewUser) (*models.User, error) {
	if m.CreateUserFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateUserFunc(ctx, in)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if m.UpdateUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateUserFunc(ctx, id, patch)
}

func (m *MockUserService) VerifyUser(ctx context.Context, email, code string) error {
	if m.VerifyUserFunc == nil {
		return models.ErrInvalidVerification
	}
	return m.VerifyUserFunc(ctx, email, code)
}

// MockPinger implements Pinger for testing
type MockPinger struct {
	Err error
}

func (m *MockPinger) HealthCheck(ctx context.Context) error {
	return m.Err
}
