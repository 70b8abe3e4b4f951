package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/useradmin/internal/auth"
	"github.com/BradenHooton/useradmin/internal/config"
	"github.com/BradenHooton/useradmin/internal/handlers"
	"github.com/BradenHooton/useradmin/internal/middleware"
	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/repositories"
	"github.com/BradenHooton/useradmin/internal/services"
	pkglogger "github.com/BradenHooton/useradmin/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *chi.Mux
	tokens *auth.TokenManager
	store  *repositories.MemoryUserRepository
	codes  *codeRecorder
}

// codeRecorder keeps the last verification code sent to each address.
type codeRecorder struct {
	codes map[string]string
}

func (c *codeRecorder) SendVerificationCode(ctx context.Context, email, name, code string) error {
	c.codes[email] = code
	return nil
}

func newTestServer(t *testing.T, verifyLimit int) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := repositories.NewMemoryUserRepository()
	codes := &codeRecorder{codes: map[string]string{}}
	userService := services.NewUserService(
		store,
		codes,
		pkglogger.NewAuditLogger(logger),
		config.QueryConfig{DefaultLimit: 10, MaxLimit: 100, MaxPatternLength: 256, Timeout: time.Second},
		logger,
	)
	tokens := auth.NewTokenManager("routes-test-secret-at-least-32-bytes", time.Hour)

	router := chi.NewRouter()
	RegisterRoutes(
		router,
		handlers.NewUserHandler(userService, logger),
		handlers.NewHealthHandler(nil, logger),
		tokens,
		userService.Lookup(),
		RateLimits{
			Admin:  middleware.RateLimitConfig{RequestsPerMinute: 1000},
			Verify: middleware.RateLimitConfig{RequestsPerMinute: verifyLimit},
		},
		logger,
	)

	return &testServer{router: router, tokens: tokens, store: store, codes: codes}
}

func (s *testServer) seed(t *testing.T, username, role string) *models.User {
	t.Helper()
	user, err := s.store.Create(context.Background(), &models.User{
		Username: username,
		Email:    username + "@example.com",
		Name:     strings.ToUpper(username[:1]) + username[1:],
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func (s *testServer) do(t *testing.T, method, target, body string, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, target))
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	srv := newTestServer(t, 5)
	member := srv.seed(t, "member", models.RoleUser)

	w := srv.do(t, http.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodGet, "/api/admin/users", "", member)
	assert.Equal(t, http.StatusForbidden, w.Code)

	ghost := &models.User{ID: "deleted", Email: "ghost@example.com"}
	w = srv.do(t, http.MethodGet, "/api/admin/users", "", ghost)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutes_ListPagesAndFilters(t *testing.T) {
	srv := newTestServer(t, 5)
	admin := srv.seed(t, "root", models.RoleAdmin)
	for i := 1; i <= 24; i++ {
		srv.seed(t, fmt.Sprintf("user%02d", i), models.RoleUser)
	}

	var page handlers.UserPageResponse
	w := srv.do(t, http.MethodGet, "/api/admin/users?page=3&limit=10", "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &page)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 25, page.TotalCount)
	assert.False(t, page.HasNextPage)

	w = srv.do(t, http.MethodGet, "/api/admin/users?filterId=username&filterValue=USER0&sort=username&order=true", "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	page = handlers.UserPageResponse{}
	decodeData(t, w, &page)
	assert.Equal(t, 9, page.TotalCount)
	require.NotEmpty(t, page.Items)
	assert.Equal(t, "user09", page.Items[0].Username)

	w = srv.do(t, http.MethodGet, "/api/admin/users?page=9223372036854775807&limit=10", "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	page = handlers.UserPageResponse{}
	decodeData(t, w, &page)
	assert.Empty(t, page.Items)
	assert.Equal(t, 25, page.TotalCount)

	w = srv.do(t, http.MethodGet, "/api/admin/users?filterId=name&filterValue=(", "", admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutes_CreateEditAndVerify(t *testing.T) {
	srv := newTestServer(t, 5)
	admin := srv.seed(t, "root", models.RoleAdmin)

	w := srv.do(t, http.MethodPost, "/api/admin/users",
		`{"username":"carol","email":"carol@example.com","name":"Carol","walletAddress":"0xc0ffee"}`, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	var created handlers.UserResponse
	decodeData(t, w, &created)
	assert.False(t, created.Verified)

	w = srv.do(t, http.MethodPost, "/api/admin/users",
		`{"username":"carol","email":"other@example.com","name":"Carol"}`, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "username is already in use")

	w = srv.do(t, http.MethodPatch, "/api/admin/users/"+created.ID, `{"walletAddress":"0xbeef"}`, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = srv.do(t, http.MethodPatch, "/api/admin/users/"+created.ID, `{"name":"Carol D"}`, admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/admin/users/"+created.ID, "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched handlers.UserResponse
	decodeData(t, w, &fetched)
	assert.Equal(t, "Carol D", fetched.Name)
	assert.Equal(t, "0xc0ffee", fetched.WalletAddress)

	code := srv.codes.codes["carol@example.com"]
	require.Len(t, code, 6)

	w = srv.do(t, http.MethodPost, "/api/users/verify", `{"email":"carol@example.com","code":"`+code+`"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/admin/users/"+created.ID, "", admin)
	decodeData(t, w, &fetched)
	assert.True(t, fetched.Verified)
}

func TestVerifyRoute_RateLimitedPerIP(t *testing.T) {
	srv := newTestServer(t, 2)

	body := `{"email":"nobody@example.com","code":"123456"}`
	for i := 0; i < 2; i++ {
		w := srv.do(t, http.MethodPost, "/api/users/verify", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := srv.do(t, http.MethodPost, "/api/users/verify", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestHealthRoute(t *testing.T) {
	srv := newTestServer(t, 5)

	w := srv.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
