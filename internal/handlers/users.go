package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/query"
	"github.com/BradenHooton/useradmin/internal/services"
	pkghttp "github.com/BradenHooton/useradmin/pkg/http"
	"github.com/go-chi/chi/v5"
)

// Query parameters of the list endpoint. Each may repeat.
const (
	paramPage        = "page"
	paramLimit       = "limit"
	paramSort        = "sort"
	paramOrder       = "order"
	paramFilterID    = "filterId"
	paramFilterValue = "filterValue"
)

const maxBodyBytes = 1 << 20

// UserService defines the interface for user business logic
type UserService interface {
	ListUsers(ctx context.Context, req query.PageRequest, sort query.SortSpec, filter query.FilterSpec) (*query.PageResult[*models.User], error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, in services.NewUser) (*models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	VerifyUser(ctx context.Context, email, code string) error
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// Request/Response DTOs

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Username      string `json:"username" validate:"required,max=64"`
	Email         string `json:"email" validate:"required,email,max=254"`
	Name          string `json:"name" validate:"required,max=128"`
	WalletAddress string `json:"walletAddress" validate:"omitempty,max=128"`
	Role          string `json:"role" validate:"omitempty,oneof=user admin"`
}

// UpdateUserRequest represents the request body for editing a user. Absent
// fields are left unchanged.
type UpdateUserRequest struct {
	Username      *string `json:"username" validate:"omitempty,min=1,max=64"`
	Email         *string `json:"email" validate:"omitempty,email,max=254"`
	Name          *string `json:"name" validate:"omitempty,min=1,max=128"`
	WalletAddress *string `json:"walletAddress" validate:"omitempty,max=128"`
	Role          *string `json:"role" validate:"omitempty,oneof=user admin"`
}

// VerifyUserRequest represents the request body for verifying an account
type VerifyUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// UserResponse represents a user in the HTTP response. The verification
// hash is never exposed.
type UserResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	WalletAddress string    `json:"walletAddress,omitempty"`
	Role          string    `json:"role"`
	Verified      bool      `json:"verified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// UserPageResponse is one page of users
type UserPageResponse struct {
	Items       []*UserResponse `json:"items"`
	TotalCount  int             `json:"totalCount"`
	Page        int             `json:"page"`
	Limit       int             `json:"limit"`
	TotalPages  int             `json:"totalPages"`
	HasNextPage bool            `json:"hasNextPage"`
	HasPrevPage bool            `json:"hasPrevPage"`
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		Name:          user.Name,
		WalletAddress: user.WalletAddress,
		Role:          user.Role,
		Verified:      user.Verified,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

func pageToResponse(page *query.PageResult[*models.User]) *UserPageResponse {
	resp := &UserPageResponse{
		Items:       make([]*UserResponse, len(page.Items)),
		TotalCount:  page.TotalCount,
		Page:        page.Page,
		Limit:       page.Limit,
		TotalPages:  page.TotalPages(),
		HasNextPage: page.HasNextPage(),
		HasPrevPage: page.HasPrevPage(),
	}
	for i, user := range page.Items {
		resp.Items[i] = userModelToResponse(user)
	}
	return resp
}

func emptyPage(req query.PageRequest) *UserPageResponse {
	return pageToResponse(query.NewPageResult[*models.User](req, nil, 0))
}

// ListUsers returns one page of users
//
// @Summary List users
// @Param page query int false "Page, one-based (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Param sort query []string false "Sort field, repeatable"
// @Param order query []string false "\"true\" for descending, aligned with sort"
// @Param filterId query []string false "Filter field, repeatable"
// @Param filterValue query []string false "Case-insensitive pattern, aligned with filterId"
// @Produce json
// @Success 200 {object} UserPageResponse
// @Failure 400 {object} pkghttp.Envelope
// @Failure 503 {object} pkghttp.Envelope
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	page, err := parsePositiveInt(params.Get(paramPage))
	if err != nil {
		pkghttp.WriteBadRequest(w, "page must be a positive integer")
		return
	}
	limit, err := parsePositiveInt(params.Get(paramLimit))
	if err != nil {
		pkghttp.WriteBadRequest(w, "limit must be a positive integer")
		return
	}
	req := query.PageRequest{Page: page, Limit: limit}

	sort, filter := query.Normalize(
		query.ValuesFromQuery(params[paramSort]),
		query.ValuesFromQuery(params[paramOrder]),
		query.ValuesFromQuery(params[paramFilterID]),
		query.ValuesFromQuery(params[paramFilterValue]),
	)

	result, err := h.service.ListUsers(r.Context(), req, sort, filter)
	if err != nil {
		req = query.NewPageRequest(req.Page, req.Limit, 0, 0)
		switch {
		case errors.Is(err, models.ErrValidation):
			pkghttp.WriteErrorWithData(w, http.StatusBadRequest, "invalid_filter", emptyPage(req), err.Error())
		case errors.Is(err, models.ErrStorageUnavailable):
			pkghttp.WriteErrorWithData(w, http.StatusServiceUnavailable, "storage_unavailable", emptyPage(req), "user storage is unavailable, try again later")
		default:
			h.logger.Error("list users failed", slog.Any("error", err))
			pkghttp.WriteErrorWithData(w, http.StatusInternalServerError, "internal_error", emptyPage(req), "failed to list users")
		}
		return
	}

	pkghttp.WriteData(w, http.StatusOK, pageToResponse(result), "")
}

// GetUser retrieves a user by ID
//
// @Summary Get user by ID
// @Param id path string true "User ID"
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 404 {object} pkghttp.Envelope
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "user ID is required")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteData(w, http.StatusOK, userModelToResponse(user), "")
}

// CreateUser creates a new user
//
// @Summary Create a new user
// @Accept json
// @Param request body CreateUserRequest true "Create user request"
// @Produce json
// @Success 201 {object} UserResponse
// @Failure 400 {object} pkghttp.Envelope
// @Failure 409 {object} pkghttp.Envelope
// @Router /admin/users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), services.NewUser{
		Username:      req.Username,
		Email:         req.Email,
		Name:          req.Name,
		WalletAddress: req.WalletAddress,
		Role:          req.Role,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteData(w, http.StatusCreated, userModelToResponse(user), "User created")
}

// UpdateUser edits an existing user
//
// @Summary Edit a user
// @Param id path string true "User ID"
// @Accept json
// @Param request body UpdateUserRequest true "Fields to change"
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 400 {object} pkghttp.Envelope
// @Failure 404 {object} pkghttp.Envelope
// @Failure 409 {object} pkghttp.Envelope
// @Failure 422 {object} pkghttp.Envelope
// @Router /admin/users/{id} [patch]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "user ID is required")
		return
	}

	var req UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), userID, models.UserPatch{
		Username:      req.Username,
		Email:         req.Email,
		Name:          req.Name,
		WalletAddress: req.WalletAddress,
		Role:          req.Role,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteData(w, http.StatusOK, userModelToResponse(user), "User updated")
}

// VerifyUser confirms an account with the code sent at creation
//
// @Summary Verify an account
// @Accept json
// @Param request body VerifyUserRequest true "Email and code"
// @Produce json
// @Success 200 {object} pkghttp.Envelope
// @Failure 400 {object} pkghttp.Envelope
// @Router /users/verify [post]
func (h *UserHandler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	var req VerifyUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.VerifyUser(r.Context(), req.Email, req.Code); err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteData(w, http.StatusOK, nil, "Account verified")
}

// writeServiceError maps service errors onto responses. Conflict and
// immutability messages are passed through verbatim.
func (h *UserHandler) writeServiceError(w http.ResponseWriter, err error) {
	var conflict *models.ConflictError
	var immutable *models.ImmutableFieldError

	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "user not found")
	case errors.As(err, &conflict):
		pkghttp.WriteConflict(w, conflict.Error())
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "user already exists")
	case errors.As(err, &immutable):
		pkghttp.WriteUnprocessable(w, immutable.Error())
	case errors.Is(err, models.ErrInvalidVerification):
		pkghttp.WriteError(w, http.StatusBadRequest, "invalid_verification", "invalid email or verification code")
	case errors.Is(err, models.ErrValidation):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrStorageUnavailable):
		pkghttp.WriteServiceUnavailable(w, "user storage is unavailable, try again later")
	default:
		h.logger.Error("request failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "internal server error")
	}
}

// decodeAndValidate reads a JSON body into dst and validates it, writing a
// 400 response and returning false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return false
	}

	if messages := ValidateRequest(dst); len(messages) > 0 {
		pkghttp.WriteBadRequest(w, messages...)
		return false
	}
	return true
}

// parsePositiveInt parses an optional query integer. Empty yields 0, which
// the service replaces with its default.
func parsePositiveInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, errors.New("not a positive integer")
	}
	return n, nil
}
