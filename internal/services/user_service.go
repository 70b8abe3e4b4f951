package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/BradenHooton/useradmin/internal/config"
	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/query"
	pkgauth "github.com/BradenHooton/useradmin/pkg/auth"
	"github.com/BradenHooton/useradmin/pkg/logger"
)

// UserStore defines the interface for user data access
type UserStore interface {
	UserReader
	Find(ctx context.Context, pred query.Predicate, sort query.SortSpec, skip, limit int) ([]*models.User, int, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	MarkVerified(ctx context.Context, id string) error
}

// NewUser is the input to CreateUser.
type NewUser struct {
	Username      string
	Email         string
	Name          string
	WalletAddress string
	Role          string
}

// UserService handles user business logic
type UserService struct {
	store  UserStore
	lookup *UserLookup
	email  EmailService
	audit  *logger.AuditLogger
	query  config.QueryConfig
	logger *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(store UserStore, email EmailService, audit *logger.AuditLogger, queryCfg config.QueryConfig, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		lookup: NewUserLookup(store),
		email:  email,
		audit:  audit,
		query:  queryCfg,
		logger: logger,
	}
}

// Lookup exposes the single-user lookups.
func (s *UserService) Lookup() *UserLookup {
	return s.lookup
}

// ListUsers returns one page of users matching filter in sort order. The
// store is asked once for both the window and the total; failures are not
// retried.
func (s *UserService) ListUsers(ctx context.Context, req query.PageRequest, sortSpec query.SortSpec, filter query.FilterSpec) (*query.PageResult[*models.User], error) {
	req = query.NewPageRequest(req.Page, req.Limit, s.query.DefaultLimit, s.query.MaxLimit)

	pred := query.Build(filter)
	if err := pred.Validate(s.query.MaxPatternLength); err != nil {
		s.logger.Info("rejected user list filter", slog.Any("error", err))
		return nil, err
	}

	if s.query.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.query.Timeout)
		defer cancel()
	}

	items, total, err := s.store.Find(ctx, pred, sortSpec, req.Skip(), req.Limit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, models.ErrStorageUnavailable) {
			err = fmt.Errorf("%w: %v", models.ErrStorageUnavailable, ctxErr)
		}
		s.logger.Error("failed to list users",
			slog.Int("page", req.Page),
			slog.Int("limit", req.Limit),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return query.NewPageResult(req, items, total), nil
}

// GetUser retrieves a full user record by ID
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, ok, err := s.lookup.ByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, err
	}
	if !ok {
		s.logger.Info("user not found", slog.String("user_id", id))
		return nil, models.ErrNotFound
	}
	return user, nil
}

// CreateUser creates a user and sends it a verification code. Delivery of
// the code is best effort.
func (s *UserService) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.WalletAddress = strings.TrimSpace(in.WalletAddress)

	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if err := validateNewUser(in); err != nil {
		return nil, err
	}

	if err := s.checkUnique(ctx, "", in.Username, in.Email, in.WalletAddress); err != nil {
		return nil, err
	}

	code, hash, err := newVerificationCode()
	if err != nil {
		s.logger.Error("failed to generate verification code", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.store.Create(ctx, &models.User{
		Username:      in.Username,
		Email:         in.Email,
		Name:          in.Name,
		WalletAddress: in.WalletAddress,
		Role:          in.Role,
		Verification:  hash,
	})
	if err != nil {
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.email.SendVerificationCode(ctx, created.Email, created.Name, code); err != nil {
		s.logger.Warn("verification code not delivered",
			slog.String("user_id", created.ID),
			slog.Any("error", err))
	}

	s.audit.Log(ctx, logger.AuditEvent{
		EventType: logger.EventUserCreated,
		UserID:    created.ID,
		Success:   true,
		Metadata:  map[string]string{"role": created.Role},
	})
	s.logger.Info("user created", slog.String("user_id", created.ID))

	return created, nil
}

// UpdateUser applies patch to the user with the given id. A wallet address
// can be set once; changing it afterwards fails with ImmutableFieldError.
func (s *UserService) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	existing, ok, err := s.lookup.ByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, err
	}
	if !ok {
		s.logger.Info("user not found", slog.String("user_id", id))
		return nil, models.ErrNotFound
	}

	patch = trimPatch(patch)

	if patch.WalletAddress != nil {
		switch {
		case existing.WalletAddress == "" && *patch.WalletAddress == "":
			patch.WalletAddress = nil
		case existing.WalletAddress == "":
		case *patch.WalletAddress == existing.WalletAddress:
			patch.WalletAddress = nil
		default:
			return nil, &models.ImmutableFieldError{Field: "walletAddress"}
		}
	}
	if patch.IsEmpty() {
		return existing, nil
	}

	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	changed := changedFields(existing, patch)
	if len(changed) == 0 {
		return existing, nil
	}

	var username, email, wallet string
	if patch.Username != nil && *patch.Username != existing.Username {
		username = *patch.Username
	}
	if patch.Email != nil && *patch.Email != existing.Email {
		email = *patch.Email
	}
	if patch.WalletAddress != nil {
		wallet = *patch.WalletAddress
	}
	if err := s.checkUnique(ctx, id, username, email, wallet); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update user", slog.String("user_id", id), slog.Any("error", err))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.audit.Log(ctx, logger.AuditEvent{
		EventType: logger.EventUserUpdated,
		UserID:    id,
		Success:   true,
		Metadata:  map[string]string{"fields": strings.Join(changed, ",")},
	})
	s.logger.Info("user updated", slog.String("user_id", id))

	return updated, nil
}

// VerifyUser checks code against the pending verification of the user with
// the given email and marks the user verified. Verifying an already
// verified user succeeds.
func (s *UserService) VerifyUser(ctx context.Context, email, code string) error {
	user, ok, err := s.lookup.ByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		s.logger.Error("failed to look up user for verification", slog.Any("error", err))
		return err
	}
	if !ok {
		s.failVerification(ctx, "", "unknown email")
		return models.ErrInvalidVerification
	}
	if user.Verified {
		return nil
	}
	if user.Verification == "" {
		s.failVerification(ctx, user.ID, "no pending verification")
		return models.ErrInvalidVerification
	}

	if err := pkgauth.CompareCode(user.Verification, code); err != nil {
		s.failVerification(ctx, user.ID, "code mismatch")
		return models.ErrInvalidVerification
	}

	if err := s.store.MarkVerified(ctx, user.ID); err != nil {
		s.logger.Error("failed to mark user verified", slog.String("user_id", user.ID), slog.Any("error", err))
		return fmt.Errorf("failed to verify user: %w", err)
	}

	s.audit.Log(ctx, logger.AuditEvent{
		EventType: logger.EventUserVerified,
		UserID:    user.ID,
		ActorID:   user.ID,
		Success:   true,
	})
	return nil
}

func (s *UserService) failVerification(ctx context.Context, userID, reason string) {
	s.audit.Log(ctx, logger.AuditEvent{
		EventType:     logger.EventVerificationFailed,
		UserID:        userID,
		Success:       false,
		FailureReason: reason,
	})
}

// checkUnique reports a ConflictError for the first of username, email or
// wallet that already belongs to a user other than selfID. Empty values are
// not checked.
func (s *UserService) checkUnique(ctx context.Context, selfID, username, email, wallet string) error {
	checks := []struct {
		field string
		value string
		find  func(context.Context, string) (*models.User, bool, error)
	}{
		{"username", username, s.lookup.ByUsername},
		{"email", email, s.lookup.ByEmail},
		{"walletAddress", wallet, s.lookup.ByWalletAddress},
	}

	for _, c := range checks {
		if c.value == "" {
			continue
		}
		other, ok, err := c.find(ctx, c.value)
		if err != nil {
			s.logger.Error("uniqueness check failed", slog.String("field", c.field), slog.Any("error", err))
			return err
		}
		if ok && other.ID != selfID {
			s.logger.Info("user field already in use", slog.String("field", c.field))
			return &models.ConflictError{Field: c.field}
		}
	}
	return nil
}

func validateNewUser(in NewUser) error {
	var missing []string
	if in.Username == "" {
		missing = append(missing, "username")
	}
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.Name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", models.ErrValidation, strings.Join(missing, ", "))
	}
	return validateRole(in.Role)
}

func validatePatch(p models.UserPatch) error {
	required := []struct {
		field string
		value *string
	}{
		{"username", p.Username},
		{"email", p.Email},
		{"name", p.Name},
	}
	for _, r := range required {
		if r.value != nil && *r.value == "" {
			return fmt.Errorf("%w: %s cannot be empty", models.ErrValidation, r.field)
		}
	}
	if p.Role != nil {
		return validateRole(*p.Role)
	}
	return nil
}

func validateRole(role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return fmt.Errorf("%w: role must be %q or %q", models.ErrValidation, models.RoleUser, models.RoleAdmin)
	}
	return nil
}

func trimPatch(p models.UserPatch) models.UserPatch {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	return models.UserPatch{
		Username:      trim(p.Username),
		Email:         trim(p.Email),
		Name:          trim(p.Name),
		WalletAddress: trim(p.WalletAddress),
		Role:          trim(p.Role),
	}
}

// changedFields lists the fields patch would change on u, sorted.
func changedFields(u *models.User, p models.UserPatch) []string {
	var changed []string
	diff := func(field string, v *string, current string) {
		if v != nil && *v != current {
			changed = append(changed, field)
		}
	}
	diff("username", p.Username, u.Username)
	diff("email", p.Email, u.Email)
	diff("name", p.Name, u.Name)
	diff("walletAddress", p.WalletAddress, u.WalletAddress)
	diff("role", p.Role, u.Role)

	sort.Strings(changed)
	return changed
}

// newVerificationCode returns a random code and its hash.
func newVerificationCode() (code, hash string, err error) {
	code, err = pkgauth.GenerateCode()
	if err != nil {
		return "", "", err
	}
	hash, err = pkgauth.HashCode(code)
	if err != nil {
		return "", "", err
	}
	return code, hash, nil
}
