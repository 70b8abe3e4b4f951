package services

import (
	"context"
	"time"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/query"
)

// MockUserStore implements UserStore for testing
type MockUserStore struct {
	FindFunc               func(ctx context.Context, pred query.Predicate, sort query.SortSpec, skip, limit int) ([]*models.User, int, error)
	GetByIDFunc            func(ctx context.Context, id string) (*models.User, error)
	GetByUsernameFunc      func(ctx context.Context, username string) (*models.User, error)
	GetByEmailFunc         func(ctx context.Context, email string) (*models.User, error)
	GetByWalletAddressFunc func(ctx context.Context, walletAddress string) (*models.User, error)
	CreateFunc             func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc             func(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	MarkVerifiedFunc       func(ctx context.Context, id string) error
}

func (m *MockUserStore) Find(ctx context.Context, pred query.Predicate, sort query.SortSpec, skip, limit int) ([]*models.User, int, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, pred, sort, skip, limit)
	}
	return []*models.User{}, 0, nil
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) GetByWalletAddress(ctx context.Context, walletAddress string) (*models.User, error) {
	if m.GetByWalletAddressFunc != nil {
		return m.GetByWalletAddressFunc(ctx, walletAddress)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	created := *user
	created.ID = "user_new"
	return &created, nil
}

func (m *MockUserStore) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserStore) MarkVerified(ctx context.Context, id string) error {
	if m.MarkVerifiedFunc != nil {
		return m.MarkVerifiedFunc(ctx, id)
	}
	return nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendVerificationCodeFunc func(ctx context.Context, email, name, code string) error
}

func (m *MockEmailService) SendVerificationCode(ctx context.Context, email, name, code string) error {
	if m.SendVerificationCodeFunc != nil {
		return m.SendVerificationCodeFunc(ctx, email, name, code)
	}
	return nil
}

// NewTestUser builds a verified user with the given identity
func NewTestUser(id, username, email, name string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:        id,
		Username:  username,
		Email:     email,
		Name:      name,
		Role:      models.RoleUser,
		Verified:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestUserWithWallet builds a test user that already has a wallet address
func NewTestUserWithWallet(id, username, email, name, wallet string) *models.User {
	user := NewTestUser(id, username, email, name)
	user.WalletAddress = wallet
	return user
}
