package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/BradenHooton/useradmin/internal/models"
)

// UserReader is the read side of the user store.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByWalletAddress(ctx context.Context, walletAddress string) (*models.User, error)
}

// UserLookup resolves single users by a unique key. A missing user is
// reported as found == false with a nil error.
//
// ByID and ByUsername return the full record. ByEmail and ByWalletAddress
// return the contact projection: id, name, email, role, verified,
// verification and walletAddress. Username is never set on a projection.
type UserLookup struct {
	store UserReader
}

func NewUserLookup(store UserReader) *UserLookup {
	return &UserLookup{store: store}
}

func (l *UserLookup) ByID(ctx context.Context, id string) (*models.User, bool, error) {
	return found(l.store.GetByID(ctx, id))
}

func (l *UserLookup) ByUsername(ctx context.Context, username string) (*models.User, bool, error) {
	return found(l.store.GetByUsername(ctx, username))
}

func (l *UserLookup) ByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	u, ok, err := found(l.store.GetByEmail(ctx, email))
	return project(u), ok, err
}

func (l *UserLookup) ByWalletAddress(ctx context.Context, walletAddress string) (*models.User, bool, error) {
	if walletAddress == "" {
		return nil, false, nil
	}
	u, ok, err := found(l.store.GetByWalletAddress(ctx, walletAddress))
	return project(u), ok, err
}

func found(u *models.User, err error) (*models.User, bool, error) {
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("user lookup failed: %w", err)
	}
	if u == nil {
		return nil, false, nil
	}
	return u, true, nil
}

// project trims u to the contact projection whatever the store returned.
func project(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	return &models.User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		Verified:      u.Verified,
		Verification:  u.Verification,
		WalletAddress: u.WalletAddress,
	}
}
