package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLookup_ByID_FullRecord(t *testing.T) {
	user := NewTestUserWithWallet("u1", "alice", "a@x.com", "Alice", "0xabc")
	store := &MockUserStore{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			assert.Equal(t, "u1", id)
			return user, nil
		},
	}

	got, ok, err := NewUserLookup(store).ByID(context.Background(), "u1")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", got.Username)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUserLookup_ByUsername_FullRecord(t *testing.T) {
	store := &MockUserStore{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return NewTestUser("u1", username, "a@x.com", "Alice"), nil
		},
	}

	got, ok, err := NewUserLookup(store).ByUsername(context.Background(), "alice")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", got.Username)
}

func TestUserLookup_ByEmail_NeverExposesUsername(t *testing.T) {
	// Even a store that returns the full row gets projected
	store := &MockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			u := NewTestUserWithWallet("u1", "alice", email, "Alice", "0xabc")
			u.Verification = "hash"
			return u, nil
		},
	}

	got, ok, err := NewUserLookup(store).ByEmail(context.Background(), "a@x.com")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got.Username)
	assert.True(t, got.CreatedAt.IsZero())
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.True(t, got.Verified)
	assert.Equal(t, "hash", got.Verification)
	assert.Equal(t, "0xabc", got.WalletAddress)
}

func TestUserLookup_ByWalletAddress_Projection(t *testing.T) {
	store := &MockUserStore{
		GetByWalletAddressFunc: func(ctx context.Context, wallet string) (*models.User, error) {
			return NewTestUserWithWallet("u1", "alice", "a@x.com", "Alice", wallet), nil
		},
	}

	got, ok, err := NewUserLookup(store).ByWalletAddress(context.Background(), "0xabc")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got.Username)
	assert.Equal(t, "0xabc", got.WalletAddress)
}

func TestUserLookup_ByWalletAddress_EmptySkipsStore(t *testing.T) {
	called := false
	store := &MockUserStore{
		GetByWalletAddressFunc: func(ctx context.Context, wallet string) (*models.User, error) {
			called = true
			return nil, nil
		},
	}

	got, ok, err := NewUserLookup(store).ByWalletAddress(context.Background(), "")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.False(t, called)
}

func TestUserLookup_NotFoundIsNotAnError(t *testing.T) {
	lookup := NewUserLookup(&MockUserStore{})
	ctx := context.Background()

	for name, fn := range map[string]func(context.Context, string) (*models.User, bool, error){
		"id":       lookup.ByID,
		"username": lookup.ByUsername,
		"email":    lookup.ByEmail,
		"wallet":   lookup.ByWalletAddress,
	} {
		got, ok, err := fn(ctx, "missing")

		assert.NoError(t, err, name)
		assert.False(t, ok, name)
		assert.Nil(t, got, name)
	}
}

func TestUserLookup_StoreFailurePropagates(t *testing.T) {
	store := &MockUserStore{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, models.ErrStorageUnavailable
		},
	}

	got, ok, err := NewUserLookup(store).ByID(context.Background(), "u1")

	assert.True(t, errors.Is(err, models.ErrStorageUnavailable))
	assert.False(t, ok)
	assert.Nil(t, got)
}
