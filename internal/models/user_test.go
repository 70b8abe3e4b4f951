package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestUserPatch_IsEmpty(t *testing.T) {
	assert.True(t, UserPatch{}.IsEmpty())
	assert.False(t, UserPatch{Name: strPtr("Alice")}.IsEmpty())
}

func TestUserPatch_Apply(t *testing.T) {
	u := &User{Username: "alice", Name: "Alice", Role: RoleUser}

	UserPatch{Name: strPtr("Alice B"), Role: strPtr(RoleAdmin)}.Apply(u)

	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "Alice B", u.Name)
	assert.Equal(t, RoleAdmin, u.Role)
}

func TestUserPatch_Apply_WalletWriteOnce(t *testing.T) {
	u := &User{}
	UserPatch{WalletAddress: strPtr("0xabc")}.Apply(u)
	assert.Equal(t, "0xabc", u.WalletAddress)

	UserPatch{WalletAddress: strPtr("0xdef")}.Apply(u)
	assert.Equal(t, "0xabc", u.WalletAddress)
}

func TestErrors_Unwrap(t *testing.T) {
	assert.True(t, errors.Is(ErrInvalidPattern, ErrValidation))
	assert.True(t, errors.Is(&ConflictError{Field: "email"}, ErrConflict))
	assert.True(t, errors.Is(&ImmutableFieldError{Field: "walletAddress"}, ErrImmutableField))

	assert.Equal(t, "email is already in use", (&ConflictError{Field: "email"}).Error())
	assert.Equal(t, "walletAddress cannot be changed", (&ImmutableFieldError{Field: "walletAddress"}).Error())
}
