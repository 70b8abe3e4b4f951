package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID            string
	Username      string
	Email         string
	Name          string
	WalletAddress string // write-once: empty until first set
	Role          string // "user" or "admin"
	Verified      bool
	Verification  string // bcrypt hash of the pending verification code
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserPatch carries an edit. Nil fields are left unchanged.
type UserPatch struct {
	Username      *string
	Email         *string
	Name          *string
	WalletAddress *string
	Role          *string
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.Name == nil &&
		p.WalletAddress == nil && p.Role == nil
}

// Apply copies the non-nil fields of the patch onto u.
func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.WalletAddress != nil && u.WalletAddress == "" {
		u.WalletAddress = *p.WalletAddress
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
}
