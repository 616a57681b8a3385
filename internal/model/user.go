package model

import (
	"errors"
	"time"
)

// User represents a user in the system. PasswordHashed is empty for
// OAuth-only accounts. FollowerCount and FollowingCount are denormalized
// counters kept in lockstep with the follows table; they are mutated only
// inside follow-toggle transactions.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	Name           string    `db:"name" json:"name"`
	Avatar         *string   `db:"avatar" json:"avatar"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	FollowerCount  int       `db:"follower_count" json:"follower_count"`
	FollowingCount int       `db:"following_count" json:"following_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the creator projection embedded in gallery items.
type UserSummary struct {
	ID     int64   `db:"id" json:"id"`
	Name   string  `db:"name" json:"name"`
	Avatar *string `db:"avatar" json:"avatar"`
}

// PublicUser is the projection served to other users: no email, no
// timestamps beyond account age.
type PublicUser struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Avatar         *string   `json:"avatar"`
	FollowerCount  int       `json:"follower_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Public returns the projection safe to serve to anyone.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:             u.ID,
		Name:           u.Name,
		Avatar:         u.Avatar,
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
		CreatedAt:      u.CreatedAt,
	}
}

// SignupRequest represents the data needed to create a new account.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the data needed to log in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest carries a password rotation.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// DeleteAccountRequest re-verifies the password before the account is
// removed.
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// ProfileResponse is the profile read: the user plus their generated images.
type ProfileResponse struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	Avatar          *string        `json:"avatar"`
	CreatedAt       time.Time      `json:"created_at"`
	GeneratedImages []ImageSummary `json:"generated_images"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to sign up with a taken email
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPasswordAuthUnavailable is returned for OAuth-only accounts that
	// have no stored password to verify against.
	ErrPasswordAuthUnavailable = errors.New("password authentication not available for this account")
)
