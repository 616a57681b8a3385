package model

import (
	"errors"
	"time"
)

// Follow is an edge in the social graph: follower follows following.
// Its existence is the sole source of truth for "is following"; the counters
// on User are a derivative that must never diverge from the edge set.
type Follow struct {
	FollowerID  int64     `db:"follower_id" json:"follower_id"`
	FollowingID int64     `db:"following_id" json:"following_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Follow toggle actions.
const (
	ActionFollow   = "follow"
	ActionUnfollow = "unfollow"
)

// FollowToggleRequest is the request body for the follow toggle endpoint.
type FollowToggleRequest struct {
	TargetUserID int64  `json:"target_user_id" validate:"required,gt=0"`
	Action       string `json:"action" validate:"required,oneof=follow unfollow"`
}

// FollowToggleResult is the outcome of a committed follow toggle.
type FollowToggleResult struct {
	IsFollowing bool
}

// CheckFollowRequest is the request body for the follow status endpoint.
type CheckFollowRequest struct {
	TargetUserID int64 `json:"target_user_id" validate:"required,gt=0"`
}

var (
	// Re-follow is an error, not an idempotent success: a client asking to
	// follow someone it already follows has stale state worth surfacing.
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
	ErrInvalidAction    = errors.New("action must be follow or unfollow")
)
