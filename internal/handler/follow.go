package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"promptgram/internal/httputil"
	"promptgram/internal/model"
	"promptgram/internal/service"
	"promptgram/internal/transport/http/middleware"
)

type FollowHandler struct {
	followService *service.FollowService
}

func NewFollowHandler(followService *service.FollowService) *FollowHandler {
	return &FollowHandler{
		followService: followService,
	}
}

// Toggle handles POST /follows/toggle: apply a follow or unfollow and report
// the resulting edge state.
func (h *FollowHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.FollowToggleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.followService.Toggle(r.Context(), actorID, req.TargetUserID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidAction):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrCannotFollowSelf):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrAlreadyFollowing):
			httputil.WriteConflict(w, err.Error())
		case errors.Is(err, model.ErrNotFollowing):
			httputil.WriteConflict(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[ERROR] Follow toggle handler: %v", err)
			httputil.WriteInternalError(w, "Failed to toggle follow")
		}
		return
	}

	message := "Successfully followed user"
	if !result.IsFollowing {
		message = "Successfully unfollowed user"
	}

	httputil.WriteSuccess(w, http.StatusOK, message, httputil.Envelope{
		"is_following": result.IsFollowing,
	})
}

// Check handles POST /follows/check: report whether the caller follows the
// target. Always answered from the store, never the cache.
func (h *FollowHandler) Check(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CheckFollowRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	isFollowing, err := h.followService.IsFollowing(r.Context(), actorID, req.TargetUserID)
	if err != nil {
		log.Printf("[ERROR] Check follow handler: %v", err)
		httputil.WriteInternalError(w, "Failed to check follow status")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Follow status retrieved", httputil.Envelope{
		"is_following": isFollowing,
	})
}

// GetFollowers handles GET /users/{id}/followers.
func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	followers, err := h.followService.GetFollowers(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] GetFollowers handler: %v", err)
		httputil.WriteInternalError(w, "Failed to fetch followers")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Followers retrieved", httputil.Envelope{
		"followers": followers,
	})
}

// GetFollowing handles GET /users/{id}/following.
func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	following, err := h.followService.GetFollowing(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] GetFollowing handler: %v", err)
		httputil.WriteInternalError(w, "Failed to fetch following")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Following retrieved", httputil.Envelope{
		"following": following,
	})
}

func parseUserIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
