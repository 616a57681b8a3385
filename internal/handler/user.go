package handler

import (
	"errors"
	"log"
	"net/http"

	"promptgram/internal/httputil"
	"promptgram/internal/model"
	"promptgram/internal/service"
	"promptgram/internal/transport/http/middleware"
)

// UserHandler serves profile and identity reads plus avatar management.
type UserHandler struct {
	userService     *service.UserService
	identityService *service.IdentityService
	mediaService    *service.MediaService
}

func NewUserHandler(
	userService *service.UserService,
	identityService *service.IdentityService,
	mediaService *service.MediaService,
) *UserHandler {
	return &UserHandler{
		userService:     userService,
		identityService: identityService,
		mediaService:    mediaService,
	}
}

// Me handles GET /users/me: resolve the authenticated user through the
// identity cache.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.identityService.ResolveByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] Me handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load user")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "User retrieved", httputil.Envelope{
		"user": user,
	})
}

// GetUser handles GET /users/{id}: public identity read through the cache.
// Serves the public projection; emails never leave the account's own routes.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	user, err := h.identityService.ResolveByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] GetUser handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load user")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "User retrieved", httputil.Envelope{
		"user": user.Public(),
	})
}

// Profile handles GET /me/profile: the authenticated user's own identity
// plus their generated images.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.userService.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] Profile handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load profile")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Profile retrieved", httputil.Envelope{
		"profile": profile,
	})
}

// UploadAvatar handles POST /users/me/avatar: multipart upload, resize,
// store, and swap the user's avatar. The previous avatar object is reaped
// after a successful swap.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 5MB limit")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "Avatar file is required")
		return
	}
	defer file.Close()

	previous, err := h.identityService.ResolveByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] UploadAvatar handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load user")
		return
	}

	upload, err := h.mediaService.UploadAvatar(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 5MB limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		default:
			log.Printf("[ERROR] UploadAvatar handler: %v", err)
			httputil.WriteInternalError(w, "Failed to upload avatar")
		}
		return
	}

	if err := h.userService.UpdateAvatar(r.Context(), userID, upload.URL); err != nil {
		log.Printf("[ERROR] UploadAvatar update: %v", err)
		httputil.WriteInternalError(w, "Failed to update avatar")
		return
	}

	if previous.Avatar != nil {
		if key := h.mediaService.ObjectKeyFromURL(*previous.Avatar); key != "" {
			if err := h.mediaService.DeleteObject(r.Context(), key); err != nil {
				log.Printf("[UserHandler] Delete previous avatar FAILED: user=%d key=%s: %v", userID, key, err)
			}
		}
	}

	httputil.WriteSuccess(w, http.StatusOK, "Avatar updated", httputil.Envelope{
		"avatar_url": upload.URL,
	})
}
