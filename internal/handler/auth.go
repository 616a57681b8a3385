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

// AuthHandler groups account endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewAuthHandler(userService *service.UserService, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
	}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.userService.Signup(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrEmailExists) {
			httputil.WriteConflict(w, "Email already registered")
			return
		}
		log.Printf("[ERROR] Signup handler: %v", err)
		httputil.WriteInternalError(w, "Failed to create account")
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "Account created", httputil.Envelope{
		"user": user,
	})
}

// Login handles POST /auth/login. The token is returned in the body and also
// set as a cookie for web clients.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidCredentials):
			httputil.WriteUnauthorized(w, "Invalid email or password")
		case errors.Is(err, model.ErrPasswordAuthUnavailable):
			httputil.WriteBadRequest(w, err.Error())
		default:
			log.Printf("[ERROR] Login handler: %v", err)
			httputil.WriteInternalError(w, "Failed to log in")
		}
		return
	}

	token, err := h.authService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		log.Printf("[ERROR] Login token generation: %v", err)
		httputil.WriteInternalError(w, "Failed to log in")
		return
	}

	maxAge := h.authService.TokenMaxAge()
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	httputil.WriteSuccess(w, http.StatusOK, "Logged in", httputil.Envelope{
		"access_token": token,
		"expires_in":   maxAge,
		"user":         user,
	})
}

// Logout handles POST /auth/logout by expiring the cookie. Tokens are
// stateless, so mobile clients simply discard theirs.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	httputil.WriteSuccess(w, http.StatusOK, "Logged out", nil)
}

// ChangePassword handles POST /auth/change-password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.ChangePasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, &req); err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidCredentials):
			httputil.WriteUnauthorized(w, "Current password is incorrect")
		case errors.Is(err, model.ErrPasswordAuthUnavailable):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[ERROR] ChangePassword handler: %v", err)
			httputil.WriteInternalError(w, "Failed to change password")
		}
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Password changed", nil)
}

// DeleteAccount handles DELETE /auth/account. The password travels in the
// body and is re-verified before anything is removed.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.DeleteAccountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.userService.DeleteAccount(r.Context(), userID, &req); err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidCredentials):
			httputil.WriteUnauthorized(w, "Password is incorrect")
		case errors.Is(err, model.ErrPasswordAuthUnavailable):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[ERROR] DeleteAccount handler: %v", err)
			httputil.WriteInternalError(w, "Failed to delete account")
		}
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Account deleted", nil)
}
