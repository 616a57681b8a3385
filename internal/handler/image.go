package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"promptgram/internal/generation"
	"promptgram/internal/httputil"
	"promptgram/internal/model"
	"promptgram/internal/service"
	"promptgram/internal/transport/http/middleware"
)

// ImageHandler serves generation, the like toggle, remixing and gallery
// reads.
type ImageHandler struct {
	imageService *service.ImageService
}

func NewImageHandler(imageService *service.ImageService) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
	}
}

// Generate handles POST /images/generate.
func (h *ImageHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.GenerateImageRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	image, err := h.imageService.Generate(r.Context(), userID, &req)
	if err != nil {
		h.writeGenerationError(w, err, "Failed to generate image")
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "Image generated", httputil.Envelope{
		"image": image,
	})
}

// ToggleLike handles POST /images/{id}/like: flip the like edge and return
// the authoritative count.
func (h *ImageHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	imageID, err := parseImageIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid image ID")
		return
	}

	result, err := h.imageService.ToggleLike(r.Context(), userID, imageID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrImageNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrLikeConflict):
			httputil.WriteConflict(w, err.Error())
		default:
			log.Printf("[ERROR] ToggleLike handler: %v", err)
			httputil.WriteInternalError(w, "Failed to toggle like")
		}
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Like toggled", httputil.Envelope{
		"is_liked":   result.IsLiked,
		"like_count": result.LikeCount,
	})
}

// Remix handles POST /images/remix.
func (h *ImageHandler) Remix(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.RemixImageRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	remix, err := h.imageService.Remix(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, model.ErrImageNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		h.writeGenerationError(w, err, "Failed to remix image")
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "Remix generated", httputil.Envelope{
		"remix": remix,
	})
}

// IncrementRemixCount handles POST /images/{id}/remix-count. The counter
// bump is best-effort: a failed increment is reported as success=false but
// never as an HTTP error, since the remix artifact already exists.
func (h *ImageHandler) IncrementRemixCount(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	imageID, err := parseImageIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid image ID")
		return
	}

	if err := h.imageService.IncrementRemixCount(r.Context(), imageID); err != nil {
		log.Printf("[ImageHandler] IncrementRemixCount FAILED: image=%d: %v", imageID, err)
		httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
			"success": false,
			"message": "Remix count update deferred",
		})
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Remix count updated", nil)
}

// Gallery handles GET /gallery: the shared public feed, with per-viewer
// like flags when authenticated.
func (h *ImageHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	images, err := h.imageService.Gallery(r.Context(), viewerID)
	if err != nil {
		log.Printf("[ERROR] Gallery handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load gallery")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Gallery retrieved", httputil.Envelope{
		"images": images,
	})
}

// GetImage handles GET /images/{id}.
func (h *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	imageID, err := parseImageIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid image ID")
		return
	}

	image, err := h.imageService.GetImage(r.Context(), imageID)
	if err != nil {
		if errors.Is(err, model.ErrImageNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] GetImage handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load image")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Image retrieved", httputil.Envelope{
		"image": image,
	})
}

// GetUserImages handles GET /users/{id}/images.
func (h *ImageHandler) GetUserImages(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	images, err := h.imageService.GetUserImages(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] GetUserImages handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load images")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Images retrieved", httputil.Envelope{
		"images": images,
	})
}

// GetUserRemixes handles GET /users/{id}/remixes.
func (h *ImageHandler) GetUserRemixes(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	remixes, err := h.imageService.GetUserRemixes(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] GetUserRemixes handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load remixes")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Remixes retrieved", httputil.Envelope{
		"remixes": remixes,
	})
}

// writeGenerationError maps provider and rate-limit failures onto HTTP
// statuses shared by generate and remix.
func (h *ImageHandler) writeGenerationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrRateLimited):
		httputil.WriteRateLimited(w, err.Error())
	case errors.Is(err, generation.ErrInvalidAPIKey):
		httputil.WriteError(w, http.StatusBadGateway, httputil.ErrCodeInternal, "Image provider rejected our credentials")
	case errors.Is(err, generation.ErrInsufficientQuota):
		httputil.WriteError(w, http.StatusServiceUnavailable, httputil.ErrCodeInternal, "Image provider quota exhausted, try again later")
	case errors.Is(err, generation.ErrAccessDenied):
		httputil.WriteError(w, http.StatusBadGateway, httputil.ErrCodeInternal, "Image provider denied the request")
	case errors.Is(err, generation.ErrTimeout):
		httputil.WriteError(w, http.StatusGatewayTimeout, httputil.ErrCodeInternal, "Image generation timed out")
	default:
		log.Printf("[ERROR] Generation: %v", err)
		httputil.WriteInternalError(w, fallback)
	}
}

func parseImageIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
