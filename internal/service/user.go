package service

import (
	"context"
	"log"

	"golang.org/x/crypto/bcrypt"

	"promptgram/internal/cache"
	"promptgram/internal/model"
	"promptgram/internal/queue"
	"promptgram/internal/repository"
)

// UserService handles account lifecycle and the profile read. Credential
// checks always load the user from the repository, never from cache; cached
// users carry no password hash.
type UserService struct {
	userRepo         repository.UserRepository
	imageRepo        repository.ImageRepository
	cache            cache.Store
	publisher        queue.Publisher
	defaultAvatarURL string
}

func NewUserService(
	userRepo repository.UserRepository,
	imageRepo repository.ImageRepository,
	cacheStore cache.Store,
	publisher queue.Publisher,
	defaultAvatarURL string,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		imageRepo:        imageRepo,
		cache:            cacheStore,
		publisher:        publisher,
		defaultAvatarURL: defaultAvatarURL,
	}
}

// Signup creates a new account with a bcrypt-hashed password.
func (s *UserService) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:          req.Email,
		Name:           req.Name,
		PasswordHashed: string(hashed),
	}
	if s.defaultAvatarURL != "" {
		avatar := s.defaultAvatarURL
		user.Avatar = &avatar
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[UserService] Signup OK: user=%d", user.ID)
	return user, nil
}

// Login verifies credentials and returns the account.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == model.ErrUserNotFound {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHashed == "" {
		return nil, model.ErrPasswordAuthUnavailable
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// ChangePassword rotates a user's password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, req *model.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.PasswordHashed == "" {
		return model.ErrPasswordAuthUnavailable
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.CurrentPassword)); err != nil {
		return model.ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return err
	}

	s.cache.DeleteMany(ctx, cache.UserKey(userID), cache.UserByEmailKey(user.Email))
	log.Printf("[UserService] ChangePassword OK: user=%d", userID)
	return nil
}

// UpdateAvatar points the user at a new avatar URL.
func (s *UserService) UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdateAvatar(ctx, userID, avatarURL); err != nil {
		return err
	}

	s.cache.DeleteMany(ctx, cache.UserKey(userID), cache.UserByEmailKey(user.Email))
	return nil
}

// DeleteAccount re-verifies the password, removes the user, and drops every
// cache entry keyed on them. The cascade delete takes follow and like edges
// with it while other users' counters keep their old values, so a full
// reconcile is queued to recount them from the surviving edge tables.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64, req *model.DeleteAccountRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.PasswordHashed == "" {
		return model.ErrPasswordAuthUnavailable
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return model.ErrInvalidCredentials
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	event := queue.NewFullReconcileEvent("account delete cascade")
	if _, err := s.publisher.Publish(ctx, queue.StreamReconcile, event); err != nil {
		log.Printf("[UserService] Publish reconcile event FAILED: user=%d: %v", userID, err)
	}

	s.cache.DeleteMany(ctx,
		cache.UserKey(userID),
		cache.UserByEmailKey(user.Email),
		cache.UserImagesKey(userID),
		cache.GalleryFeedKey(),
	)
	log.Printf("[UserService] DeleteAccount OK: user=%d", userID)
	return nil
}

// Profile assembles a user's profile: identity row plus their generated
// images, the latter through the per-user image list cache.
func (s *UserService) Profile(ctx context.Context, userID int64) (*model.ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var images []model.ImageSummary
	if !s.cache.Get(ctx, cache.UserImagesKey(userID), &images) {
		images, err = s.imageRepo.GetByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, cache.UserImagesKey(userID), images, cache.UserImagesTTL)
	}

	return &model.ProfileResponse{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Avatar:          user.Avatar,
		CreatedAt:       user.CreatedAt,
		GeneratedImages: images,
	}, nil
}
