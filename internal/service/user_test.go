package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"promptgram/internal/cache"
	"promptgram/internal/model"
	"promptgram/internal/queue"
)

// newTestUserService wires a UserService with no default avatar configured.
func newTestUserService(users *mockUserRepository, images *mockImageRepository, fake *fakeCache) *UserService {
	return NewUserService(users, images, fake, &mockPublisher{}, "")
}

func TestUserService_Signup_Success(t *testing.T) {
	mockUsers := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return false, nil
		},
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = 1
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			return nil
		},
	}
	svc := newTestUserService(mockUsers, &mockImageRepository{}, newFakeCache())

	req := &model.SignupRequest{
		Email:    "ada@example.com",
		Name:     "Ada",
		Password: "securepassword123",
	}

	user, err := svc.Signup(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if user.Email != req.Email {
		t.Errorf("email = %q, want %q", user.Email, req.Email)
	}

	if user.PasswordHashed == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		t.Error("password hash should be valid bcrypt hash")
	}

	if len(mockUsers.createCalls) != 1 {
		t.Errorf("Create called %d times, want 1", len(mockUsers.createCalls))
	}
}

func TestUserService_Signup_EmailExists(t *testing.T) {
	mockUsers := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestUserService(mockUsers, &mockImageRepository{}, newFakeCache())

	user, err := svc.Signup(context.Background(), &model.SignupRequest{
		Email:    "taken@example.com",
		Name:     "Taken",
		Password: "password123",
	})

	if !errors.Is(err, model.ErrEmailExists) {
		t.Errorf("error = %v, want %v", err, model.ErrEmailExists)
	}
	if user != nil {
		t.Error("user should be nil when signup fails")
	}
	if len(mockUsers.createCalls) != 0 {
		t.Error("Create should not be called when email exists")
	}
}

func TestUserService_Signup_DefaultAvatar(t *testing.T) {
	mockUsers := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return false, nil
		},
	}
	defaultAvatar := "https://cdn.example.com/avatars/default.jpg"
	svc := NewUserService(mockUsers, &mockImageRepository{}, newFakeCache(), &mockPublisher{}, defaultAvatar)

	user, err := svc.Signup(context.Background(), &model.SignupRequest{
		Email:    "ada@example.com",
		Name:     "Ada",
		Password: "securepassword123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.Avatar == nil || *user.Avatar != defaultAvatar {
		t.Errorf("avatar = %v, want the configured default", user.Avatar)
	}
}

func TestUserService_Login(t *testing.T) {
	validPassword := "correctpassword"
	validHash, _ := bcrypt.GenerateFromPassword([]byte(validPassword), bcrypt.MinCost)

	testUser := &model.User{
		ID:             1,
		Email:          "ada@example.com",
		PasswordHashed: string(validHash),
	}

	oauthUser := &model.User{
		ID:    2,
		Email: "oauth@example.com",
		// No password: account was created through an external provider.
	}

	tests := []struct {
		name       string
		email      string
		password   string
		getByEmail func(ctx context.Context, email string) (*model.User, error)
		wantErr    error
		wantUser   bool
	}{
		{
			name:     "successful login",
			email:    "ada@example.com",
			password: validPassword,
			getByEmail: func(ctx context.Context, email string) (*model.User, error) {
				return testUser, nil
			},
			wantUser: true,
		},
		{
			name:     "user not found",
			email:    "nobody@example.com",
			password: "anypassword",
			getByEmail: func(ctx context.Context, email string) (*model.User, error) {
				return nil, model.ErrUserNotFound
			},
			wantErr: model.ErrInvalidCredentials, // don't reveal the account doesn't exist
		},
		{
			name:     "wrong password",
			email:    "ada@example.com",
			password: "wrongpassword",
			getByEmail: func(ctx context.Context, email string) (*model.User, error) {
				return testUser, nil
			},
			wantErr: model.ErrInvalidCredentials,
		},
		{
			name:     "oauth-only account",
			email:    "oauth@example.com",
			password: "anypassword",
			getByEmail: func(ctx context.Context, email string) (*model.User, error) {
				return oauthUser, nil
			},
			wantErr: model.ErrPasswordAuthUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsers := &mockUserRepository{getByEmailFn: tt.getByEmail}
			svc := newTestUserService(mockUsers, &mockImageRepository{}, newFakeCache())

			user, err := svc.Login(context.Background(), &model.LoginRequest{
				Email:    tt.email,
				Password: tt.password,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantUser && user == nil {
				t.Error("expected user, got nil")
			}
			if !tt.wantUser && user != nil {
				t.Error("expected nil user")
			}
		})
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	currentPassword := "oldpassword123"
	currentHash, _ := bcrypt.GenerateFromPassword([]byte(currentPassword), bcrypt.MinCost)

	makeUser := func() *model.User {
		return &model.User{
			ID:             1,
			Email:          "ada@example.com",
			PasswordHashed: string(currentHash),
		}
	}

	t.Run("success invalidates identity cache", func(t *testing.T) {
		updated := false
		mockUsers := &mockUserRepository{
			getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
				return makeUser(), nil
			},
			updatePasswordFn: func(ctx context.Context, userID int64, hashed string) error {
				updated = true
				return nil
			},
		}
		fake := newFakeCache()
		fake.Set(context.Background(), cache.UserKey(1), makeUser(), time.Minute)

		svc := newTestUserService(mockUsers, &mockImageRepository{}, fake)

		err := svc.ChangePassword(context.Background(), 1, &model.ChangePasswordRequest{
			CurrentPassword: currentPassword,
			NewPassword:     "newpassword123",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !updated {
			t.Error("expected password to be updated")
		}
		if _, ok := fake.data[cache.UserKey(1)]; ok {
			t.Error("identity cache entry should be invalidated after password change")
		}
	})

	t.Run("wrong current password", func(t *testing.T) {
		mockUsers := &mockUserRepository{
			getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
				return makeUser(), nil
			},
		}
		svc := newTestUserService(mockUsers, &mockImageRepository{}, newFakeCache())

		err := svc.ChangePassword(context.Background(), 1, &model.ChangePasswordRequest{
			CurrentPassword: "notthepassword",
			NewPassword:     "newpassword123",
		})
		if !errors.Is(err, model.ErrInvalidCredentials) {
			t.Errorf("error = %v, want %v", err, model.ErrInvalidCredentials)
		}
	})

	t.Run("oauth-only account", func(t *testing.T) {
		mockUsers := &mockUserRepository{
			getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
				return &model.User{ID: 1, Email: "oauth@example.com"}, nil
			},
		}
		svc := newTestUserService(mockUsers, &mockImageRepository{}, newFakeCache())

		err := svc.ChangePassword(context.Background(), 1, &model.ChangePasswordRequest{
			CurrentPassword: "whatever",
			NewPassword:     "newpassword123",
		})
		if !errors.Is(err, model.ErrPasswordAuthUnavailable) {
			t.Errorf("error = %v, want %v", err, model.ErrPasswordAuthUnavailable)
		}
	})
}

func TestUserService_DeleteAccount(t *testing.T) {
	password := "deleteme123"
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	makeUser := func() *model.User {
		return &model.User{
			ID:             1,
			Email:          "ada@example.com",
			PasswordHashed: string(hash),
		}
	}

	t.Run("success queues a counter sweep and clears caches", func(t *testing.T) {
		mockUsers := &mockUserRepository{
			getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
				return makeUser(), nil
			},
		}
		pub := &mockPublisher{}
		fake := newFakeCache()
		fake.Set(context.Background(), cache.UserKey(1), makeUser(), time.Minute)
		fake.Set(context.Background(), cache.GalleryFeedKey(), []model.GalleryImage{}, time.Minute)

		svc := NewUserService(mockUsers, &mockImageRepository{}, fake, pub, "")

		err := svc.DeleteAccount(context.Background(), 1, &model.DeleteAccountRequest{Password: password})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mockUsers.deleteCalls != 1 {
			t.Errorf("Delete called %d times, want 1", mockUsers.deleteCalls)
		}

		// Cascading edge deletes leave other rows' counters stale, so the
		// delete must hand the cleanup to the reconciliation stream.
		if len(pub.published) != 1 {
			t.Fatalf("events published = %d, want 1", len(pub.published))
		}
		if got := pub.published[0].Type; got != queue.EventFullReconcile {
			t.Errorf("event type = %q, want %q", got, queue.EventFullReconcile)
		}

		if _, ok := fake.data[cache.UserKey(1)]; ok {
			t.Error("identity cache entry should be gone after account deletion")
		}
		if _, ok := fake.data[cache.GalleryFeedKey()]; ok {
			t.Error("gallery cache entry should be gone after account deletion")
		}
	})

	t.Run("wrong password leaves the account untouched", func(t *testing.T) {
		mockUsers := &mockUserRepository{
			getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
				return makeUser(), nil
			},
		}
		pub := &mockPublisher{}
		svc := NewUserService(mockUsers, &mockImageRepository{}, newFakeCache(), pub, "")

		err := svc.DeleteAccount(context.Background(), 1, &model.DeleteAccountRequest{Password: "notthepassword"})
		if !errors.Is(err, model.ErrInvalidCredentials) {
			t.Errorf("error = %v, want %v", err, model.ErrInvalidCredentials)
		}
		if mockUsers.deleteCalls != 0 {
			t.Error("Delete should not be called when the password is wrong")
		}
		if len(pub.published) != 0 {
			t.Error("no event should be published when nothing was deleted")
		}
	})

	t.Run("oauth-only account", func(t *testing.T) {
		mockUsers := &mockUserRepository{
			getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
				return &model.User{ID: 1, Email: "oauth@example.com"}, nil
			},
		}
		svc := newTestUserService(mockUsers, &mockImageRepository{}, newFakeCache())

		err := svc.DeleteAccount(context.Background(), 1, &model.DeleteAccountRequest{Password: "whatever"})
		if !errors.Is(err, model.ErrPasswordAuthUnavailable) {
			t.Errorf("error = %v, want %v", err, model.ErrPasswordAuthUnavailable)
		}
	})
}

func TestUserService_Profile_CachesImageList(t *testing.T) {
	images := []model.ImageSummary{
		{ID: 10, Prompt: "a fox in the snow", LikeCount: 3},
		{ID: 11, Prompt: "city at dusk", LikeCount: 1},
	}

	repoCalls := 0
	mockUsers := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Name: "Ada", Email: "ada@example.com"}, nil
		},
	}
	mockImages := &mockImageRepository{
		getByUserFn: func(ctx context.Context, userID int64) ([]model.ImageSummary, error) {
			repoCalls++
			return images, nil
		},
	}
	svc := newTestUserService(mockUsers, mockImages, newFakeCache())

	for i := 0; i < 2; i++ {
		profile, err := svc.Profile(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(profile.GeneratedImages) != 2 {
			t.Fatalf("profile images = %d, want 2", len(profile.GeneratedImages))
		}
	}

	if repoCalls != 1 {
		t.Errorf("image repo queried %d times, want 1 (second read should hit the cache)", repoCalls)
	}
}
