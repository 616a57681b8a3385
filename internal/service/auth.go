package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"promptgram/internal/config"
)

// AuthService issues access tokens. Sessions are access-token-only; clients
// re-authenticate when the token expires.
type AuthService struct {
	config *config.Config
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{config: cfg}
}

// GenerateAccessToken signs an HS256 token carrying the user's id and email.
func (s *AuthService) GenerateAccessToken(userID int64, email string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     time.Now().Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// TokenMaxAge reports the access token lifetime in seconds, for response
// bodies and cookie expiry.
func (s *AuthService) TokenMaxAge() int {
	return s.config.AccessTokenMaxAge
}
