package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"planetguard/internal/apperr"
	"planetguard/internal/model"
)

// AuthService verifies the bearer tokens issued by the identity provider.
// It can also issue tokens, which the seed tool and tests use.
type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// IssueToken signs a token for the given user
func (s *AuthService) IssueToken(userID, username string) (string, error) {
	now := s.now()
	claims := &model.UserClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyToken validates a user JWT and returns the identity it carries
func (s *AuthService) VerifyToken(tokenString string) (*model.Identity, error) {
	if tokenString == "" {
		return nil, apperr.Unauthenticated(apperr.CodeMissingToken, "authentication token is required")
	}
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, apperr.Unauthenticated(apperr.CodeInvalidToken, "invalid or expired token")
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, apperr.Unauthenticated(apperr.CodeInvalidToken, "invalid or expired token")
	}

	return &model.Identity{UserID: claims.UserID, Username: claims.Username}, nil
}
