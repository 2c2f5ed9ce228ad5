package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chowchow0048/PMS/internal/models"
	appErrors "github.com/chowchow0048/PMS/pkg/errors"
)

// TokenService verifies access tokens issued by the surrounding account
// system. Issuance and refresh are not this service's concern.
type TokenService struct {
	secret string
}

// NewTokenService constructs TokenService.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: secret}
}

// ValidateToken parses and validates an access token, returning its claims.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
