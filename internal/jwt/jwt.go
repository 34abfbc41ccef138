package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/safespace-dev/safespace/internal/domain"
	internal_errors "github.com/safespace-dev/safespace/internal/errors"
	"github.com/safespace-dev/safespace/internal/logger"
)

type JwtService interface {
	NewToken(m domain.Moderator) (string, error)
	DecodeToken(jwtStr string) (*domain.Moderator, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey, ttl}
}

// NewToken signs a session for m. Sessions are issued by the platform's
// auth service; this is used by tooling and tests.
func (j *Jwt) NewToken(m domain.Moderator) (string, error) {
	claims := jwt.MapClaims{}
	claims["uid"] = m.Id
	claims["email"] = m.Email
	claims["role"] = m.Role
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("can't sign token", "error", err)
		return "", errors.New("Can't create token")
	}

	return tokenString, nil
}

// DecodeToken verifies the signature and expiry and maps the claims onto a
// Moderator. Tokens carrying the legacy boolean "admin" claim instead of
// "role" are accepted as admins.
func (j *Jwt) DecodeToken(jwtStr string) (*domain.Moderator, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		logger.Log.Debug("token rejected", "error", err)
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token signature", StatusCode: http.StatusUnauthorized}
	}

	if !token.Valid {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid access token", StatusCode: http.StatusUnauthorized}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	m := &domain.Moderator{Token: jwtStr}
	switch uid := claims["uid"].(type) {
	case string:
		m.Id = uid
	case float64:
		m.Id = fmt.Sprintf("%d", int64(uid))
	default:
		return nil, ErrInvalidClaims
	}
	m.Email, _ = claims["email"].(string)
	m.Role, _ = claims["role"].(string)
	if m.Role == "" {
		if admin, _ := claims["admin"].(bool); admin {
			m.Role = domain.RoleAdmin
		}
	}
	return m, nil
}

var ErrInvalidClaims = &internal_errors.ErrorWithStatusCode{Message: "Invalid token", StatusCode: http.StatusUnauthorized}
