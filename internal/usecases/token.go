package usecases

import (
	"errors"
	"fmt"
	"time"

	"project_canvass/internal/entities"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the bearer payload. The embedded session id is what ties
// the token to the single server-side session record; the token's own
// expiry is deliberately much longer than the session window, because the
// session row is the revocation mechanism.
type TokenClaims struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	MainAdminID int    `json:"main_admin_id"`
	SectionNo   *int   `json:"section_no"`
	SessionID   string `json:"session_id"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies bearer tokens with a symmetric secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

func (c *TokenCodec) Issue(id *entities.Identity) (string, error) {
	claims := &TokenClaims{
		UserID:      id.UserID,
		Username:    id.Username,
		Role:        id.Role,
		MainAdminID: id.MainAdminID,
		SectionNo:   id.SectionNo,
		SessionID:   id.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks signature and embedded expiry only; session-table checks
// are the session manager's job.
func (c *TokenCodec) Verify(tokenString string) (*entities.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, entities.ErrTokenExpired
		}
		return nil, entities.ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, entities.ErrInvalidToken
	}
	if claims.UserID == 0 || claims.SessionID == "" {
		return nil, entities.ErrInvalidToken
	}

	return &entities.Identity{
		UserID:      claims.UserID,
		Username:    claims.Username,
		Role:        claims.Role,
		MainAdminID: claims.MainAdminID,
		SectionNo:   claims.SectionNo,
		SessionID:   claims.SessionID,
	}, nil
}
