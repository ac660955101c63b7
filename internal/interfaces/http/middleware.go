package http

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"project_canvass/internal/entities"
	"project_canvass/internal/usecases"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const identityKey = "identity"

type Middleware struct {
	auth         *usecases.AuthUsecase
	corsOrigins  string
	rateLimiters map[int]*rate.Limiter
	mu           sync.Mutex
}

func NewMiddleware(auth *usecases.AuthUsecase, corsOrigins string) *Middleware {
	return &Middleware{
		auth:         auth,
		corsOrigins:  corsOrigins,
		rateLimiters: make(map[int]*rate.Limiter),
	}
}

// AuthRequired resolves the bearer token into a live identity and stores
// it on the context. Session checks (revocation, expiry, inactivity) are
// enforced here on every request, not just at login.
func (m *Middleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		identity, err := m.auth.Validate(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": authDetail(err)})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func authDetail(err error) string {
	switch {
	case errors.Is(err, entities.ErrTokenExpired):
		return "Token expired"
	case errors.Is(err, entities.ErrSessionMismatch):
		return entities.ErrSessionMismatch.Error()
	case errors.Is(err, entities.ErrSessionExpired):
		return entities.ErrSessionExpired.Error()
	case errors.Is(err, entities.ErrInactivityTimeout):
		return entities.ErrInactivityTimeout.Error()
	case errors.Is(err, entities.ErrSessionTerminated):
		return entities.ErrSessionTerminated.Error()
	default:
		return "Invalid token"
	}
}

// CurrentIdentity pulls the identity stored by AuthRequired.
func CurrentIdentity(c *gin.Context) *entities.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, ok := v.(*entities.Identity)
	if !ok {
		return nil
	}
	return identity
}

// RateLimitPerUser limits requests per authenticated user (must follow AuthRequired)
func (m *Middleware) RateLimitPerUser(r rate.Limit, b int) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if identity == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "User identity not found for rate limiting"})
			return
		}

		m.mu.Lock()
		limiter, exists := m.rateLimiters[identity.UserID]
		if !exists {
			limiter = rate.NewLimiter(r, b)
			m.rateLimiters[identity.UserID] = limiter
		}
		m.mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Rate limit exceeded"})
			return
		}

		c.Next()
	}
}

// CORSMiddleware allows Cross-Origin requests from the configured origins
func (m *Middleware) CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", m.corsOrigins)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// SecurityHeaders adds security headers to prevent common attacks
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent MIME type sniffing
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		// Prevent clickjacking
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		// XSS Protection (legacy but still useful)
		c.Writer.Header().Set("X-XSS-Protection", "1; mode=block")
		// Referrer policy
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		c.Next()
	}
}

// RequestSizeLimiter rejects oversized request bodies
func RequestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
