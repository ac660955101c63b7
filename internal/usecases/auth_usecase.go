package usecases

import (
	"context"
	"time"

	"project_canvass/internal/entities"
	"project_canvass/internal/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthUsecase owns the session lifecycle: one live session per account,
// claimed atomically at login, revoked by logout, re-login after expiry,
// or the inactivity window running out.
type AuthUsecase struct {
	users      interfaces.UserStore
	sessions   interfaces.SessionStore
	codec      *TokenCodec
	window     time.Duration
	inactivity time.Duration
	logger     *zap.Logger
}

func NewAuthUsecase(users interfaces.UserStore, sessions interfaces.SessionStore, codec *TokenCodec, window, inactivity time.Duration, logger *zap.Logger) *AuthUsecase {
	return &AuthUsecase{
		users:      users,
		sessions:   sessions,
		codec:      codec,
		window:     window,
		inactivity: inactivity,
		logger:     logger,
	}
}

type LoginResult struct {
	Token             string
	Identity          entities.Identity
	Allocated         int
	Users             int
	InactivityMinutes int
	Profile           *entities.Profile
}

// Login verifies credentials and claims the account's single session slot.
// The claim is atomic in the store: two concurrent logins for the same
// account cannot both succeed while a session is live.
func (uc *AuthUsecase) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	// Opportunistic reclaim of dead sessions so a user whose old session
	// timed out is not bounced with "already logged in".
	if n, err := uc.sessions.CleanupExpired(ctx, uc.inactivity); err != nil {
		uc.logger.Warn("session cleanup failed", zap.Error(err))
	} else if n > 0 {
		uc.logger.Info("reclaimed stale sessions", zap.Int64("count", n))
	}

	sessionID := uuid.NewString()
	expiresAt := time.Now().Add(uc.window)

	user, err := uc.sessions.Claim(ctx, username, func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}, sessionID, expiresAt, uc.inactivity)
	if err != nil {
		uc.logger.Warn("login rejected",
			zap.String("username", username),
			zap.Error(err))
		return nil, err
	}

	identity := entities.Identity{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
		MainAdminID: user.MainAdminID(),
		SectionNo:   user.SectionNo,
		SessionID:   sessionID,
	}

	token, err := uc.codec.Issue(&identity)
	if err != nil {
		return nil, err
	}

	profile, err := uc.users.GetProfile(ctx, identity.MainAdminID)
	if err != nil {
		uc.logger.Warn("profile lookup failed",
			zap.Int("main_admin_id", identity.MainAdminID),
			zap.Error(err))
	}

	uc.logger.Info("user logged in",
		zap.Int("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", user.Role))

	return &LoginResult{
		Token:             token,
		Identity:          identity,
		Allocated:         user.Allocated,
		Users:             user.Users,
		InactivityMinutes: int(uc.inactivity / time.Minute),
		Profile:           profile,
	}, nil
}

// Validate maps a bearer token to a live identity. Any divergence between
// the token's session id and the stored session invalidates the token:
// that is how a newer login revokes every older one.
func (uc *AuthUsecase) Validate(ctx context.Context, token string) (*entities.Identity, error) {
	identity, err := uc.codec.Verify(token)
	if err != nil {
		return nil, err
	}

	session, err := uc.sessions.Get(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, entities.ErrSessionTerminated
	}
	if session.SessionID != identity.SessionID {
		return nil, entities.ErrSessionMismatch
	}
	now := time.Now()
	if now.After(session.ExpiresAt) {
		return nil, entities.ErrSessionExpired
	}
	if now.Sub(session.LastActivityAt) > uc.inactivity {
		if err := uc.sessions.Clear(ctx, identity.UserID); err != nil {
			uc.logger.Warn("failed to clear idle session",
				zap.Int("user_id", identity.UserID),
				zap.Error(err))
		}
		return nil, entities.ErrInactivityTimeout
	}

	user, err := uc.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, entities.ErrSessionTerminated
	}

	return identity, nil
}

// Touch records activity, pushing the inactivity deadline forward.
func (uc *AuthUsecase) Touch(ctx context.Context, identity *entities.Identity) error {
	return uc.sessions.Touch(ctx, identity.UserID, identity.SessionID)
}

// Logout releases the session slot. Safe to call when no session exists.
func (uc *AuthUsecase) Logout(ctx context.Context, identity *entities.Identity) error {
	if err := uc.sessions.Clear(ctx, identity.UserID); err != nil {
		return err
	}
	uc.logger.Info("user logged out", zap.Int("user_id", identity.UserID))
	return nil
}

// Refresh extends the session window from now without issuing a new token.
func (uc *AuthUsecase) Refresh(ctx context.Context, identity *entities.Identity) (time.Time, error) {
	expiresAt := time.Now().Add(uc.window)
	if err := uc.sessions.Extend(ctx, identity.UserID, identity.SessionID, expiresAt); err != nil {
		return time.Time{}, err
	}
	if err := uc.sessions.Touch(ctx, identity.UserID, identity.SessionID); err != nil {
		return time.Time{}, err
	}
	return expiresAt, nil
}

// Status reports session health without failing the request; a dead
// session yields Valid=false and a reason rather than an error.
func (uc *AuthUsecase) Status(ctx context.Context, identity *entities.Identity) (*entities.SessionStatus, error) {
	timeoutMinutes := int(uc.inactivity / time.Minute)

	session, err := uc.sessions.Get(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.SessionID != identity.SessionID {
		return &entities.SessionStatus{
			Valid:          false,
			Reason:         "Session inactive",
			TimeoutMinutes: timeoutMinutes,
		}, nil
	}

	now := time.Now()
	if now.After(session.ExpiresAt) {
		return &entities.SessionStatus{
			Valid:          false,
			Reason:         "Session expired",
			TimeoutMinutes: timeoutMinutes,
		}, nil
	}

	inactive := int(now.Sub(session.LastActivityAt) / time.Minute)
	if inactive > timeoutMinutes {
		return &entities.SessionStatus{
			Valid:           false,
			Reason:          "Inactive for too long",
			InactiveMinutes: inactive,
			TimeoutMinutes:  timeoutMinutes,
		}, nil
	}

	return &entities.SessionStatus{
		Valid:           true,
		ExpiresAt:       &session.ExpiresAt,
		LastActivity:    &session.LastActivityAt,
		InactiveMinutes: inactive,
		TimeoutMinutes:  timeoutMinutes,
	}, nil
}
