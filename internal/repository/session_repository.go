package repository

import (
	"context"
	"errors"
	"time"

	"project_canvass/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// Claim is the login check-then-set. The user row is locked for the whole
// read-modify-write so two concurrent logins for the same account cannot
// both observe "no live session": exactly one wins, the other gets
// ErrAlreadyLoggedIn.
func (r *SessionRepository) Claim(ctx context.Context, username string, verify func(passwordHash string) bool,
	sessionID string, expiresAt time.Time, inactivity time.Duration) (*entities.User, error) {

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	u, err := scanUser(tx.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1 FOR UPDATE", username))
	if err != nil {
		return nil, err
	}
	if u == nil || !verify(u.PasswordHash) {
		return nil, entities.ErrInvalidCredentials
	}

	now := time.Now()
	var cur entities.Session
	err = tx.QueryRow(ctx, `
		SELECT session_id, expires_at, last_activity_at
		FROM sessions WHERE user_id = $1 FOR UPDATE`, u.ID).
		Scan(&cur.SessionID, &cur.ExpiresAt, &cur.LastActivityAt)
	switch {
	case err == nil:
		if u.Active && cur.ExpiresAt.After(now) && now.Sub(cur.LastActivityAt) < inactivity {
			return nil, entities.ErrAlreadyLoggedIn
		}
		// stale row, replaced by the upsert below
	case errors.Is(err, pgx.ErrNoRows):
		// no prior session
	default:
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (user_id, session_id, expires_at, last_activity_at, created_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET session_id = EXCLUDED.session_id,
		    expires_at = EXCLUDED.expires_at,
		    last_activity_at = NOW(),
		    created_at = NOW()`,
		u.ID, sessionID, expiresAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		"UPDATE users SET active = TRUE, last_login_at = NOW() WHERE id = $1", u.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	u.Active = true
	return u, nil
}

func (r *SessionRepository) Get(ctx context.Context, userID int) (*entities.Session, error) {
	var s entities.Session
	err := r.db.QueryRow(ctx, `
		SELECT user_id, session_id, expires_at, last_activity_at, created_at
		FROM sessions WHERE user_id = $1`, userID).
		Scan(&s.UserID, &s.SessionID, &s.ExpiresAt, &s.LastActivityAt, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // No session
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Touch(ctx context.Context, userID int, sessionID string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE sessions SET last_activity_at = NOW() WHERE user_id = $1 AND session_id = $2",
		userID, sessionID)
	return err
}

func (r *SessionRepository) Extend(ctx context.Context, userID int, sessionID string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx,
		"UPDATE sessions SET expires_at = $1 WHERE user_id = $2 AND session_id = $3",
		expiresAt, userID, sessionID)
	return err
}

func (r *SessionRepository) Clear(ctx context.Context, userID int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM sessions WHERE user_id = $1", userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "UPDATE users SET active = FALSE WHERE id = $1", userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CleanupExpired reclaims sessions whose absolute expiry has passed or whose
// owner has been idle past the inactivity window. Ran opportunistically at
// login and, optionally, by the background sweeper.
func (r *SessionRepository) CleanupExpired(ctx context.Context, inactivity time.Duration) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	mins := int(inactivity.Minutes())
	_, err = tx.Exec(ctx, `
		UPDATE users SET active = FALSE
		WHERE id IN (
			SELECT user_id FROM sessions
			WHERE expires_at < NOW() OR last_activity_at < NOW() - make_interval(mins => $1)
		)`, mins)
	if err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM sessions
		WHERE expires_at < NOW() OR last_activity_at < NOW() - make_interval(mins => $1)`, mins)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), tx.Commit(ctx)
}
