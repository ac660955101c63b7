package repository

import (
	"context"
	"errors"

	"project_canvass/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, password_hash, role, parent_id, section_no,
	COALESCE(allocated, 0), COALESCE(users, 0), active,
	COALESCE(full_name, ''), COALESCE(symbol, ''), COALESCE(serial_no, ''),
	created_at, last_login_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.ParentID,
		&u.SectionNo, &u.Allocated, &u.Users, &u.Active,
		&u.FullName, &u.Symbol, &u.SerialNo, &u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID int) (*entities.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", userID))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1", username))
}

func (r *UserRepository) GetProfile(ctx context.Context, mainAdminID int) (*entities.Profile, error) {
	var p entities.Profile
	err := r.db.QueryRow(ctx, `
		SELECT id, COALESCE(full_name, ''), COALESCE(symbol, ''), COALESCE(serial_no, '')
		FROM users WHERE id = $1`, mainAdminID).
		Scan(&p.UserID, &p.FullName, &p.Symbol, &p.SerialNo)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateSubUser inserts the child account and bumps the admin's counter in
// one transaction. The conditional UPDATE is what keeps concurrent calls
// from blowing past the allocation.
func (r *UserRepository) CreateSubUser(ctx context.Context, adminID int, username, passwordHash string, sectionNo int) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE users SET users = COALESCE(users, 0) + 1
		WHERE id = $1 AND COALESCE(users, 0) < COALESCE(allocated, 0)`, adminID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		var allocated, current int
		if err := tx.QueryRow(ctx,
			"SELECT COALESCE(allocated, 0), COALESCE(users, 0) FROM users WHERE id = $1",
			adminID).Scan(&allocated, &current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, entities.ErrUserNotFound
			}
			return 0, err
		}
		return 0, &entities.QuotaError{Allocated: allocated, Current: current}
	}

	var userID int
	err = tx.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, role, parent_id, section_no, active, created_at)
		VALUES ($1, $2, 'subuser', $3, $4, FALSE, NOW())
		RETURNING id`,
		username, passwordHash, adminID, sectionNo).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, entities.ErrUsernameTaken
		}
		return 0, err
	}

	return userID, tx.Commit(ctx)
}

func (r *UserRepository) ListSubUsers(ctx context.Context, parentID int) ([]entities.SubUser, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, username, role, created_at
		FROM users WHERE parent_id = $1
		ORDER BY created_at DESC`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subusers := []entities.SubUser{}
	for rows.Next() {
		var s entities.SubUser
		if err := rows.Scan(&s.UserID, &s.Username, &s.Role, &s.CreatedAt); err != nil {
			return nil, err
		}
		subusers = append(subusers, s)
	}
	return subusers, rows.Err()
}

// SetAllocation returns false when the target is not an admin user.
func (r *UserRepository) SetAllocation(ctx context.Context, userID, allocated int) (bool, error) {
	tag, err := r.db.Exec(ctx,
		"UPDATE users SET allocated = $1 WHERE id = $2 AND role = 'admin'",
		allocated, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserRepository) Status(ctx context.Context, userID int) (*entities.UserStatus, error) {
	var s entities.UserStatus
	s.UserID = userID
	err := r.db.QueryRow(ctx, `
		SELECT active, COALESCE(allocated, 0), COALESCE(users, 0), role
		FROM users WHERE id = $1`, userID).
		Scan(&s.Active, &s.Allocated, &s.Users, &s.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Remaining = s.Allocated - s.Users
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	return &s, nil
}
