package interfaces

import (
	"context"
	"time"

	"project_canvass/internal/entities"
)

// UserStore is the credential store. Lookups return (nil, nil) when the row
// is absent.
type UserStore interface {
	GetByID(ctx context.Context, userID int) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	GetProfile(ctx context.Context, mainAdminID int) (*entities.Profile, error)

	// CreateSubUser inserts the child account and increments the admin's
	// subuser counter in one transaction. The increment is conditional on
	// users < allocated so concurrent calls cannot exceed the quota.
	CreateSubUser(ctx context.Context, adminID int, username, passwordHash string, sectionNo int) (int, error)
	ListSubUsers(ctx context.Context, parentID int) ([]entities.SubUser, error)
	SetAllocation(ctx context.Context, userID, allocated int) (bool, error)
	Status(ctx context.Context, userID int) (*entities.UserStatus, error)
}

// SessionStore owns the one-session-per-user records.
type SessionStore interface {
	// Claim performs the login check-then-set atomically: it locks the user
	// row, calls verify with the stored password hash, rejects when a live
	// unexpired session exists, and otherwise installs the new session.
	// Fails with ErrInvalidCredentials or ErrAlreadyLoggedIn.
	Claim(ctx context.Context, username string, verify func(passwordHash string) bool,
		sessionID string, expiresAt time.Time, inactivity time.Duration) (*entities.User, error)

	// Get returns (nil, nil) when the user has no session row.
	Get(ctx context.Context, userID int) (*entities.Session, error)
	Touch(ctx context.Context, userID int, sessionID string) error
	Extend(ctx context.Context, userID int, sessionID string, expiresAt time.Time) error

	// Clear removes the session row and marks the user inactive. Idempotent.
	Clear(ctx context.Context, userID int) error

	// CleanupExpired force-logs-out every user whose session expiry has
	// passed or whose last activity is older than the inactivity window.
	CleanupExpired(ctx context.Context, inactivity time.Duration) (int64, error)
}

// VoterStore is read access to the shared voter table plus the per-tenant
// visit records.
type VoterStore interface {
	GetByID(ctx context.Context, voterID int) (*entities.Voter, error)
	GetSexes(ctx context.Context, voterIDs []int) ([]string, error)
	List(ctx context.Context, tenantID int, sectionNo *int, f entities.VoterFilter) ([]entities.VoterRow, int, error)
	Filters(ctx context.Context, sectionNo *int) (*entities.VoterFilters, error)
	Summary(ctx context.Context, tenantID int) (*entities.VoterSummary, error)
	SurnameGroups(ctx context.Context, sectionNo *int, surname string, limit, offset int) ([]entities.VoterGroup, int, error)
	GroupedView(ctx context.Context, sectionNo int, groupBy string, f entities.GroupFilter, limit, offset int) ([]entities.VoterGroup, int, error)
}

// SurveyStore persists the append-only canvassing log.
type SurveyStore interface {
	// CreateWithVisits inserts the survey and flips the tenant's visit flag
	// for every member in a single transaction: either both writes land or
	// neither does.
	CreateWithVisits(ctx context.Context, s *entities.Survey, memberIDs []int, visited bool, tenantID int) (int, error)
	List(ctx context.Context, tenantID, limit, offset int) ([]entities.Survey, int, error)
}
