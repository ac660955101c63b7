package entities

import "time"

// Session is the single server-side session record per user. One row per
// user enforces device exclusivity; deleting the row revokes the bearer
// token regardless of its embedded expiry.
type Session struct {
	UserID         int       `json:"user_id"`
	SessionID      string    `json:"session_id"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// SessionStatus is the non-erroring validity report for GET /session/status.
type SessionStatus struct {
	Valid           bool       `json:"valid"`
	Reason          string     `json:"reason,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	LastActivity    *time.Time `json:"last_activity,omitempty"`
	InactiveMinutes int        `json:"inactive_minutes,omitempty"`
	TimeoutMinutes  int        `json:"timeout_minutes,omitempty"`
}
