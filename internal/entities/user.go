package entities

import "time"

const (
	RoleAdmin   = "admin"
	RoleSubuser = "subuser"
)

type User struct {
	ID           int        `json:"user_id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	ParentID     *int       `json:"parent_id,omitempty"` // nil/0 = main admin
	SectionNo    *int       `json:"section_no,omitempty"`
	Allocated    int        `json:"allocated"` // max subusers this admin may create
	Users        int        `json:"users"`     // current subuser count
	Active       bool       `json:"active"`
	FullName     string     `json:"full_name,omitempty"`
	Symbol       string     `json:"symbol,omitempty"`
	SerialNo     string     `json:"serial_no,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// MainAdminID resolves the tenant a user belongs to: main admins own
// themselves, subusers inherit their parent.
func (u *User) MainAdminID() int {
	if u.ParentID == nil || *u.ParentID == 0 {
		return u.ID
	}
	return *u.ParentID
}

// Identity is the authorization context attached to every authenticated
// request after session validation.
type Identity struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	MainAdminID int    `json:"main_admin_id"`
	SectionNo   *int   `json:"section_no,omitempty"`
	SessionID   string `json:"-"`
}

// Profile is the main admin's display profile returned on login.
type Profile struct {
	UserID   int    `json:"UserID"`
	FullName string `json:"FullName"`
	Symbol   string `json:"Symbol"`
	SerialNo string `json:"SerialNo"`
}

// UserStatus reports allocation usage for the settings page.
type UserStatus struct {
	UserID    int    `json:"user_id"`
	Active    bool   `json:"active"`
	Allocated int    `json:"allocated"`
	Users     int    `json:"users"`
	Role      string `json:"role"`
	Remaining int    `json:"remaining"`
}

// SubUser is the listing row for accounts created under an admin.
type SubUser struct {
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
