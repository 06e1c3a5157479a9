package domain

import "time"

// User is the authenticated identity attached to a session.
type User struct {
	ID           string
	Email        string
	Role         Role
	UserMetadata map[string]any
	CreatedAt    time.Time
	LastSignInAt *time.Time
}

// Clone copies the user including its metadata map.
func (u User) Clone() User {
	cp := u
	if u.UserMetadata != nil {
		cp.UserMetadata = make(map[string]any, len(u.UserMetadata))
		for k, v := range u.UserMetadata {
			cp.UserMetadata[k] = v
		}
	}
	if u.LastSignInAt != nil {
		at := *u.LastSignInAt
		cp.LastSignInAt = &at
	}
	return cp
}

// UserStatus enumerates account states managed from the console.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// Valid reports whether the status can be assigned from the console.
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusSuspended
}

// DirectoryUser is a row of the users view listed on the Users page.
type DirectoryUser struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// Profile is the optional console profile of the signed-in user.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
