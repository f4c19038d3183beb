package entities

import (
	"strings"
	"time"
)

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleAdmin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == UserRoleStudent || r == UserRoleAdmin
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusDisabled
}

type ClassLevel string

const (
	Class6  ClassLevel = "6"
	Class7  ClassLevel = "7"
	Class8  ClassLevel = "8"
	Class9  ClassLevel = "9"
	Class10 ClassLevel = "10"
)

// ClassLevels lists every class the school runs, lowest first.
var ClassLevels = []ClassLevel{Class6, Class7, Class8, Class9, Class10}

func (c ClassLevel) Valid() bool {
	for _, known := range ClassLevels {
		if c == known {
			return true
		}
	}
	return false
}

// User is an account as persisted in the scalar store's user table.
// Password holds a bcrypt hash and is cleared by Public before leaving the
// data layer.
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Password  string     `json:"password,omitempty"`
	Role      UserRole   `json:"role"`
	Class     ClassLevel `json:"class,omitempty"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Public returns a copy without the password hash.
func (u User) Public() User {
	u.Password = ""
	return u
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// NormalizeEmail lowercases and trims an email for comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserTable is the whole user list stored under a single scalar key.
type UserTable []User

// ShapeOK rejects tables containing records without an id or email, which can
// only come from a foreign or truncated write.
func (t UserTable) ShapeOK() bool {
	for _, u := range t {
		if u.ID == "" || u.Email == "" {
			return false
		}
	}
	return true
}

// IndexByEmail returns the position of the user with the given email
// (case-insensitive), or -1.
func (t UserTable) IndexByEmail(email string) int {
	needle := NormalizeEmail(email)
	for i, u := range t {
		if NormalizeEmail(u.Email) == needle {
			return i
		}
	}
	return -1
}

// IndexByID returns the position of the user with the given id, or -1.
func (t UserTable) IndexByID(id string) int {
	for i, u := range t {
		if u.ID == id {
			return i
		}
	}
	return -1
}
