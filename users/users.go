package users

import (
	"golang.org/x/crypto/bcrypt"
)

// RoleType is the Toolshop account role.
type RoleType string

const (
	RoleAdmin RoleType = "admin"
	RoleUser  RoleType = "user"
)

// User is the profile returned by GET /users/me.
type User struct {
	ID          string   `json:"id,omitempty"`         // Unique identifier for the user
	FirstName   string   `json:"first_name,omitempty"` // First name of the user
	LastName    string   `json:"last_name,omitempty"`  // Last name of the user
	Email       string   `json:"email,omitempty"`      // User's email address
	Role        RoleType `json:"role,omitempty"`       // admin or user
	Phone       string   `json:"phone,omitempty"`
	Address     string   `json:"address,omitempty"`
	City        string   `json:"city,omitempty"`
	Country     string   `json:"country,omitempty"`
	DOB         string   `json:"dob,omitempty"`       // Date of birth, "1970-01-01"
	Provider    string   `json:"provider,omitempty"`  // Social login provider, empty for local accounts
	Enabled     *bool    `json:"enabled,omitempty"`   // Account enabled flag
	FailedLogin int      `json:"failed_login_attempts,omitempty"`
}

// Account is a user with its password hash, as held by the stub auth server.
type Account struct {
	User
	PasswordHash string `json:"-"` // Hashed version of the user's password - never serialize
	Blocked      bool   `json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CheckPassword reports whether password matches the account's hash.
func (a *Account) CheckPassword(password string) bool {
	return CheckPasswordHash(password, a.PasswordHash)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
