package models

import "time"

// User represents a user account.
type User struct {
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Premium      bool      `json:"premium"`
	CreatedAt    time.Time `json:"created_at"`
}

// Sanitized returns a copy safe for API responses.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// SignupRequest is the payload for POST /api/auth/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned from signup and login.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// PremiumStatus reports a user's premium entitlement.
type PremiumStatus struct {
	Email   string `json:"email"`
	Premium bool   `json:"premium"`
}
