package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User's TierID is a weak reference: deleting a tier nulls it out, and
// every tier-gated operation must handle the nil case.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	Role         UserRole
	TierID       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// APIToken is the static credential kind, accepted alongside JWTs.
// Only the SHA-256 hash of the issued token is stored.
type APIToken struct {
	ID        string
	UserID    string
	TokenHash []byte
	Name      string
	CreatedAt time.Time
}
