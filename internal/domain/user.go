package domain

import "context"

// User represents the core user model in the application domain.
// PasswordHash holds the encoded argon2id digest and is never serialized.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// UserRepository defines the contract for user data storage operations.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// ListOthers returns every user except the one identified by selfID,
	// for contact-list population.
	ListOthers(ctx context.Context, selfID string) ([]User, error)
}
