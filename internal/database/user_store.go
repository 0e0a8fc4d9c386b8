package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/courio/courio/internal/domain"
)

// userRecord is the persisted shape of a user.
type userRecord struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

func (r *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.UserID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
	}
}

const userFields = "user_id, name, email, password_hash"

// UserStore encapsulates database operations for users.
type UserStore struct {
	db *surrealdb.DB
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *surrealdb.DB) *UserStore {
	return &UserStore{db: db}
}

var _ domain.UserRepository = (*UserStore)(nil)

// Create persists a new user, rejecting duplicate email addresses.
func (s *UserStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	existing, err := s.FindByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserAlreadyExists, user.Email)
	}

	created := *user
	created.ID = uuid.NewString()

	query := `
		CREATE user CONTENT {
			user_id: $user_id,
			name: $name,
			email: $email,
			password_hash: $password_hash
		}
	`
	params := map[string]any{
		"user_id":       created.ID,
		"name":          created.Name,
		"email":         created.Email,
		"password_hash": created.PasswordHash,
	}

	if err := Execute(ctx, s.db, query, params); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &created, nil
}

// FindByEmail queries for a single user by email. Returns nil, nil when no
// user matches.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM user WHERE email = $email", userFields)
	params := map[string]any{"email": email}

	rec, err := QueryOne[userRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	return rec.toDomain(), nil
}

// FindByID returns the user with the given id, or domain.ErrNotFound.
func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM user WHERE user_id = $user_id", userFields)
	params := map[string]any{"user_id": id}

	rec, err := QueryOne[userRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	return rec.toDomain(), nil
}

// ListOthers returns every user except the one identified by selfID.
func (s *UserStore) ListOthers(ctx context.Context, selfID string) ([]domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM user WHERE user_id != $self ORDER BY name ASC", userFields)
	params := map[string]any{"self": selfID}

	records, err := Query[userRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	users := make([]domain.User, len(records))
	for i := range records {
		users[i] = *records[i].toDomain()
	}
	return users, nil
}
