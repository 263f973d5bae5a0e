package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/ports"
)

const userColumns = `id, username, first_name, password_hash, is_active, created_at, updated_at`

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (id, username, first_name, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.FirstName, user.PasswordHash, user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user entities.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

func (r *UserRepositoryImpl) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var user entities.User
	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return &user, nil
}

// GetOrCreate inserts user unless its username is taken, then loads the stored row.
// Concurrent callers for the same username all end up with the single stored account.
func (r *UserRepositoryImpl) GetOrCreate(ctx context.Context, user *entities.User) (*entities.User, bool, error) {
	query := `
		INSERT INTO users (id, username, first_name, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO NOTHING`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	result, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.FirstName, user.PasswordHash, user.IsActive,
	)
	if err != nil {
		return nil, false, fmt.Errorf("get or create user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("get rows affected: %w", err)
	}

	stored, err := r.GetByUsername(ctx, user.Username)
	if err != nil {
		return nil, false, err
	}

	return stored, rowsAffected > 0, nil
}
