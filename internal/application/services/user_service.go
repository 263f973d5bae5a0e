package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

var ErrUsernameTaken = errors.New("username already exists")

// UserService handles account operations
type UserService struct {
	userRepo ports.UserRepository
	logger   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// CreateUser creates an account with a bcrypt-hashed password
func (s *UserService) CreateUser(ctx context.Context, req ports.CreateUserRequest) (*entities.User, error) {
	existingUser, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err == nil && existingUser != nil {
		return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, req.Username)
	}
	if err != nil && !errors.Is(err, entities.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hash := string(hashedPassword)

	user := &entities.User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		PasswordHash: &hash,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("User created successfully", "user_id", user.ID, "username", user.Username)

	return user, nil
}

// GetOrCreateTelegramUser returns the placeholder account bound to a chat user,
// creating it on first contact.
func (s *UserService) GetOrCreateTelegramUser(ctx context.Context, telegramUserID int64) (*entities.User, error) {
	user, created, err := s.userRepo.GetOrCreate(ctx, &entities.User{
		Username:  entities.TelegramUsername(telegramUserID),
		FirstName: entities.TelegramFirstName(telegramUserID),
		IsActive:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get or create telegram user: %w", err)
	}

	if created {
		s.logger.Infow("Telegram user account created", "user_id", user.ID, "telegram_user_id", telegramUserID)
	}

	return user, nil
}

// GetUser retrieves an account by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
