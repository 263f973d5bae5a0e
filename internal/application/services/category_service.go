package services

import (
	"context"
	"fmt"

	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

// DefaultCategories are the bootstrap categories created by SeedDefaults
var DefaultCategories = []entities.Category{
	{Name: "Work", Description: "Work tasks", Color: "#007bff"},
	{Name: "Personal", Description: "Personal matters", Color: "#28a745"},
	{Name: "Shopping", Description: "Shopping list", Color: "#ffc107"},
	{Name: "Health", Description: "Health and sport", Color: "#dc3545"},
	{Name: "Learning", Description: "Education and growth", Color: "#6f42c1"},
	{Name: "Home", Description: "Household chores", Color: "#fd7e14"},
}

// CategoryService handles category operations
type CategoryService struct {
	categoryRepo ports.CategoryRepository
	logger       *logger.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(categoryRepo ports.CategoryRepository, logger *logger.Logger) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// ListCategories returns categories matching filter
func (s *CategoryService) ListCategories(ctx context.Context, filter ports.CategoryFilter) ([]*entities.Category, error) {
	categories, err := s.categoryRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// GetCategory retrieves a category by ID
func (s *CategoryService) GetCategory(ctx context.Context, id string) (*entities.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// CreateCategory creates a category; a taken name yields ErrDuplicateCategory
func (s *CategoryService) CreateCategory(ctx context.Context, req ports.CreateCategoryRequest) (*entities.Category, error) {
	category := &entities.Category{
		ID:          entities.NewID(),
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}
	if category.Color == "" {
		category.Color = entities.DefaultCategoryColor
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Infow("Category created", "category_id", category.ID, "name", category.Name)

	return category, nil
}

// UpdateCategory applies the supplied fields to an existing category
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, req ports.UpdateCategoryRequest) (*entities.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.Color != nil {
		category.Color = *req.Color
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return category, nil
}

// DeleteCategory removes a category, leaving its tasks uncategorized
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.logger.Infow("Category deleted", "category_id", id)
	return nil
}

// GetOrCreateCategory returns the category with the given name, creating it when absent
func (s *CategoryService) GetOrCreateCategory(ctx context.Context, name, description, color string) (*entities.Category, bool, error) {
	if color == "" {
		color = entities.DefaultCategoryColor
	}

	category, created, err := s.categoryRepo.GetOrCreate(ctx, &entities.Category{
		ID:          entities.NewID(),
		Name:        name,
		Description: description,
		Color:       color,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create category: %w", err)
	}

	return category, created, nil
}

// SeedDefaults creates the bootstrap categories that do not exist yet and reports how many it created
func (s *CategoryService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, def := range DefaultCategories {
		category, isNew, err := s.GetOrCreateCategory(ctx, def.Name, def.Description, def.Color)
		if err != nil {
			return created, err
		}
		if isNew {
			created++
			s.logger.Infow("Seeded category", "category_id", category.ID, "name", category.Name)
		}
	}

	s.logger.Infow("Category seeding finished", "created", created, "total", len(DefaultCategories))
	return created, nil
}
