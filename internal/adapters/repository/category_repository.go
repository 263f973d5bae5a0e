package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/infrastructure/database"
	"github.com/todobot/core/internal/ports"
)

const uniqueViolation = "23505"

var categoryOrderings = map[string]string{
	"name":        "name ASC",
	"-name":       "name DESC",
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
}

// CategoryRepositoryImpl implements the CategoryRepository interface
type CategoryRepositoryImpl struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sqlx.DB) ports.CategoryRepository {
	return &CategoryRepositoryImpl{db: db}
}

func (r *CategoryRepositoryImpl) Create(ctx context.Context, category *entities.Category) error {
	query := `
		INSERT INTO categories (id, name, description, color)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if category.ID == "" {
		category.ID = entities.NewID()
	}

	err := r.db.QueryRowContext(ctx, query,
		category.ID, category.Name, category.Description, category.Color,
	).Scan(&category.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrDuplicateCategory
		}
		return fmt.Errorf("create category: %w", err)
	}

	return nil
}

func (r *CategoryRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Category, error) {
	query := `SELECT id, name, description, color, created_at FROM categories WHERE id = $1`

	var category entities.Category
	err := r.db.GetContext(ctx, &category, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category by id: %w", err)
	}

	return &category, nil
}

func (r *CategoryRepositoryImpl) Update(ctx context.Context, category *entities.Category) error {
	query := `
		UPDATE categories
		SET name = $2, description = $3, color = $4
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		category.ID, category.Name, category.Description, category.Color,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrDuplicateCategory
		}
		return fmt.Errorf("update category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrCategoryNotFound
	}

	return nil
}

// Delete detaches the category's tasks and removes it in one transaction
func (r *CategoryRepositoryImpl) Delete(ctx context.Context, id string) error {
	return database.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE tasks SET category_id = NULL WHERE category_id = $1`, id); err != nil {
			return fmt.Errorf("detach category tasks: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return entities.ErrCategoryNotFound
		}

		return nil
	})
}

func (r *CategoryRepositoryImpl) List(ctx context.Context, filter ports.CategoryFilter) ([]*entities.Category, error) {
	orderBy, ok := categoryOrderings[filter.Ordering]
	if filter.Ordering == "" {
		orderBy, ok = categoryOrderings["name"], true
	}
	if !ok {
		return nil, fmt.Errorf("%w: unknown ordering %q", entities.ErrValidation, filter.Ordering)
	}

	builder := squirrel.Select("id", "name", "description", "color", "created_at").
		From("categories").
		OrderBy(orderBy).
		PlaceholderFormat(squirrel.Dollar)

	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		pattern := containsPattern(*filter.Search)
		builder = builder.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"description": pattern},
		})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category list query: %w", err)
	}

	categories := []*entities.Category{}
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return categories, nil
}

// GetOrCreate inserts category unless its name is taken, then loads the stored row
func (r *CategoryRepositoryImpl) GetOrCreate(ctx context.Context, category *entities.Category) (*entities.Category, bool, error) {
	query := `
		INSERT INTO categories (id, name, description, color)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING`

	if category.ID == "" {
		category.ID = entities.NewID()
	}

	result, err := r.db.ExecContext(ctx, query,
		category.ID, category.Name, category.Description, category.Color,
	)
	if err != nil {
		return nil, false, fmt.Errorf("get or create category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("get rows affected: %w", err)
	}

	var stored entities.Category
	err = r.db.GetContext(ctx, &stored,
		`SELECT id, name, description, color, created_at FROM categories WHERE name = $1`, category.Name)
	if err != nil {
		return nil, false, fmt.Errorf("get category by name: %w", err)
	}

	return &stored, rowsAffected > 0, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
