package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/todobot/core/internal/application/services"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *services.CategoryService
	logger          *logger.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService *services.CategoryService, logger *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// ListCategories godoc
// @Summary List categories
// @Description List categories, optionally searching name and description
// @Tags categories
// @Produce json
// @Param search query string false "Search in name and description"
// @Param ordering query string false "name, -name, created_at or -created_at"
// @Success 200 {array} entities.Category
// @Failure 400 {object} ports.ErrorResponse
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	filter := ports.CategoryFilter{
		Search:   queryString(c, "search"),
		Ordering: c.QueryParam("ordering"),
	}

	categories, err := h.categoryService.ListCategories(c.Request().Context(), filter)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, categories)
}

// GetCategory godoc
// @Summary Get category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} entities.Category
// @Failure 404 {object} ports.ErrorResponse
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	category, err := h.categoryService.GetCategory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, category)
}

// CreateCategory godoc
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Param request body ports.CreateCategoryRequest true "Category"
// @Success 201 {object} entities.Category
// @Failure 400 {object} ports.ErrorResponse
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req ports.CreateCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	category, err := h.categoryService.CreateCategory(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory godoc
// @Summary Update category
// @Description PUT and PATCH both update only the supplied fields
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param request body ports.UpdateCategoryRequest true "Fields to change"
// @Success 200 {object} entities.Category
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /categories/{id} [patch]
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	var req ports.UpdateCategoryRequest
	if _, err := decodePartial(c, &req); err != nil {
		return err
	}

	category, err := h.categoryService.UpdateCategory(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, category)
}

// DeleteCategory godoc
// @Summary Delete category
// @Description Tasks in the category keep existing without a category
// @Tags categories
// @Param id path string true "Category ID"
// @Success 204
// @Failure 404 {object} ports.ErrorResponse
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	if err := h.categoryService.DeleteCategory(c.Request().Context(), c.Param("id")); err != nil {
		return mapServiceError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
