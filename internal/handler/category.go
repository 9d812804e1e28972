package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pentopublic/backend/internal/repository"
)

// CategoryHandler serves the category reference data and the per-category
// catalog.
type CategoryHandler struct {
	Categories *repository.CategoryRepo
	BookRepo   *repository.BookRepo
}

func NewCategoryHandler(categories *repository.CategoryRepo, books *repository.BookRepo) *CategoryHandler {
	return &CategoryHandler{Categories: categories, BookRepo: books}
}

// List returns every category ordered by name.
func (h *CategoryHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	categories, err := h.Categories.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load categories"})
	}
	return c.JSON(http.StatusOK, categories)
}

// Books returns the catalog entries in one category, 404 when the category
// has no books or does not exist.
func (h *CategoryHandler) Books(c echo.Context) error {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category name is required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	books, err := h.BookRepo.ListByCategoryName(ctx, name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load books"})
	}
	if len(books) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no books found in this category"})
	}
	return c.JSON(http.StatusOK, books)
}
