package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pentopublic/backend/internal/repository"
)

// AuthorHandler serves the author's own-books view.
type AuthorHandler struct {
	Books *repository.BookRepo
}

func NewAuthorHandler(books *repository.BookRepo) *AuthorHandler {
	return &AuthorHandler{Books: books}
}

// GetBooks returns the author's uploads with the latest moderation decision
// attached to each.
func (h *AuthorHandler) GetBooks(c echo.Context) error {
	authorID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid author id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	books, err := h.Books.ListByAuthorWithDecision(ctx, authorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load books"})
	}
	return c.JSON(http.StatusOK, books)
}
