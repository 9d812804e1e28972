package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pentopublic/backend/internal/model"
	"github.com/pentopublic/backend/internal/repository"
)

// ProgressHandler serves the reading-progress CRUD routes plus the
// per-(book,user) upsert used by the reader view.
type ProgressHandler struct {
	Progress *repository.ProgressRepo
}

func NewProgressHandler(progress *repository.ProgressRepo) *ProgressHandler {
	return &ProgressHandler{Progress: progress}
}

type progressRequest struct {
	UserID      uint64  `json:"userId"`
	BookID      uint64  `json:"bookId"`
	PercentRead float64 `json:"percentRead"`
	LastPage    int     `json:"lastPage"`
	TotalPages  int     `json:"totalPages"`
}

// GetAll returns every progress row.
func (h *ProgressHandler) GetAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Progress.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load progress"})
	}
	return c.JSON(http.StatusOK, items)
}

// GetByID returns one progress row by its id.
func (h *ProgressHandler) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid progress id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Progress.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "progress not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load progress"})
	}
	return c.JSON(http.StatusOK, p)
}

// GetByUser returns a user's progress rows across all books.
func (h *ProgressHandler) GetByUser(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Progress.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load progress"})
	}
	return c.JSON(http.StatusOK, items)
}

// GetByBook returns every reader's progress in one book.
func (h *ProgressHandler) GetByBook(c echo.Context) error {
	bookID, err := strconv.ParseUint(c.Param("bookId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Progress.ListByBook(ctx, bookID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load progress"})
	}
	return c.JSON(http.StatusOK, items)
}

// GetByUserAndBook returns the single row for a (user, book) pair.
func (h *ProgressHandler) GetByUserAndBook(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	bookID, err := strconv.ParseUint(c.Param("bookId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Progress.GetByUserAndBook(ctx, userID, bookID)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "progress not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load progress"})
	}
	return c.JSON(http.StatusOK, p)
}

// Create inserts a new progress row.
func (h *ProgressHandler) Create(c echo.Context) error {
	var req progressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == 0 || req.BookID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId and bookId are required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Progress.Create(ctx, model.ReadingProgress{
		UserID:      req.UserID,
		BookID:      req.BookID,
		PercentRead: req.PercentRead,
		LastPage:    req.LastPage,
		TotalPages:  req.TotalPages,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save progress"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Progress created", "progressId": p.ProgressID})
}

// Update rewrites the position fields of an existing row.
func (h *ProgressHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid progress id"})
	}
	var req progressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Progress.Update(ctx, id, req.PercentRead, req.LastPage, req.TotalPages)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "progress not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save progress"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Progress updated"})
}

// Delete removes a progress row.
func (h *ProgressHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid progress id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Progress.Delete(ctx, id)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "progress not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete progress"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Progress deleted"})
}

type upsertProgressRequest struct {
	PercentRead float64 `json:"percentRead"`
	LastPage    int     `json:"lastPage"`
	TotalPages  int     `json:"totalPages"`
}

// Upsert writes the position for the (book, user) pair from the path and
// echoes back the stored row, so the client always sees what the server
// persisted.
func (h *ProgressHandler) Upsert(c echo.Context) error {
	bookID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req upsertProgressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Progress.Upsert(ctx, userID, bookID, req.PercentRead, req.LastPage, req.TotalPages); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save progress"})
	}
	p, err := h.Progress.GetByUserAndBook(ctx, userID, bookID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load progress"})
	}
	return c.JSON(http.StatusOK, p)
}
