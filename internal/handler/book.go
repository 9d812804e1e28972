package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pentopublic/backend/internal/repository"
)

// BookHandler serves the public catalog: listings, search, detail and the
// per-book review routes.
type BookHandler struct {
	Books   *repository.BookRepo
	Reviews *repository.ReviewRepo
	Users   *repository.UserRepo
}

func NewBookHandler(books *repository.BookRepo, reviews *repository.ReviewRepo, users *repository.UserRepo) *BookHandler {
	return &BookHandler{Books: books, Reviews: reviews, Users: users}
}

// GetAll returns the full catalog.
func (h *BookHandler) GetAll(c echo.Context) error {
	return h.listing(c, h.Books.ListAll)
}

// GetRecent returns the 20 newest uploads.
func (h *BookHandler) GetRecent(c echo.Context) error {
	return h.listing(c, h.Books.ListRecent)
}

// GetTop returns the best-rated reviewed books.
func (h *BookHandler) GetTop(c echo.Context) error {
	return h.listing(c, h.Books.ListTop)
}

// GetFree returns the free-to-read catalog.
func (h *BookHandler) GetFree(c echo.Context) error {
	return h.listing(c, h.Books.ListFree)
}

// GetAudible returns books with an audio edition.
func (h *BookHandler) GetAudible(c echo.Context) error {
	return h.listing(c, h.Books.ListAudible)
}

func (h *BookHandler) listing(c echo.Context, load func(context.Context) ([]repository.BookListItem, error)) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := load(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load books"})
	}
	return c.JSON(http.StatusOK, items)
}

// SearchByTitle matches books whose title contains the given fragment.
func (h *BookHandler) SearchByTitle(c echo.Context) error {
	title := strings.TrimSpace(c.QueryParam("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title query parameter is required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Books.SearchByTitle(ctx, title)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not search books"})
	}
	return c.JSON(http.StatusOK, items)
}

// SearchByAuthor matches books whose author name contains the fragment.
func (h *BookHandler) SearchByAuthor(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name query parameter is required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Books.ListByAuthorName(ctx, name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not search books"})
	}
	return c.JSON(http.StatusOK, items)
}

// GetByAuthorID returns the catalog entries of one author.
func (h *BookHandler) GetByAuthorID(c echo.Context) error {
	authorID, err := strconv.ParseUint(c.Param("authorId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid author id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Books.ListByAuthorID(ctx, authorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load books"})
	}
	return c.JSON(http.StatusOK, items)
}

// GetByID returns one book with its author, aggregate rating, file links and
// reviews.
func (h *BookHandler) GetByID(c echo.Context) error {
	bookID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Books.GetDetail(ctx, bookID)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load book"})
	}

	reviews := make([]echo.Map, 0, len(d.Reviews))
	for _, rv := range d.Reviews {
		var user interface{}
		if rv.UserName != nil {
			user = echo.Map{"userName": *rv.UserName}
		}
		reviews = append(reviews, echo.Map{
			"reviewId":   rv.ReviewID,
			"userId":     rv.UserID,
			"bookId":     rv.BookID,
			"rating":     rv.Rating,
			"comment":    rv.Comment,
			"reviewedAt": rv.ReviewedAt,
			"user":       user,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"bookId":        d.BookID,
		"title":         d.Title,
		"description":   d.Description,
		"isFree":        d.IsFree,
		"status":        d.Status,
		"uploadDate":    d.UploadDate,
		"isAudible":     d.IsAudible,
		"averageRating": d.AverageRating,
		"totalReviews":  d.TotalReviews,
		"author":        d.Author,
		"bookFiles":     d.Files,
		"reviews":       reviews,
	})
}

// GetReviews returns the reviews of one book, newest first.  Unknown books
// yield 404 so a missing book and an unreviewed book are distinguishable.
func (h *BookHandler) GetReviews(c echo.Context) error {
	bookID, err := strconv.ParseUint(c.Param("bookId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.Books.Exists(ctx, bookID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load reviews"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
	}
	reviews, err := h.Reviews.ListByBook(ctx, bookID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load reviews"})
	}
	return c.JSON(http.StatusOK, reviews)
}

type submitReviewRequest struct {
	UserID  uint64 `json:"userId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SubmitReview adds a review to a book.  The rating must be 1 through 5.
func (h *BookHandler) SubmitReview(c echo.Context) error {
	bookID, err := strconv.ParseUint(c.Param("bookId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	var req submitReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId is required"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.Books.Exists(ctx, bookID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit review"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
	}
	userOK, err := h.Users.UserExists(ctx, req.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit review"})
	}
	if !userOK {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	rv, err := h.Reviews.Create(ctx, req.UserID, bookID, req.Rating, req.Comment)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit review"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reviewId":   rv.ReviewID,
		"userId":     rv.UserID,
		"bookId":     rv.BookID,
		"rating":     rv.Rating,
		"comment":    rv.Comment,
		"reviewedAt": rv.ReviewedAt,
	})
}
