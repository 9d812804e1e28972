package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pentopublic/backend/internal/repository"
)

// ReviewHandler serves the standalone review routes, separate from the
// per-book review routes on BookHandler.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
	Users   *repository.UserRepo
	Books   *repository.BookRepo
}

func NewReviewHandler(reviews *repository.ReviewRepo, users *repository.UserRepo, books *repository.BookRepo) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews, Users: users, Books: books}
}

// ListByBook returns all reviews for a book with reviewer identities.
func (h *ReviewHandler) ListByBook(c echo.Context) error {
	bookID, err := strconv.ParseUint(c.Param("bookId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	reviews, err := h.Reviews.ListByBook(ctx, bookID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load reviews"})
	}
	return c.JSON(http.StatusOK, reviews)
}

type addReviewRequest struct {
	UserID  uint64 `json:"userId"`
	BookID  uint64 `json:"bookId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Add creates a review after checking that both the user and the book exist.
func (h *ReviewHandler) Add(c echo.Context) error {
	var req addReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == 0 || req.BookID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId and bookId are required"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userOK, err := h.Users.UserExists(ctx, req.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not add review"})
	}
	bookOK, err := h.Books.Exists(ctx, req.BookID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not add review"})
	}
	if !userOK || !bookOK {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user or book id"})
	}

	rv, err := h.Reviews.Create(ctx, req.UserID, req.BookID, req.Rating, req.Comment)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not add review"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Review added successfully", "reviewId": rv.ReviewID})
}

// updateReviewRequest carries optional fields; absent ones keep the stored
// value.
type updateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// Update partially updates a review's rating and comment.
func (h *ReviewHandler) Update(c echo.Context) error {
	reviewID, err := strconv.ParseUint(c.Param("reviewId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	var req updateReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rv, err := h.Reviews.Get(ctx, reviewID)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update review"})
	}

	rating := rv.Rating
	comment := rv.Comment
	if req.Rating != nil {
		rating = *req.Rating
	}
	if req.Comment != nil {
		comment = *req.Comment
	}
	if rating < 1 || rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	if err := h.Reviews.Update(ctx, reviewID, rating, comment); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update review"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Review updated successfully"})
}

// Delete removes a review.
func (h *ReviewHandler) Delete(c echo.Context) error {
	reviewID, err := strconv.ParseUint(c.Param("reviewId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Reviews.Delete(ctx, reviewID)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete review"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Review deleted successfully"})
}

// Average returns the aggregate rating for a book, with a friendly message
// when nobody has rated it yet.
func (h *ReviewHandler) Average(c echo.Context) error {
	bookID, err := strconv.ParseUint(c.Param("bookId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	avg, count, err := h.Reviews.Average(ctx, bookID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load rating"})
	}
	if count == 0 {
		return c.JSON(http.StatusOK, echo.Map{
			"bookId":        bookID,
			"averageRating": 0,
			"totalReviews":  0,
			"message":       "No ratings yet.",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"bookId":        bookID,
		"averageRating": fmt.Sprintf("%.2f", avg),
		"totalReviews":  count,
	})
}
