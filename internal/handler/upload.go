package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pentopublic/backend/internal/model"
	"github.com/pentopublic/backend/internal/repository"
)

// UploadHandler accepts new book submissions from authors.
type UploadHandler struct {
	Users *repository.UserRepo
	Books *repository.BookRepo
}

func NewUploadHandler(users *repository.UserRepo, books *repository.BookRepo) *UploadHandler {
	return &UploadHandler{Users: users, Books: books}
}

// uploadRequest carries the book metadata plus the already-hosted file
// links; the API never receives file bytes, only URLs.
type uploadRequest struct {
	AuthorID      uint64   `json:"authorId"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	IsFree        bool     `json:"isFree"`
	IsAudible     bool     `json:"isAudible"`
	PdfPath       string   `json:"pdfPath"`
	AudioPath     *string  `json:"audioPath"`
	FrontPageLink string   `json:"frontPageLink"`
	CategoryIDs   []uint64 `json:"categoryIds"`
}

// Upload stores a new book in pending status together with its file row and
// category links.  Every upload waits for an admin decision before it shows
// up as approved.
func (h *UploadHandler) Upload(c echo.Context) error {
	var req uploadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.PdfPath == "" || req.FrontPageLink == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, pdfPath and frontPageLink are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Users.UserExists(ctx, req.AuthorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not upload book"})
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid author id"})
	}

	bookID, err := h.Books.Upload(ctx,
		model.Book{
			AuthorID:    req.AuthorID,
			Title:       req.Title,
			Description: req.Description,
			IsFree:      req.IsFree,
			IsAudible:   req.IsAudible,
		},
		model.BookFile{
			PdfPath:       req.PdfPath,
			AudioPath:     req.AudioPath,
			FrontPageLink: req.FrontPageLink,
		},
		req.CategoryIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not upload book"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Book uploaded successfully and is pending approval",
		"bookId":  bookID,
	})
}
