package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pentopublic/backend/internal/model"
	"github.com/pentopublic/backend/internal/queue"
	"github.com/pentopublic/backend/internal/repository"
	queue_publisher "github.com/pentopublic/backend/internal/service"
)

// AdminHandler serves the moderation queue, approval decisions and the
// dashboard listings.
type AdminHandler struct {
	Books  *repository.BookRepo
	Admins *repository.AdminRepo
}

func NewAdminHandler(books *repository.BookRepo, admins *repository.AdminRepo) *AdminHandler {
	return &AdminHandler{Books: books, Admins: admins}
}

// PendingBooks returns the moderation queue, oldest upload first.
func (h *AdminHandler) PendingBooks(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	books, err := h.Books.ListPending(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load pending books"})
	}
	return c.JSON(http.StatusOK, books)
}

// Approve marks a book approved and logs the decision.
func (h *AdminHandler) Approve(c echo.Context) error {
	return h.decide(c, model.StatusApproved)
}

// Reject marks a book rejected and logs the decision.
func (h *AdminHandler) Reject(c echo.Context) error {
	return h.decide(c, model.StatusRejected)
}

func (h *AdminHandler) decide(c echo.Context, decision string) error {
	bookID, err := strconv.ParseUint(c.Param("bookId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	adminID, err := strconv.ParseUint(c.QueryParam("adminId"), 10, 64)
	if err != nil || adminID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "adminId query parameter is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	info, err := h.Books.Decide(ctx, bookID, adminID, decision)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record decision"})
	}

	// Publish failures only lose the audit-log line, never the decision.
	_ = queue_publisher.PublishBookDecided(ctx, queue.BookDecidedEvent{
		BookID:    info.BookID,
		Title:     info.Title,
		AuthorID:  info.AuthorID,
		AdminID:   info.AdminID,
		Decision:  info.Decision,
		DecidedAt: info.DecidedAt.Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message":      "Book " + decision,
		"bookId":       info.BookID,
		"decision":     info.Decision,
		"decisionDate": info.DecidedAt,
	})
}

// Readers lists every reader account with its subscription flag.
func (h *AdminHandler) Readers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	readers, err := h.Admins.ListReaders(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load readers"})
	}
	return c.JSON(http.StatusOK, readers)
}

// Authors lists every author account with its approved-book count.
func (h *AdminHandler) Authors(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	authors, err := h.Admins.ListAuthors(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load authors"})
	}
	return c.JSON(http.StatusOK, authors)
}

// BooksSummary returns the total book count.
func (h *AdminHandler) BooksSummary(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	n, err := h.Admins.CountBooks(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load summary"})
	}
	return c.JSON(http.StatusOK, echo.Map{"totalBooks": n})
}

// Dashboard returns the aggregate counters for the admin landing page.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	d, err := h.Admins.LoadDashboard(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load dashboard"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"totalBooks":        d.TotalBooks,
		"approvedBooks":     d.ApprovedBooks,
		"pendingBooks":      d.PendingBooks,
		"rejectedBooks":     d.RejectedBooks,
		"totalAuthors":      d.TotalAuthors,
		"totalReaders":      d.TotalReaders,
		"subscribedReaders": d.SubscribedReaders,
	})
}

// Decisions returns the full moderation history, newest first.
func (h *AdminHandler) Decisions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	decisions, err := h.Admins.ListDecisions(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load decisions"})
	}
	return c.JSON(http.StatusOK, decisions)
}
