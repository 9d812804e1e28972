// Package router wires HTTP routes to their handlers and applies the
// authentication, role and caching middleware per route group.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/pentopublic/backend/internal/config"
	"github.com/pentopublic/backend/internal/handler"
	"github.com/pentopublic/backend/internal/middleware"
	"github.com/pentopublic/backend/internal/model"
)

// Handlers collects every handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Books    *handler.BookHandler
	Reviews  *handler.ReviewHandler
	Progress *handler.ProgressHandler
	Upload   *handler.UploadHandler
	Author   *handler.AuthorHandler
	Admin    *handler.AdminHandler
	Payment  *handler.PaymentHandler
	Reader   *handler.ReaderHandler
	Password *handler.ForgotPasswordHandler
	Category *handler.CategoryHandler
}

// Register mounts all routes.  The public catalog sits behind the response
// cache; everything that writes or exposes personal data requires a valid
// token, with the author and admin groups further guarded by role.
func Register(e *echo.Echo, cfg config.Config, cacheCfg config.CacheConfig, rdb *redis.Client, h Handlers) {
	e.GET("/healthz", handler.Health)

	// Authentication and the password-reset flow are reachable without a
	// token by definition.
	auth := e.Group("/api/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	reset := e.Group("/api/forgot-password")
	reset.POST("/send-otp", h.Password.SendOtp)
	reset.POST("/verify-otp", h.Password.VerifyOtp)
	reset.POST("/reset-password", h.Password.ResetPassword)

	// Public catalog, cached.  These are the highest-traffic routes and
	// none of them depend on the caller's identity.
	catalog := e.Group("/api", middleware.ResponseCache(cacheCfg, rdb))
	catalog.GET("/books", h.Books.GetAll)
	catalog.GET("/books/recent", h.Books.GetRecent)
	catalog.GET("/books/top", h.Books.GetTop)
	catalog.GET("/books/free", h.Books.GetFree)
	catalog.GET("/books/audible", h.Books.GetAudible)
	catalog.GET("/books/search", h.Books.SearchByTitle)
	catalog.GET("/books/author", h.Books.SearchByAuthor)
	catalog.GET("/books/author/:authorId", h.Books.GetByAuthorID)
	catalog.GET("/books/:id", h.Books.GetByID)
	catalog.GET("/books/:bookId/reviews", h.Books.GetReviews)
	catalog.GET("/categories", h.Category.List)
	catalog.GET("/category/books-by-category/:name", h.Category.Books)
	catalog.GET("/reviews/book/:bookId", h.Reviews.ListByBook)
	catalog.GET("/reviews/book/:bookId/average", h.Reviews.Average)

	// Everything below requires a valid access token.
	api := e.Group("/api", middleware.JWTAuth(cfg.JWTSecret))

	api.POST("/books/:bookId/reviews", h.Books.SubmitReview)
	api.POST("/reviews", h.Reviews.Add)
	api.PUT("/reviews/:reviewId", h.Reviews.Update)
	api.DELETE("/reviews/:reviewId", h.Reviews.Delete)

	api.GET("/progress", h.Progress.GetAll)
	api.GET("/progress/:id", h.Progress.GetByID)
	api.GET("/progress/user/:userId", h.Progress.GetByUser)
	api.GET("/progress/book/:bookId", h.Progress.GetByBook)
	api.GET("/progress/user/:userId/book/:bookId", h.Progress.GetByUserAndBook)
	api.POST("/progress", h.Progress.Create)
	api.PUT("/progress/:id", h.Progress.Update)
	api.DELETE("/progress/:id", h.Progress.Delete)
	api.PUT("/books/:id/progress/:userId", h.Progress.Upsert)

	api.POST("/payment/create-order", h.Payment.CreateOrder)
	api.POST("/payment/confirm", h.Payment.Confirm)
	api.POST("/payment/subscribe", h.Payment.Subscribe)
	api.GET("/payment/all", h.Payment.GetAll)

	api.GET("/reader/:userId/subscription", h.Reader.GetSubscription)
	api.POST("/reader/:userId/subscribe", h.Reader.Subscribe)
	api.PUT("/reader/:userId/subscribe/manual", h.Reader.ManualSubscribe)

	author := api.Group("", middleware.RequireRole(model.RoleAuthor, model.RoleAdmin))
	author.POST("/upload", h.Upload.Upload)
	author.GET("/author/books/:userId", h.Author.GetBooks)

	admin := api.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/pending-books", h.Admin.PendingBooks)
	admin.POST("/approve/:bookId", h.Admin.Approve)
	admin.POST("/reject/:bookId", h.Admin.Reject)
	admin.GET("/readers", h.Admin.Readers)
	admin.GET("/authors", h.Admin.Authors)
	admin.GET("/books/summary", h.Admin.BooksSummary)
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.GET("/decisions", h.Admin.Decisions)
}
