package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/pentopublic/backend/internal/config"
	"github.com/pentopublic/backend/internal/database"
	"github.com/pentopublic/backend/internal/handler"
	"github.com/pentopublic/backend/internal/mailer"
	"github.com/pentopublic/backend/internal/middleware"
	"github.com/pentopublic/backend/internal/payment"
	"github.com/pentopublic/backend/internal/queue"
	"github.com/pentopublic/backend/internal/repository"
	"github.com/pentopublic/backend/internal/router"
)

func main() {
	// .env is optional; in containers everything comes from real env vars.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables the response cache and the
	// OTP limiter but the API stays fully functional.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, response cache and otp limiter disabled")
	}
	cacheCfg := config.LoadCacheConfig()

	users := repository.NewUserRepo(db)
	books := repository.NewBookRepo(db)
	reviews := repository.NewReviewRepo(db)
	progress := repository.NewProgressRepo(db)
	payments := repository.NewPaymentRepo(db)
	otps := repository.NewOtpRepo(db)
	categories := repository.NewCategoryRepo(db)
	admins := repository.NewAdminRepo(db)

	gateway := payment.NewRazorpayGateway(cfg.RazorpayKey, cfg.RazorpaySecret)
	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword,
		cfg.SMTPSender, cfg.SMTPSenderName)
	limiter := middleware.NewOTPLimiter(rdb, cfg.OTPSendLimit, cfg.OTPSendWindow)

	// The activity consumer drains decision and payment events into the
	// audit log and reconnects on its own when the broker drops.
	go queue.StartActivityConsumer()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORS())

	router.Register(e, cfg, cacheCfg, rdb, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users),
		Books:    handler.NewBookHandler(books, reviews, users),
		Reviews:  handler.NewReviewHandler(reviews, users, books),
		Progress: handler.NewProgressHandler(progress),
		Upload:   handler.NewUploadHandler(users, books),
		Author:   handler.NewAuthorHandler(books),
		Admin:    handler.NewAdminHandler(books, admins),
		Payment:  handler.NewPaymentHandler(gateway, users, payments),
		Reader:   handler.NewReaderHandler(gateway, users, payments),
		Password: handler.NewForgotPasswordHandler(cfg, users, otps, mail, limiter),
		Category: handler.NewCategoryHandler(categories, books),
	})

	log.Printf("starting server on :%s (%s)", cfg.Port, cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
