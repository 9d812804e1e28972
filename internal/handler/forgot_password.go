package handler

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pentopublic/backend/internal/config"
	"github.com/pentopublic/backend/internal/mailer"
	"github.com/pentopublic/backend/internal/middleware"
	"github.com/pentopublic/backend/internal/repository"
)

// otpTTL is how long a reset code stays valid after it is mailed.
const otpTTL = 10 * time.Minute

// ForgotPasswordHandler serves the three-step reset flow: send a code,
// verify it, set the new password.
type ForgotPasswordHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Otps    *repository.OtpRepo
	Mailer  *mailer.Mailer
	Limiter *middleware.OTPLimiter
}

func NewForgotPasswordHandler(cfg config.Config, users *repository.UserRepo, otps *repository.OtpRepo,
	m *mailer.Mailer, limiter *middleware.OTPLimiter) *ForgotPasswordHandler {
	return &ForgotPasswordHandler{Cfg: cfg, Users: users, Otps: otps, Mailer: m, Limiter: limiter}
}

type emailRequest struct {
	Email string `json:"email"`
}

// SendOtp mails a six-digit reset code to a registered address.  Resending
// replaces the previous code; the limiter caps sends per email and IP.
func (h *ForgotPasswordHandler) SendOtp(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	registered, err := h.Users.EmailRegistered(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not send otp"})
	}
	if !registered {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "email not registered"})
	}
	if !h.Limiter.Allow(ctx, email, c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many otp requests, try again later"})
	}

	otp, err := generateOTP()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not send otp"})
	}
	if err := h.Otps.Upsert(ctx, email, otp, time.Now().UTC().Add(otpTTL)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not send otp"})
	}
	if err := h.Mailer.SendOTP(email, otp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not send otp email"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "OTP sent to your email"})
}

type verifyOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

// VerifyOtp checks a code against the stored entry.  Wrong, missing and
// expired codes all return the same message.
func (h *ForgotPasswordHandler) VerifyOtp(c echo.Context) error {
	var req verifyOtpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entry, err := h.Otps.Get(ctx, email)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired otp"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not verify otp"})
	}
	if entry.Otp != req.Otp || entry.ExpiryTime.Before(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired otp"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "OTP verified"})
}

type resetPasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetPassword rewrites the stored hash for the email.  The flow trusts
// that VerifyOtp was called first; the OTP row is not consumed here.
func (h *ForgotPasswordHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Users.ResetPassword(ctx, email, req.Password, h.Cfg.BcryptCost)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "email not registered"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not reset password"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset successful"})
}

// generateOTP draws a uniform six-digit code from crypto/rand.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
