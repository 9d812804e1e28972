package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pentopublic/backend/internal/model"
	"github.com/pentopublic/backend/internal/payment"
	"github.com/pentopublic/backend/internal/queue"
	"github.com/pentopublic/backend/internal/repository"
	queue_publisher "github.com/pentopublic/backend/internal/service"
)

// Reader self-serve plan prices.  These differ from the checkout plans on
// purpose: the manual path carries the promotional price points.
const (
	readerMonthlyAmount = 199
	readerYearlyAmount  = 999
)

// ReaderHandler serves the reader's own subscription state and the two
// subscribe paths: the gateway checkout callback and the manual plan.
type ReaderHandler struct {
	Gateway  payment.Gateway
	Users    *repository.UserRepo
	Payments *repository.PaymentRepo
}

func NewReaderHandler(gw payment.Gateway, users *repository.UserRepo, payments *repository.PaymentRepo) *ReaderHandler {
	return &ReaderHandler{Gateway: gw, Users: users, Payments: payments}
}

// GetSubscription derives the reader's current subscription from the latest
// successful payment.  An end date of today still counts as subscribed.
func (h *ReaderHandler) GetSubscription(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status, err := h.Payments.Subscription(ctx, userID, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load subscription"})
	}
	if !status.IsSubscribed {
		return c.JSON(http.StatusOK, echo.Map{"isSubscribed": false})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"isSubscribed": true,
		"endDate":      status.EndDate.Format("2006-01-02"),
		"paymentMode":  status.PaymentMode,
		"status":       status.Status,
	})
}

type razorpaySubscribeRequest struct {
	Amount            float64 `json:"amount"`
	PaymentMode       string  `json:"paymentMode"`
	RazorpayOrderID   string  `json:"razorpayOrderId"`
	RazorpayPaymentID string  `json:"razorpayPaymentId"`
	RazorpaySignature string  `json:"razorpaySignature"`
}

// Subscribe records a gateway-checkout subscription for one month.  The
// checkout signature is verified before anything is written, so a forged
// callback cannot mint paid access.
func (h *ReaderHandler) Subscribe(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req razorpaySubscribeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be greater than zero"})
	}
	if !h.Gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment signature"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Users.UserExists(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not subscribe"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	now := time.Now().UTC()
	mode := req.PaymentMode
	if mode == "" {
		mode = "razorpay"
	}
	p := model.Payment{
		UserID:            userID,
		Amount:            req.Amount,
		PaymentDate:       now,
		EndDate:           now.AddDate(0, 1, 0),
		PaymentMode:       mode,
		Status:            model.PaymentStatusSuccess,
		RazorpayOrderID:   &req.RazorpayOrderID,
		RazorpayPaymentID: &req.RazorpayPaymentID,
		RazorpaySignature: &req.RazorpaySignature,
	}
	paymentID, err := h.Payments.Insert(ctx, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not subscribe"})
	}

	_ = queue_publisher.PublishPaymentRecorded(ctx, queue.PaymentRecordedEvent{
		PaymentID:   paymentID,
		UserID:      p.UserID,
		Amount:      p.Amount,
		PaymentMode: p.PaymentMode,
		EndDate:     p.EndDate.Format("2006-01-02"),
		RecordedAt:  p.PaymentDate.Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "Subscription successful"})
}

type manualSubscribeRequest struct {
	Plan string `json:"plan"`
}

// ManualSubscribe records a subscription without a gateway checkout.  The
// yearly plan runs 999 for one year, anything else 199 for one month.  A
// generated order id keeps the ledger row traceable.
func (h *ReaderHandler) ManualSubscribe(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req manualSubscribeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Users.UserExists(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not subscribe"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	now := time.Now().UTC()
	amount := float64(readerMonthlyAmount)
	endDate := now.AddDate(0, 1, 0)
	if strings.EqualFold(strings.TrimSpace(req.Plan), "yearly") {
		amount = readerYearlyAmount
		endDate = now.AddDate(1, 0, 0)
	}

	orderID := "manual-" + uuid.NewString()
	p := model.Payment{
		UserID:          userID,
		Amount:          amount,
		PaymentDate:     now,
		EndDate:         endDate,
		PaymentMode:     "manual",
		Status:          model.PaymentStatusSuccess,
		RazorpayOrderID: &orderID,
	}
	paymentID, err := h.Payments.Insert(ctx, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not subscribe"})
	}
	if err := h.Users.UpsertReaderSubscription(ctx, userID, true); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not subscribe"})
	}

	_ = queue_publisher.PublishPaymentRecorded(ctx, queue.PaymentRecordedEvent{
		PaymentID:   paymentID,
		UserID:      p.UserID,
		Amount:      p.Amount,
		PaymentMode: p.PaymentMode,
		EndDate:     p.EndDate.Format("2006-01-02"),
		RecordedAt:  p.PaymentDate.Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Subscription successful",
		"amount":  amount,
		"endDate": endDate.Format("2006-01-02"),
	})
}
