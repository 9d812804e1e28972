package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pentopublic/backend/internal/model"
	"github.com/pentopublic/backend/internal/payment"
	"github.com/pentopublic/backend/internal/queue"
	"github.com/pentopublic/backend/internal/repository"
	queue_publisher "github.com/pentopublic/backend/internal/service"
)

// Subscription plans sold through the payment endpoints, amounts in the
// platform currency.
const (
	monthlyPlanAmount = 200
	yearlyPlanAmount  = 900
)

// PaymentHandler serves gateway order creation, payment confirmation, the
// admin ledger and the plan-based subscribe flow.
type PaymentHandler struct {
	Gateway  payment.Gateway
	Users    *repository.UserRepo
	Payments *repository.PaymentRepo
}

func NewPaymentHandler(gw payment.Gateway, users *repository.UserRepo, payments *repository.PaymentRepo) *PaymentHandler {
	return &PaymentHandler{Gateway: gw, Users: users, Payments: payments}
}

type createOrderRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// CreateOrder registers an order with the gateway and hands the order id
// back to the SPA checkout.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be greater than zero"})
	}

	order, err := h.Gateway.CreateOrder(req.Amount, req.Currency)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create order"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"orderId":  order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
	})
}

type confirmPaymentRequest struct {
	UserID      uint64  `json:"userId"`
	Amount      float64 `json:"amount"`
	EndDate     string  `json:"endDate"`
	PaymentMode string  `json:"paymentMode"`
}

// Confirm records a completed payment in the ledger.  The client supplies
// the subscription end date; the row is written with status Success.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	var req confirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == 0 || req.Amount <= 0 || req.PaymentMode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId, amount and paymentMode are required"})
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "endDate must be yyyy-mm-dd"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userName, err := h.Users.GetUserName(ctx, req.UserID)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record payment"})
	}

	p := model.Payment{
		UserID:      req.UserID,
		Amount:      req.Amount,
		PaymentDate: time.Now().UTC(),
		EndDate:     endDate,
		PaymentMode: req.PaymentMode,
		Status:      model.PaymentStatusSuccess,
	}
	paymentID, err := h.Payments.Insert(ctx, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record payment"})
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
		"message":   "Payment recorded successfully",
		"paymentId": paymentID,
		"userName":  userName,
		"endDate":   p.EndDate.Format("2006-01-02"),
	})
}

// GetAll returns the full payment ledger for the admin view.
func (h *PaymentHandler) GetAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	payments, err := h.Payments.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load payments"})
	}
	return c.JSON(http.StatusOK, payments)
}

type subscribeRequest struct {
	UserID           uint64 `json:"userId"`
	SubscriptionType string `json:"subscriptionType"`
}

// Subscribe records a plan purchase: monthly runs 200 for one month, yearly
// 900 for one year.  The denormalized reader flag is flipped alongside the
// ledger row.
func (h *PaymentHandler) Subscribe(c echo.Context) error {
	var req subscribeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	var (
		amount  float64
		endDate time.Time
		now     = time.Now().UTC()
	)
	switch strings.ToLower(strings.TrimSpace(req.SubscriptionType)) {
	case "monthly":
		amount = monthlyPlanAmount
		endDate = now.AddDate(0, 1, 0)
	case "yearly":
		amount = yearlyPlanAmount
		endDate = now.AddDate(1, 0, 0)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subscriptionType must be monthly or yearly"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Users.UserExists(ctx, req.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not subscribe"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	p := model.Payment{
		UserID:      req.UserID,
		Amount:      amount,
		PaymentDate: now,
		EndDate:     endDate,
		PaymentMode: req.SubscriptionType,
		Status:      model.PaymentStatusSuccess,
	}
	paymentID, err := h.Payments.Insert(ctx, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not subscribe"})
	}
	if err := h.Users.UpsertReaderSubscription(ctx, req.UserID, true); err != nil {
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
