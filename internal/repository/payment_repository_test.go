package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pentopublic/backend/internal/model"
)

const latestSuccessQuery = "FROM payments WHERE user_id=? AND status=?"

func paymentColumns() []string {
	return []string{"payment_id", "user_id", "amount", "payment_date", "end_date",
		"payment_mode", "status", "razorpay_order_id", "razorpay_payment_id", "razorpay_signature"}
}

func TestSubscriptionNoPayments(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(latestSuccessQuery)).
		WithArgs(uint64(7), model.PaymentStatusSuccess).
		WillReturnRows(sqlmock.NewRows(paymentColumns()))

	status, err := NewPaymentRepo(db).Subscription(context.Background(), 7, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, status.IsSubscribed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(latestSuccessQuery)).
		WithArgs(uint64(7), model.PaymentStatusSuccess).
		WillReturnRows(sqlmock.NewRows(paymentColumns()).
			AddRow(1, 7, 200.0, now.AddDate(0, -2, 0), now.Add(-time.Second), "monthly", "Success", nil, nil, nil))

	status, err := NewPaymentRepo(db).Subscription(context.Background(), 7, now)
	require.NoError(t, err)
	assert.False(t, status.IsSubscribed)
}

// An end date exactly equal to the query instant still counts as subscribed:
// access lapses only once the end date is strictly in the past.
func TestSubscriptionEndDateEqualNow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(latestSuccessQuery)).
		WithArgs(uint64(7), model.PaymentStatusSuccess).
		WillReturnRows(sqlmock.NewRows(paymentColumns()).
			AddRow(1, 7, 200.0, now.AddDate(0, -1, 0), now, "monthly", "Success", nil, nil, nil))

	status, err := NewPaymentRepo(db).Subscription(context.Background(), 7, now)
	require.NoError(t, err)
	assert.True(t, status.IsSubscribed)
	assert.Equal(t, now, status.EndDate)
}

func TestSubscriptionActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 0, 20)
	mock.ExpectQuery(regexp.QuoteMeta(latestSuccessQuery)).
		WithArgs(uint64(7), model.PaymentStatusSuccess).
		WillReturnRows(sqlmock.NewRows(paymentColumns()).
			AddRow(3, 7, 900.0, now.AddDate(0, -1, 0), end, "yearly", "Success", "order_1", "pay_1", "sig_1"))

	status, err := NewPaymentRepo(db).Subscription(context.Background(), 7, now)
	require.NoError(t, err)
	assert.True(t, status.IsSubscribed)
	assert.Equal(t, end, status.EndDate)
	assert.Equal(t, "yearly", status.PaymentMode)
	assert.Equal(t, "Success", status.Status)
}

func TestInsertPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WithArgs(uint64(7), 200.0, now, now.AddDate(0, 1, 0), "monthly", "Success", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(11, 1))

	id, err := NewPaymentRepo(db).Insert(context.Background(), model.Payment{
		UserID:      7,
		Amount:      200,
		PaymentDate: now,
		EndDate:     now.AddDate(0, 1, 0),
		PaymentMode: "monthly",
		Status:      model.PaymentStatusSuccess,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), id)
	require.NoError(t, mock.ExpectationsWereMet())
}
