package handler

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pentopublic/backend/internal/model"
	"github.com/pentopublic/backend/internal/payment"
	"github.com/pentopublic/backend/internal/repository"
)

func newPaymentTestHandler(t *testing.T, gw payment.Gateway) (*PaymentHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewPaymentHandler(gw, repository.NewUserRepo(db), repository.NewPaymentRepo(db))
	return h, mock, func() { _ = db.Close() }
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	for _, body := range []string{`{"amount":0}`, `{"amount":-5}`} {
		h, _, done := newPaymentTestHandler(t, &fakeGateway{orderOK: true})
		c, rec := newJSONContext(t, http.MethodPost, "/api/payment/create-order", body)

		require.NoError(t, h.CreateOrder(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		done()
	}
}

func TestCreateOrderReturnsGatewayOrder(t *testing.T) {
	gw := &fakeGateway{orderOK: true, order: payment.Order{ID: "order_9", Amount: 17400, Currency: "INR"}}
	h, _, done := newPaymentTestHandler(t, gw)
	defer done()

	c, rec := newJSONContext(t, http.MethodPost, "/api/payment/create-order", `{"amount":200}`)

	require.NoError(t, h.CreateOrder(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"orderId":"order_9"`)
	assert.Contains(t, rec.Body.String(), `"currency":"INR"`)
}

func TestSubscribeRejectsUnknownPlan(t *testing.T) {
	h, mock, done := newPaymentTestHandler(t, &fakeGateway{})
	defer done()

	c, rec := newJSONContext(t, http.MethodPost, "/api/payment/subscribe",
		`{"userId":7,"subscriptionType":"weekly"}`)

	require.NoError(t, h.Subscribe(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribeUnknownUser(t *testing.T) {
	h, mock, done := newPaymentTestHandler(t, &fakeGateway{})
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE user_id=?")).
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	c, rec := newJSONContext(t, http.MethodPost, "/api/payment/subscribe",
		`{"userId":404,"subscriptionType":"monthly"}`)

	require.NoError(t, h.Subscribe(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubscribeMonthlyWritesLedgerAndFlag(t *testing.T) {
	h, mock, done := newPaymentTestHandler(t, &fakeGateway{})
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE user_id=?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WithArgs(uint64(7), 200.0, sqlmock.AnyArg(), sqlmock.AnyArg(), "monthly",
			model.PaymentStatusSuccess, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reader_details SET is_subscribed=?")).
		WithArgs(true, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newJSONContext(t, http.MethodPost, "/api/payment/subscribe",
		`{"userId":7,"subscriptionType":"monthly"}`)

	require.NoError(t, h.Subscribe(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount":200`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmRejectsBadEndDate(t *testing.T) {
	h, mock, done := newPaymentTestHandler(t, &fakeGateway{})
	defer done()

	c, rec := newJSONContext(t, http.MethodPost, "/api/payment/confirm",
		`{"userId":7,"amount":200,"paymentMode":"card","endDate":"31-12-2026"}`)

	require.NoError(t, h.Confirm(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmUnknownUser(t *testing.T) {
	h, mock, done := newPaymentTestHandler(t, &fakeGateway{})
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.user_name FROM users u")).
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"user_name"}))

	c, rec := newJSONContext(t, http.MethodPost, "/api/payment/confirm",
		`{"userId":404,"amount":200,"paymentMode":"card","endDate":"2026-12-31"}`)

	require.NoError(t, h.Confirm(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
