package handler

import (
	"net"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pentopublic/backend/internal/model"
	"github.com/pentopublic/backend/internal/payment"
	"github.com/pentopublic/backend/internal/repository"
)

// fakeGateway satisfies payment.Gateway without remote calls.
type fakeGateway struct {
	order   payment.Order
	orderOK bool
	sigOK   bool
}

func (f *fakeGateway) CreateOrder(amount float64, currency string) (payment.Order, error) {
	if !f.orderOK {
		return payment.Order{}, assert.AnError
	}
	return f.order, nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool { return f.sigOK }

func newReaderTestHandler(t *testing.T, gw payment.Gateway) (*ReaderHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewReaderHandler(gw, repository.NewUserRepo(db), repository.NewPaymentRepo(db))
	return h, mock, func() { _ = db.Close() }
}

func TestReaderSubscribeRejectsBadSignature(t *testing.T) {
	h, mock, done := newReaderTestHandler(t, &fakeGateway{sigOK: false})
	defer done()

	c, rec := newJSONContext(t, http.MethodPost, "/api/reader/subscribe/7",
		`{"amount":199,"razorpayOrderId":"order_1","razorpayPaymentId":"pay_1","razorpaySignature":"forged"}`)
	c.SetParamNames("userId")
	c.SetParamValues("7")

	require.NoError(t, h.Subscribe(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "signature")
	// Nothing may be written when the checksum fails.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReaderSubscribeVerifiedSignature(t *testing.T) {
	h, mock, done := newReaderTestHandler(t, &fakeGateway{sigOK: true})
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE user_id=?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WithArgs(uint64(7), 199.0, sqlmock.AnyArg(), sqlmock.AnyArg(), "razorpay",
			model.PaymentStatusSuccess, "order_1", "pay_1", "sig_1").
		WillReturnResult(sqlmock.NewResult(5, 1))

	c, rec := newJSONContext(t, http.MethodPost, "/api/reader/subscribe/7",
		`{"amount":199,"razorpayOrderId":"order_1","razorpayPaymentId":"pay_1","razorpaySignature":"sig_1"}`)
	c.SetParamNames("userId")
	c.SetParamValues("7")

	require.NoError(t, h.Subscribe(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReaderManualSubscribeYearly(t *testing.T) {
	h, mock, done := newReaderTestHandler(t, &fakeGateway{})
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE user_id=?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WithArgs(uint64(7), 999.0, sqlmock.AnyArg(), sqlmock.AnyArg(), "manual",
			model.PaymentStatusSuccess, sqlmock.AnyArg(), nil, nil).
		WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reader_details SET is_subscribed=?")).
		WithArgs(true, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newJSONContext(t, http.MethodPut, "/api/reader/subscribe/7", `{"plan":"yearly"}`)
	c.SetParamNames("userId")
	c.SetParamValues("7")

	require.NoError(t, h.ManualSubscribe(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount":999`)
	require.NoError(t, mock.ExpectationsWereMet())
}

// listenForBroker stands in for the message broker on a loopback port and
// signals every connection attempt.  Connections are closed straight away,
// so publishing fails fast and the handler's best-effort policy is what the
// tests end up exercising.
func listenForBroker(t *testing.T) <-chan struct{} {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	dialed := make(chan struct{}, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			dialed <- struct{}{}
			_ = conn.Close()
		}
	}()
	t.Setenv("RABBITMQ_URL", "amqp://guest:guest@"+ln.Addr().String()+"/")
	return dialed
}

func TestReaderSubscribeAnnouncesPayment(t *testing.T) {
	dialed := listenForBroker(t)
	h, mock, done := newReaderTestHandler(t, &fakeGateway{sigOK: true})
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE user_id=?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnResult(sqlmock.NewResult(5, 1))

	c, rec := newJSONContext(t, http.MethodPost, "/api/reader/7/subscribe",
		`{"amount":199,"razorpayOrderId":"order_1","razorpayPaymentId":"pay_1","razorpaySignature":"sig_1"}`)
	c.SetParamNames("userId")
	c.SetParamValues("7")

	require.NoError(t, h.Subscribe(c))
	assert.Equal(t, http.StatusOK, rec.Code, "a dead broker must not fail the subscription")

	select {
	case <-dialed:
	case <-time.After(2 * time.Second):
		t.Fatal("no payment event was published for the checkout subscription")
	}
}

func TestReaderManualSubscribeAnnouncesPayment(t *testing.T) {
	dialed := listenForBroker(t)
	h, mock, done := newReaderTestHandler(t, &fakeGateway{})
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE user_id=?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reader_details SET is_subscribed=?")).
		WithArgs(true, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newJSONContext(t, http.MethodPut, "/api/reader/7/subscribe/manual", `{"plan":"yearly"}`)
	c.SetParamNames("userId")
	c.SetParamValues("7")

	require.NoError(t, h.ManualSubscribe(c))
	assert.Equal(t, http.StatusOK, rec.Code, "a dead broker must not fail the subscription")

	select {
	case <-dialed:
	case <-time.After(2 * time.Second):
		t.Fatal("no payment event was published for the manual subscription")
	}
}

func TestReaderGetSubscriptionFormatsEndDate(t *testing.T) {
	h, mock, done := newReaderTestHandler(t, &fakeGateway{})
	defer done()

	end := time.Now().UTC().AddDate(0, 0, 10)
	mock.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE user_id=? AND status=?")).
		WithArgs(uint64(7), model.PaymentStatusSuccess).
		WillReturnRows(sqlmock.NewRows([]string{"payment_id", "user_id", "amount", "payment_date",
			"end_date", "payment_mode", "status", "razorpay_order_id", "razorpay_payment_id", "razorpay_signature"}).
			AddRow(1, 7, 199.0, time.Now().UTC().AddDate(0, -1, 0), end, "manual", "Success", nil, nil, nil))

	c, rec := newJSONContext(t, http.MethodGet, "/api/reader/subscription/7", "")
	c.SetParamNames("userId")
	c.SetParamValues("7")

	require.NoError(t, h.GetSubscription(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isSubscribed":true`)
	assert.Contains(t, rec.Body.String(), end.Format("2006-01-02"))
}

func TestReaderGetSubscriptionNone(t *testing.T) {
	h, mock, done := newReaderTestHandler(t, &fakeGateway{})
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE user_id=? AND status=?")).
		WithArgs(uint64(7), model.PaymentStatusSuccess).
		WillReturnRows(sqlmock.NewRows([]string{"payment_id", "user_id", "amount", "payment_date",
			"end_date", "payment_mode", "status", "razorpay_order_id", "razorpay_payment_id", "razorpay_signature"}))

	c, rec := newJSONContext(t, http.MethodGet, "/api/reader/subscription/7", "")
	c.SetParamNames("userId")
	c.SetParamValues("7")

	require.NoError(t, h.GetSubscription(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isSubscribed":false`)
}
