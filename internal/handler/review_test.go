package handler

import (
	"fmt"
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pentopublic/backend/internal/repository"
)

func newReviewTestHandler(t *testing.T) (*ReviewHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewReviewHandler(repository.NewReviewRepo(db), repository.NewUserRepo(db), repository.NewBookRepo(db))
	return h, mock, func() { _ = db.Close() }
}

func TestAddReviewRatingBounds(t *testing.T) {
	for _, rating := range []int{-1, 0, 6, 100} {
		h, mock, done := newReviewTestHandler(t)
		c, rec := newJSONContext(t, http.MethodPost, "/api/reviews",
			fmt.Sprintf(`{"userId":7,"bookId":4,"rating":%d,"comment":"x"}`, rating))

		require.NoError(t, h.Add(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "rating %d must be rejected", rating)
		assert.NoError(t, mock.ExpectationsWereMet(), "rating %d must not reach the database", rating)
		done()
	}
}

func TestAddReviewAcceptsValidRatings(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		h, mock, done := newReviewTestHandler(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE user_id=?")).
			WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM books WHERE book_id=?")).
			WithArgs(uint64(4)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reviews")).
			WithArgs(uint64(7), uint64(4), rating, "great", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(21, 1))

		c, rec := newJSONContext(t, http.MethodPost, "/api/reviews",
			fmt.Sprintf(`{"userId":7,"bookId":4,"rating":%d,"comment":"great"}`, rating))

		require.NoError(t, h.Add(c))
		assert.Equal(t, http.StatusOK, rec.Code, "rating %d must be accepted", rating)
		assert.NoError(t, mock.ExpectationsWereMet())
		done()
	}
}

func TestAddReviewUnknownBook(t *testing.T) {
	h, mock, done := newReviewTestHandler(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE user_id=?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM books WHERE book_id=?")).
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	c, rec := newJSONContext(t, http.MethodPost, "/api/reviews",
		`{"userId":7,"bookId":404,"rating":3,"comment":"x"}`)

	require.NoError(t, h.Add(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteReviewNotFound(t *testing.T) {
	h, mock, done := newReviewTestHandler(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reviews WHERE review_id=?")).
		WithArgs(uint64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, rec := newJSONContext(t, http.MethodDelete, "/api/reviews/404", "")
	c.SetParamNames("reviewId")
	c.SetParamValues("404")

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAverageNoRatings(t *testing.T) {
	h, mock, done := newReviewTestHandler(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT AVG(rating), COUNT(*) FROM reviews WHERE book_id=?")).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(nil, 0))

	c, rec := newJSONContext(t, http.MethodGet, "/api/reviews/average/4", "")
	c.SetParamNames("bookId")
	c.SetParamValues("4")

	require.NoError(t, h.Average(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No ratings yet")
}

func TestAverageWithRatings(t *testing.T) {
	h, mock, done := newReviewTestHandler(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT AVG(rating), COUNT(*) FROM reviews WHERE book_id=?")).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(4.25, 8))

	c, rec := newJSONContext(t, http.MethodGet, "/api/reviews/average/4", "")
	c.SetParamNames("bookId")
	c.SetParamValues("4")

	require.NoError(t, h.Average(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "4.25")
	assert.Contains(t, rec.Body.String(), `"totalReviews":8`)
}
