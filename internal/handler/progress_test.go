package handler

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pentopublic/backend/internal/repository"
)

func newProgressTestHandler(t *testing.T) (*ProgressHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewProgressHandler(repository.NewProgressRepo(db))
	return h, mock, func() { _ = db.Close() }
}

func progressColumns() []string {
	return []string{"progress_id", "user_id", "book_id", "title", "user_name",
		"percent_read", "last_page", "total_pages", "updated_at"}
}

// The upsert route must echo back the row the server persisted, not the
// request payload.
func TestUpsertEchoesStoredRow(t *testing.T) {
	h, mock, done := newProgressTestHandler(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT progress_id FROM reading_progress WHERE user_id=? AND book_id=?")).
		WithArgs(uint64(7), uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"progress_id"}).AddRow(33))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reading_progress SET")).
		WithArgs(42.0, 84, 200, sqlmock.AnyArg(), uint64(33)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.user_id=? AND p.book_id=?")).
		WithArgs(uint64(7), uint64(4)).
		WillReturnRows(sqlmock.NewRows(progressColumns()).
			AddRow(33, 7, 4, "First Novel", "alice", 42.0, 84, 200, time.Now().UTC()))

	c, rec := newJSONContext(t, http.MethodPut, "/api/books/4/progress/7",
		`{"percentRead":42,"lastPage":84,"totalPages":200}`)
	c.SetParamNames("id", "userId")
	c.SetParamValues("4", "7")

	require.NoError(t, h.Upsert(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"progressId":33`)
	assert.Contains(t, rec.Body.String(), `"percentRead":42`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUserAndBookNotFound(t *testing.T) {
	h, mock, done := newProgressTestHandler(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.user_id=? AND p.book_id=?")).
		WithArgs(uint64(7), uint64(4)).
		WillReturnRows(sqlmock.NewRows(progressColumns()))

	c, rec := newJSONContext(t, http.MethodGet, "/api/progress/user/7/book/4", "")
	c.SetParamNames("userId", "bookId")
	c.SetParamValues("7", "4")

	require.NoError(t, h.GetByUserAndBook(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
