package handler

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pentopublic/backend/internal/model"
	"github.com/pentopublic/backend/internal/repository"
)

func newUploadTestHandler(t *testing.T) (*UploadHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewUploadHandler(repository.NewUserRepo(db), repository.NewBookRepo(db))
	return h, mock, func() { _ = db.Close() }
}

func TestUploadRequiresFileLinks(t *testing.T) {
	cases := []string{
		`{"authorId":12,"pdfPath":"x.pdf","frontPageLink":"x.jpg"}`,
		`{"authorId":12,"title":"A","frontPageLink":"x.jpg"}`,
		`{"authorId":12,"title":"A","pdfPath":"x.pdf"}`,
	}
	for _, body := range cases {
		h, mock, done := newUploadTestHandler(t)
		c, rec := newJSONContext(t, http.MethodPost, "/api/upload/book", body)

		require.NoError(t, h.Upload(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
		done()
	}
}

func TestUploadUnknownAuthor(t *testing.T) {
	h, mock, done := newUploadTestHandler(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE user_id=?")).
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	c, rec := newJSONContext(t, http.MethodPost, "/api/upload/book",
		`{"authorId":404,"title":"A","pdfPath":"x.pdf","frontPageLink":"x.jpg"}`)

	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "author")
}

func TestUploadStoresPendingBook(t *testing.T) {
	h, mock, done := newUploadTestHandler(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE user_id=?")).
		WithArgs(uint64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO books")).
		WithArgs(uint64(12), "First Novel", "a debut", false, model.StatusPending, false).
		WillReturnResult(sqlmock.NewResult(30, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO book_files")).
		WithArgs(int64(30), "x.pdf", nil, "x.jpg").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	c, rec := newJSONContext(t, http.MethodPost, "/api/upload/book",
		`{"authorId":12,"title":"First Novel","description":"a debut","pdfPath":"x.pdf","frontPageLink":"x.jpg"}`)

	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pending approval")
	assert.Contains(t, rec.Body.String(), `"bookId":30`)
	require.NoError(t, mock.ExpectationsWereMet())
}
