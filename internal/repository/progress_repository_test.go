package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestUpsertInsertsForNewPair(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT progress_id FROM reading_progress WHERE user_id=? AND book_id=?")).
		WithArgs(uint64(7), uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"progress_id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reading_progress")).
		WithArgs(uint64(7), uint64(4), 12.5, 25, 200, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewProgressRepo(db).Upsert(context.Background(), 7, 4, 12.5, 25, 200)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUpdatesExistingPair(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT progress_id FROM reading_progress WHERE user_id=? AND book_id=?")).
		WithArgs(uint64(7), uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"progress_id"}).AddRow(33))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reading_progress SET percent_read=?, last_page=?, total_pages=?, updated_at=? WHERE progress_id=?")).
		WithArgs(50.0, 100, 200, sqlmock.AnyArg(), uint64(33)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewProgressRepo(db).Upsert(context.Background(), 7, 4, 50.0, 100, 200)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUnknownProgress(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reading_progress")).
		WithArgs(10.0, 5, 50, sqlmock.AnyArg(), uint64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewProgressRepo(db).Update(context.Background(), 404, 10.0, 5, 50)
	require.Equal(t, ErrNotFound, err)
}
