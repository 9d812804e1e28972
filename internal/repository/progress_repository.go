package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pentopublic/backend/internal/model"
)

// ProgressRepo persists per-(user,book) reading positions.  Uniqueness of
// the pair is kept by the upsert path, not a database constraint.
type ProgressRepo struct{ DB *sql.DB }

func NewProgressRepo(db *sql.DB) *ProgressRepo { return &ProgressRepo{DB: db} }

// ProgressEntry is the progress row joined with book and user names for
// listing endpoints.  BookTitle/UserName are nil when the join found no row.
type ProgressEntry struct {
	ProgressID  uint64    `json:"progressId"`
	UserID      uint64    `json:"userId"`
	BookID      uint64    `json:"bookId"`
	BookTitle   *string   `json:"bookTitle"`
	UserName    *string   `json:"userName"`
	PercentRead float64   `json:"percentRead"`
	LastPage    int       `json:"lastPage"`
	TotalPages  int       `json:"totalPages"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

const progressSelect = `SELECT p.progress_id, p.user_id, p.book_id, b.title, rg.user_name,
 p.percent_read, p.last_page, p.total_pages, p.updated_at
 FROM reading_progress p
 LEFT JOIN books b ON b.book_id = p.book_id
 LEFT JOIN users u ON u.user_id = p.user_id
 LEFT JOIN registrations rg ON rg.reg_id = u.reg_id`

func (r *ProgressRepo) query(ctx context.Context, suffix string, args ...interface{}) ([]ProgressEntry, error) {
	rows, err := r.DB.QueryContext(ctx, progressSelect+suffix, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ProgressEntry, 0)
	for rows.Next() {
		var (
			p     ProgressEntry
			title sql.NullString
			name  sql.NullString
		)
		if err := rows.Scan(&p.ProgressID, &p.UserID, &p.BookID, &title, &name,
			&p.PercentRead, &p.LastPage, &p.TotalPages, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if title.Valid {
			t := title.String
			p.BookTitle = &t
		}
		if name.Valid {
			n := name.String
			p.UserName = &n
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListAll returns every progress row.
func (r *ProgressRepo) ListAll(ctx context.Context) ([]ProgressEntry, error) {
	return r.query(ctx, "")
}

// GetByID returns one progress row, or ErrNotFound.
func (r *ProgressRepo) GetByID(ctx context.Context, progressID uint64) (ProgressEntry, error) {
	items, err := r.query(ctx, " WHERE p.progress_id=?", progressID)
	if err != nil {
		return ProgressEntry{}, err
	}
	if len(items) == 0 {
		return ProgressEntry{}, ErrNotFound
	}
	return items[0], nil
}

// ListByUser returns a user's progress rows.
func (r *ProgressRepo) ListByUser(ctx context.Context, userID uint64) ([]ProgressEntry, error) {
	return r.query(ctx, " WHERE p.user_id=?", userID)
}

// ListByBook returns every reader's progress in a book.
func (r *ProgressRepo) ListByBook(ctx context.Context, bookID uint64) ([]ProgressEntry, error) {
	return r.query(ctx, " WHERE p.book_id=?", bookID)
}

// GetByUserAndBook returns the single row for a (user, book) pair, or
// ErrNotFound.
func (r *ProgressRepo) GetByUserAndBook(ctx context.Context, userID, bookID uint64) (ProgressEntry, error) {
	items, err := r.query(ctx, " WHERE p.user_id=? AND p.book_id=? LIMIT 1", userID, bookID)
	if err != nil {
		return ProgressEntry{}, err
	}
	if len(items) == 0 {
		return ProgressEntry{}, ErrNotFound
	}
	return items[0], nil
}

// Create inserts a new progress row and returns it with id and timestamp
// filled in.
func (r *ProgressRepo) Create(ctx context.Context, p model.ReadingProgress) (model.ReadingProgress, error) {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO reading_progress (user_id, book_id, percent_read, last_page, total_pages, updated_at)
		 VALUES (?,?,?,?,?,?)`,
		p.UserID, p.BookID, p.PercentRead, p.LastPage, p.TotalPages, p.UpdatedAt)
	if err != nil {
		return p, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return p, err
	}
	p.ProgressID = uint64(id)
	return p, nil
}

// Update rewrites position fields of an existing row.  Returns ErrNotFound
// when the id is unknown.
func (r *ProgressRepo) Update(ctx context.Context, progressID uint64, percent float64, lastPage, totalPages int) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reading_progress SET percent_read=?, last_page=?, total_pages=?, updated_at=? WHERE progress_id=?",
		percent, lastPage, totalPages, time.Now().UTC(), progressID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a progress row.  Returns ErrNotFound when no row matched.
func (r *ProgressRepo) Delete(ctx context.Context, progressID uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM reading_progress WHERE progress_id=?", progressID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert writes the position for a (user, book) pair, updating the existing
// row when one exists and inserting otherwise.
func (r *ProgressRepo) Upsert(ctx context.Context, userID, bookID uint64, percent float64, lastPage, totalPages int) error {
	var progressID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT progress_id FROM reading_progress WHERE user_id=? AND book_id=? LIMIT 1",
		userID, bookID).Scan(&progressID)
	switch {
	case err == sql.ErrNoRows:
		_, err = r.Create(ctx, model.ReadingProgress{
			UserID:      userID,
			BookID:      bookID,
			PercentRead: percent,
			LastPage:    lastPage,
			TotalPages:  totalPages,
		})
		return err
	case err != nil:
		return err
	}
	return r.Update(ctx, progressID, percent, lastPage, totalPages)
}
