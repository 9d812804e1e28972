package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pentopublic/backend/internal/model"
)

// ReviewRepo provides CRUD and the on-read aggregate for book reviews.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

// ReviewWithUser is a review joined with the reviewer's identity.
type ReviewWithUser struct {
	ReviewID   uint64    `json:"reviewId"`
	UserID     uint64    `json:"userId"`
	BookID     uint64    `json:"bookId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	ReviewedAt time.Time `json:"reviewedAt"`
	UserName   *string   `json:"userName"`
	Email      *string   `json:"email"`
}

// ListByBook returns all reviews for a book, newest first.
func (r *ReviewRepo) ListByBook(ctx context.Context, bookID uint64) ([]ReviewWithUser, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT v.review_id, v.user_id, v.book_id, v.rating, v.comment, v.reviewed_at,
		 rg.user_name, rg.email
		 FROM reviews v
		 LEFT JOIN users u ON u.user_id = v.user_id
		 LEFT JOIN registrations rg ON rg.reg_id = u.reg_id
		 WHERE v.book_id=? ORDER BY v.reviewed_at DESC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ReviewWithUser, 0)
	for rows.Next() {
		var (
			rv    ReviewWithUser
			name  sql.NullString
			email sql.NullString
		)
		if err := rows.Scan(&rv.ReviewID, &rv.UserID, &rv.BookID, &rv.Rating, &rv.Comment,
			&rv.ReviewedAt, &name, &email); err != nil {
			return nil, err
		}
		if name.Valid {
			n := name.String
			rv.UserName = &n
		}
		if email.Valid {
			e := email.String
			rv.Email = &e
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// Create inserts a review and returns the full stored row.
func (r *ReviewRepo) Create(ctx context.Context, userID, bookID uint64, rating int, comment string) (model.Review, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (user_id, book_id, rating, comment, reviewed_at) VALUES (?,?,?,?,?)",
		userID, bookID, rating, comment, now)
	if err != nil {
		return model.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Review{}, err
	}
	return model.Review{
		ReviewID:   uint64(id),
		UserID:     userID,
		BookID:     bookID,
		Rating:     rating,
		Comment:    comment,
		ReviewedAt: now,
	}, nil
}

// Get fetches one review by id.
func (r *ReviewRepo) Get(ctx context.Context, reviewID uint64) (model.Review, error) {
	var rv model.Review
	err := r.DB.QueryRowContext(ctx,
		"SELECT review_id, user_id, book_id, rating, comment, reviewed_at FROM reviews WHERE review_id=? LIMIT 1",
		reviewID).Scan(&rv.ReviewID, &rv.UserID, &rv.BookID, &rv.Rating, &rv.Comment, &rv.ReviewedAt)
	if err == sql.ErrNoRows {
		return rv, ErrNotFound
	}
	return rv, err
}

// Update rewrites rating and comment of an existing review and refreshes
// its timestamp.
func (r *ReviewRepo) Update(ctx context.Context, reviewID uint64, rating int, comment string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE reviews SET rating=?, comment=?, reviewed_at=? WHERE review_id=?",
		rating, comment, time.Now().UTC(), reviewID)
	return err
}

// Delete removes a review.  Returns ErrNotFound when no row matched.
func (r *ReviewRepo) Delete(ctx context.Context, reviewID uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM reviews WHERE review_id=?", reviewID)
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

// Average scans the book's ratings and returns (average, count).  Both are
// zero when the book has no reviews.
func (r *ReviewRepo) Average(ctx context.Context, bookID uint64) (float64, int, error) {
	var (
		avg   sql.NullFloat64
		count int
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT AVG(rating), COUNT(*) FROM reviews WHERE book_id=?", bookID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}
	return avg.Float64, count, nil
}
