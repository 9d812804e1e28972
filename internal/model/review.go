package model

import "time"

// Review mirrors the `reviews` table.  Rating is bounded to [1,5] by the
// handlers; averages are computed by query, never stored.
type Review struct {
	ReviewID   uint64    // reviews.review_id
	UserID     uint64    // reviews.user_id
	BookID     uint64    // reviews.book_id
	Rating     int       // reviews.rating (1..5)
	Comment    string    // reviews.comment
	ReviewedAt time.Time // reviews.reviewed_at
}

// ReadingProgress mirrors the `reading_progress` table.  One row per
// (user, book) pair, kept unique by the upsert path rather than a database
// constraint.
type ReadingProgress struct {
	ProgressID  uint64    // reading_progress.progress_id
	UserID      uint64    // reading_progress.user_id
	BookID      uint64    // reading_progress.book_id
	PercentRead float64   // reading_progress.percent_read
	LastPage    int       // reading_progress.last_page
	TotalPages  int       // reading_progress.total_pages
	UpdatedAt   time.Time // reading_progress.updated_at
}
