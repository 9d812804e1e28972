package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pentopublic/backend/internal/model"
)

// AdminRepo serves the admin dashboard aggregations: reader and author
// listings, book counts and the full decision history.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

// ReaderSummary is a reader with the denormalized subscription flag.
type ReaderSummary struct {
	UserID       uint64 `json:"userId"`
	UserName     string `json:"userName"`
	Email        string `json:"email"`
	IsSubscribed bool   `json:"isSubscribed"`
}

// ListReaders returns all reader accounts with their subscription flag.
func (r *AdminRepo) ListReaders(ctx context.Context) ([]ReaderSummary, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT u.user_id, rg.user_name, rg.email, COALESCE(rd.is_subscribed, FALSE)
		 FROM users u
		 JOIN registrations rg ON rg.reg_id = u.reg_id
		 LEFT JOIN reader_details rd ON rd.user_id = u.user_id
		 WHERE u.role = ?`, model.RoleReader)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ReaderSummary, 0)
	for rows.Next() {
		var s ReaderSummary
		if err := rows.Scan(&s.UserID, &s.UserName, &s.Email, &s.IsSubscribed); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AuthorSummary is an author with their approved-book count.
type AuthorSummary struct {
	UserID    uint64 `json:"userId"`
	UserName  string `json:"userName"`
	Email     string `json:"email"`
	BookCount int    `json:"bookCount"`
}

// ListAuthors returns all author accounts with the number of approved books
// each has published.
func (r *AdminRepo) ListAuthors(ctx context.Context) ([]AuthorSummary, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT u.user_id, rg.user_name, rg.email,
		 (SELECT COUNT(*) FROM books b WHERE b.author_id = u.user_id AND b.status = ?)
		 FROM author_details ad
		 JOIN users u ON u.user_id = ad.user_id
		 JOIN registrations rg ON rg.reg_id = u.reg_id`, model.StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AuthorSummary, 0)
	for rows.Next() {
		var s AuthorSummary
		if err := rows.Scan(&s.UserID, &s.UserName, &s.Email, &s.BookCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountBooks returns the total number of books.
func (r *AdminRepo) CountBooks(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&n)
	return n, err
}

// Dashboard aggregates the counters shown on the admin landing page.
type Dashboard struct {
	TotalBooks        int
	ApprovedBooks     int
	PendingBooks      int
	RejectedBooks     int
	TotalAuthors      int
	TotalReaders      int
	SubscribedReaders int
}

// LoadDashboard runs the count queries behind the dashboard endpoint.
func (r *AdminRepo) LoadDashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		 COUNT(CASE WHEN status=? THEN 1 END),
		 COUNT(CASE WHEN status=? THEN 1 END),
		 COUNT(CASE WHEN status=? THEN 1 END)
		 FROM books`,
		model.StatusApproved, model.StatusPending, model.StatusRejected).Scan(
		&d.TotalBooks, &d.ApprovedBooks, &d.PendingBooks, &d.RejectedBooks)
	if err != nil {
		return d, err
	}
	err = r.DB.QueryRowContext(ctx,
		`SELECT COUNT(CASE WHEN role=? THEN 1 END), COUNT(CASE WHEN role=? THEN 1 END) FROM users`,
		model.RoleAuthor, model.RoleReader).Scan(&d.TotalAuthors, &d.TotalReaders)
	if err != nil {
		return d, err
	}
	err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reader_details WHERE is_subscribed = TRUE").Scan(&d.SubscribedReaders)
	return d, err
}

// DecisionRecord is a moderation decision joined with the book title and
// the deciding admin's identity.
type DecisionRecord struct {
	ApprovalID    uint64    `json:"approvalId"`
	BookTitle     string    `json:"bookTitle"`
	AdminUserName string    `json:"adminUserName"`
	AdminEmail    string    `json:"adminEmail"`
	Decision      string    `json:"decision"`
	DecisionDate  time.Time `json:"decisionDate"`
}

// ListDecisions returns the full moderation history, newest first.
func (r *AdminRepo) ListDecisions(ctx context.Context) ([]DecisionRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT aa.approval_id, b.title, a.user_name, a.email, aa.decision, aa.decision_date
		 FROM admin_approvals aa
		 JOIN books b ON b.book_id = aa.book_id
		 JOIN admins a ON a.admin_id = aa.admin_id
		 ORDER BY aa.decision_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DecisionRecord, 0)
	for rows.Next() {
		var d DecisionRecord
		if err := rows.Scan(&d.ApprovalID, &d.BookTitle, &d.AdminUserName, &d.AdminEmail,
			&d.Decision, &d.DecisionDate); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
