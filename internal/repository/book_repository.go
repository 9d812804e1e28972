package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pentopublic/backend/internal/model"
)

// BookRepo provides persistence for books, their files, category links and
// the moderation decision log.
type BookRepo struct{ DB *sql.DB }

func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{DB: db} }

// BookAuthor is the author projection embedded in list items.
type BookAuthor struct {
	UserID uint64 `json:"userId"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// BookListItem is the catalog projection shared by every listing endpoint:
// the book columns plus the author identity and the review aggregate.
// AverageRating is nil when the book has no reviews yet.
type BookListItem struct {
	BookID        uint64      `json:"bookId"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	IsFree        bool        `json:"isFree"`
	Status        string      `json:"status"`
	UploadDate    time.Time   `json:"uploadDate"`
	IsAudible     bool        `json:"isAudible"`
	AverageRating *float64    `json:"averageRating"`
	TotalReviews  int         `json:"totalReviews"`
	Author        *BookAuthor `json:"author"`
}

// bookListSelect joins books to their author identity and review aggregate.
// Every listing endpoint appends its own WHERE/ORDER/LIMIT suffix.
const bookListSelect = `SELECT b.book_id, b.title, b.description, b.is_free, b.status, b.upload_date, b.is_audible,
 u.user_id, u.role, r.user_name, r.email,
 AVG(rv.rating), COUNT(rv.review_id)
 FROM books b
 LEFT JOIN users u ON u.user_id = b.author_id
 LEFT JOIN registrations r ON r.reg_id = u.reg_id
 LEFT JOIN reviews rv ON rv.book_id = b.book_id`

const bookListGroup = ` GROUP BY b.book_id, b.title, b.description, b.is_free, b.status, b.upload_date, b.is_audible, u.user_id, u.role, r.user_name, r.email`

func (rp *BookRepo) list(ctx context.Context, suffix string, args ...interface{}) ([]BookListItem, error) {
	rows, err := rp.DB.QueryContext(ctx, bookListSelect+suffix, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]BookListItem, 0)
	for rows.Next() {
		var (
			it       BookListItem
			authorID sql.NullInt64
			role     sql.NullString
			name     sql.NullString
			email    sql.NullString
			avg      sql.NullFloat64
		)
		if err := rows.Scan(&it.BookID, &it.Title, &it.Description, &it.IsFree, &it.Status,
			&it.UploadDate, &it.IsAudible, &authorID, &role, &name, &email, &avg, &it.TotalReviews); err != nil {
			return nil, err
		}
		if avg.Valid {
			v := avg.Float64
			it.AverageRating = &v
		}
		if authorID.Valid {
			it.Author = &BookAuthor{
				UserID: uint64(authorID.Int64),
				Role:   role.String,
				Name:   name.String,
				Email:  email.String,
			}
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListAll returns every book in the catalog.
func (rp *BookRepo) ListAll(ctx context.Context) ([]BookListItem, error) {
	return rp.list(ctx, bookListGroup)
}

// ListRecent returns the 20 newest uploads.
func (rp *BookRepo) ListRecent(ctx context.Context) ([]BookListItem, error) {
	return rp.list(ctx, bookListGroup+" ORDER BY b.upload_date DESC LIMIT 20")
}

// ListTop returns up to 20 reviewed books ranked by average rating, review
// count breaking ties.  Unreviewed books are excluded.
func (rp *BookRepo) ListTop(ctx context.Context) ([]BookListItem, error) {
	return rp.list(ctx, bookListGroup+
		" HAVING COUNT(rv.review_id) > 0 ORDER BY AVG(rv.rating) DESC, COUNT(rv.review_id) DESC LIMIT 20")
}

// ListFree returns all books flagged free to read.
func (rp *BookRepo) ListFree(ctx context.Context) ([]BookListItem, error) {
	return rp.list(ctx, " WHERE b.is_free = TRUE"+bookListGroup)
}

// ListAudible returns all books carrying an audio edition.
func (rp *BookRepo) ListAudible(ctx context.Context) ([]BookListItem, error) {
	return rp.list(ctx, " WHERE b.is_audible = TRUE"+bookListGroup)
}

// SearchByTitle matches titles by substring.
func (rp *BookRepo) SearchByTitle(ctx context.Context, title string) ([]BookListItem, error) {
	return rp.list(ctx, " WHERE b.title LIKE ?"+bookListGroup, "%"+title+"%")
}

// ListByAuthorID returns the books of one author.
func (rp *BookRepo) ListByAuthorID(ctx context.Context, authorID uint64) ([]BookListItem, error) {
	return rp.list(ctx, " WHERE b.author_id = ?"+bookListGroup, authorID)
}

// ListByAuthorName matches books by author username substring.
func (rp *BookRepo) ListByAuthorName(ctx context.Context, name string) ([]BookListItem, error) {
	return rp.list(ctx, " WHERE r.user_name LIKE ?"+bookListGroup, "%"+name+"%")
}

// ListByCategoryName returns the catalog entries linked to a category.
func (rp *BookRepo) ListByCategoryName(ctx context.Context, category string) ([]BookListItem, error) {
	return rp.list(ctx,
		` JOIN book_categories bc ON bc.book_id = b.book_id
 JOIN categories c ON c.category_id = bc.category_id AND c.name = ?`+bookListGroup, category)
}

// BookFileInfo is the file projection returned with book details.
type BookFileInfo struct {
	FileID        uint64  `json:"fileId"`
	BookID        uint64  `json:"bookId"`
	PdfPath       string  `json:"pdfPath"`
	AudioPath     *string `json:"audioPath"`
	FrontPageLink string  `json:"frontPageLink"`
}

// BookReview is the review projection returned with book details.
type BookReview struct {
	ReviewID   uint64    `json:"reviewId"`
	UserID     uint64    `json:"userId"`
	BookID     uint64    `json:"bookId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	ReviewedAt time.Time `json:"reviewedAt"`
	UserName   *string   `json:"-"`
}

// BookDetail aggregates a catalog entry with its files and reviews.
type BookDetail struct {
	BookListItem
	Files   []BookFileInfo
	Reviews []BookReview
}

// GetDetail loads one book with author, aggregate, files and reviews.
// Returns ErrNotFound when the id is unknown.
func (rp *BookRepo) GetDetail(ctx context.Context, bookID uint64) (BookDetail, error) {
	var d BookDetail
	items, err := rp.list(ctx, " WHERE b.book_id = ?"+bookListGroup, bookID)
	if err != nil {
		return d, err
	}
	if len(items) == 0 {
		return d, ErrNotFound
	}
	d.BookListItem = items[0]

	rows, err := rp.DB.QueryContext(ctx,
		"SELECT file_id, book_id, pdf_path, audio_path, front_page_link FROM book_files WHERE book_id=?",
		bookID)
	if err != nil {
		return d, err
	}
	defer rows.Close()
	for rows.Next() {
		var f BookFileInfo
		var audio sql.NullString
		if err := rows.Scan(&f.FileID, &f.BookID, &f.PdfPath, &audio, &f.FrontPageLink); err != nil {
			return d, err
		}
		if audio.Valid {
			a := audio.String
			f.AudioPath = &a
		}
		d.Files = append(d.Files, f)
	}
	if err := rows.Err(); err != nil {
		return d, err
	}

	d.Reviews, err = rp.reviewsForBook(ctx, bookID)
	return d, err
}

func (rp *BookRepo) reviewsForBook(ctx context.Context, bookID uint64) ([]BookReview, error) {
	rows, err := rp.DB.QueryContext(ctx,
		`SELECT v.review_id, v.user_id, v.book_id, v.rating, v.comment, v.reviewed_at, r.user_name
		 FROM reviews v
		 LEFT JOIN users u ON u.user_id = v.user_id
		 LEFT JOIN registrations r ON r.reg_id = u.reg_id
		 WHERE v.book_id=? ORDER BY v.reviewed_at DESC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BookReview, 0)
	for rows.Next() {
		var rv BookReview
		var name sql.NullString
		if err := rows.Scan(&rv.ReviewID, &rv.UserID, &rv.BookID, &rv.Rating, &rv.Comment, &rv.ReviewedAt, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			n := name.String
			rv.UserName = &n
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// Upload inserts the book, its file row and the category links in one
// transaction.  Unknown category ids are silently skipped.  Returns the
// new book id.
func (rp *BookRepo) Upload(ctx context.Context, b model.Book, f model.BookFile, categoryIDs []uint64) (uint64, error) {
	tx, err := rp.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO books (author_id, title, description, is_free, status, upload_date, is_audible)
		 VALUES (?,?,?,?,?,UTC_TIMESTAMP(),?)`,
		b.AuthorID, b.Title, b.Description, b.IsFree, model.StatusPending, b.IsAudible)
	if err != nil {
		return 0, err
	}
	bookID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, cid := range categoryIDs {
		var n int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM categories WHERE category_id=?", cid).Scan(&n); err != nil {
			return 0, err
		}
		if n == 0 {
			continue // unknown category ids are dropped, not rejected
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO book_categories (book_id, category_id) VALUES (?,?)", bookID, cid); err != nil {
			return 0, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO book_files (book_id, pdf_path, audio_path, front_page_link) VALUES (?,?,?,?)",
		bookID, f.PdfPath, f.AudioPath, f.FrontPageLink); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(bookID), nil
}

// DecisionInfo describes a decision that was just recorded, for the event
// published afterwards.
type DecisionInfo struct {
	BookID    uint64
	Title     string
	AuthorID  uint64
	AdminID   uint64
	Decision  string
	DecidedAt time.Time
}

// Decide sets the book status and appends a row to the decision log.  There
// is deliberately no transition guard: the current status is last-write-wins
// over the append-only history.  Returns ErrNotFound for an unknown book.
func (rp *BookRepo) Decide(ctx context.Context, bookID, adminID uint64, decision string) (DecisionInfo, error) {
	info := DecisionInfo{BookID: bookID, AdminID: adminID, Decision: decision}
	err := rp.DB.QueryRowContext(ctx,
		"SELECT title, author_id FROM books WHERE book_id=? LIMIT 1", bookID).
		Scan(&info.Title, &info.AuthorID)
	if err == sql.ErrNoRows {
		return info, ErrNotFound
	}
	if err != nil {
		return info, err
	}

	if _, err := rp.DB.ExecContext(ctx,
		"UPDATE books SET status=? WHERE book_id=?", decision, bookID); err != nil {
		return info, err
	}
	info.DecidedAt = time.Now().UTC()
	_, err = rp.DB.ExecContext(ctx,
		"INSERT INTO admin_approvals (book_id, admin_id, decision, decision_date) VALUES (?,?,?,?)",
		bookID, adminID, decision, info.DecidedAt)
	return info, err
}

// PendingBook is the moderation-queue projection with file info.
type PendingBook struct {
	BookID      uint64         `json:"bookId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	IsFree      bool           `json:"isFree"`
	UploadDate  time.Time      `json:"uploadDate"`
	Files       []BookFileInfo `json:"files"`
}

// ListPending returns books awaiting a decision, each with its file links.
func (rp *BookRepo) ListPending(ctx context.Context) ([]PendingBook, error) {
	rows, err := rp.DB.QueryContext(ctx,
		`SELECT b.book_id, b.title, b.description, b.is_free, b.upload_date,
		 f.file_id, f.pdf_path, f.audio_path, f.front_page_link
		 FROM books b
		 LEFT JOIN book_files f ON f.book_id = b.book_id
		 WHERE b.status=? ORDER BY b.upload_date`, model.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PendingBook, 0)
	index := map[uint64]int{}
	for rows.Next() {
		var (
			pb     PendingBook
			fileID sql.NullInt64
			pdf    sql.NullString
			audio  sql.NullString
			front  sql.NullString
		)
		if err := rows.Scan(&pb.BookID, &pb.Title, &pb.Description, &pb.IsFree, &pb.UploadDate,
			&fileID, &pdf, &audio, &front); err != nil {
			return nil, err
		}
		i, seen := index[pb.BookID]
		if !seen {
			pb.Files = []BookFileInfo{}
			out = append(out, pb)
			i = len(out) - 1
			index[pb.BookID] = i
		}
		if fileID.Valid {
			f := BookFileInfo{FileID: uint64(fileID.Int64), BookID: pb.BookID, PdfPath: pdf.String, FrontPageLink: front.String}
			if audio.Valid {
				a := audio.String
				f.AudioPath = &a
			}
			out[i].Files = append(out[i].Files, f)
		}
	}
	return out, rows.Err()
}

// AuthorBook is an author's view of their own book with the latest
// moderation decision attached.
type AuthorBook struct {
	BookID        uint64     `json:"bookId"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	IsFree        bool       `json:"isFree"`
	Status        string     `json:"status"`
	UploadDate    time.Time  `json:"uploadDate"`
	AdminDecision *string    `json:"adminDecision"`
	DecisionDate  *time.Time `json:"decisionDate"`
}

// ListByAuthorWithDecision returns the author's books joined with the most
// recent admin_approvals row of each, if any.
func (rp *BookRepo) ListByAuthorWithDecision(ctx context.Context, authorID uint64) ([]AuthorBook, error) {
	rows, err := rp.DB.QueryContext(ctx,
		`SELECT b.book_id, b.title, b.description, b.is_free, b.status, b.upload_date,
		 aa.decision, aa.decision_date
		 FROM books b
		 LEFT JOIN admin_approvals aa ON aa.approval_id = (
		   SELECT a2.approval_id FROM admin_approvals a2
		   WHERE a2.book_id = b.book_id
		   ORDER BY a2.decision_date DESC, a2.approval_id DESC LIMIT 1)
		 WHERE b.author_id = ?`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AuthorBook, 0)
	for rows.Next() {
		var (
			ab       AuthorBook
			decision sql.NullString
			date     sql.NullTime
		)
		if err := rows.Scan(&ab.BookID, &ab.Title, &ab.Description, &ab.IsFree, &ab.Status,
			&ab.UploadDate, &decision, &date); err != nil {
			return nil, err
		}
		if decision.Valid {
			d := decision.String
			ab.AdminDecision = &d
		}
		if date.Valid {
			t := date.Time
			ab.DecisionDate = &t
		}
		out = append(out, ab)
	}
	return out, rows.Err()
}

// Exists reports whether a book row exists.
func (rp *BookRepo) Exists(ctx context.Context, bookID uint64) (bool, error) {
	var n int
	err := rp.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM books WHERE book_id=?", bookID).Scan(&n)
	return n > 0, err
}
