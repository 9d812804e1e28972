package model

import "time"

// Book status values.  Books are uploaded as pending and flipped by an
// admin decision; the column stores the latest decision outcome while the
// full history lives in admin_approvals.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Book mirrors the `books` table.
type Book struct {
	BookID      uint64    // books.book_id
	AuthorID    uint64    // books.author_id (references users.user_id)
	Title       string    // books.title
	Description string    // books.description
	IsFree      bool      // books.is_free
	Status      string    // books.status (latest admin decision)
	UploadDate  time.Time // books.upload_date
	IsAudible   bool      // books.is_audible
}

// BookFile stores the storage links for a book.  The table allows several
// rows per book but the application writes exactly one at upload time.
type BookFile struct {
	FileID        uint64  // book_files.file_id
	BookID        uint64  // book_files.book_id
	PdfPath       string  // book_files.pdf_path
	AudioPath     *string // book_files.audio_path (nullable)
	FrontPageLink string  // book_files.front_page_link
}

// Category is a browsable genre label.
type Category struct {
	CategoryID uint64 // categories.category_id
	Name       string // categories.name
}

// BookCategory joins books to categories many-to-many.
type BookCategory struct {
	BookID     uint64 // book_categories.book_id
	CategoryID uint64 // book_categories.category_id
}

// AdminApproval is an append-only log of moderation decisions.  There is no
// transition guard: a book can be approved after a rejection and vice versa,
// and the books.status column always reflects the last row written here.
type AdminApproval struct {
	ApprovalID   uint64    // admin_approvals.approval_id
	BookID       uint64    // admin_approvals.book_id
	AdminID      uint64    // admin_approvals.admin_id
	Decision     string    // admin_approvals.decision ("approved"/"rejected")
	DecisionDate time.Time // admin_approvals.decision_date
}
