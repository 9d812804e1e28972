// Package queue defines message payloads exchanged over the message broker.
package queue

// BookDecidedEvent is published whenever an admin approves or rejects a
// book.  It carries enough information for downstream consumers to log or
// notify without querying the primary database.
type BookDecidedEvent struct {
	BookID    uint64 `json:"book_id"`
	Title     string `json:"title"`
	AuthorID  uint64 `json:"author_id"`
	AdminID   uint64 `json:"admin_id"`
	Decision  string `json:"decision"`
	DecidedAt string `json:"decided_at"`
}

// PaymentRecordedEvent is published after a payment row is written,
// regardless of whether it came from the gateway flow or a manual
// subscription.
type PaymentRecordedEvent struct {
	PaymentID   uint64  `json:"payment_id"`
	UserID      uint64  `json:"user_id"`
	Amount      float64 `json:"amount"`
	PaymentMode string  `json:"payment_mode"`
	EndDate     string  `json:"end_date"`
	RecordedAt  string  `json:"recorded_at"`
}

// Queue names, durable on the broker.
const (
	BookDecidedQueue     = "book.decided"
	PaymentRecordedQueue = "payment.recorded"
)
