package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pentopublic/backend/internal/model"
)

// PaymentRepo persists the immutable payment ledger.  Subscription state is
// never stored here; it is derived from the latest successful payment.
type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

// Insert writes a payment row and returns its id.  Rows are append-only;
// nothing ever updates a payment after this.
func (r *PaymentRepo) Insert(ctx context.Context, p model.Payment) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO payments
		 (user_id, amount, payment_date, end_date, payment_mode, status,
		  razorpay_order_id, razorpay_payment_id, razorpay_signature)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		p.UserID, p.Amount, p.PaymentDate, p.EndDate, p.PaymentMode, p.Status,
		p.RazorpayOrderID, p.RazorpayPaymentID, p.RazorpaySignature)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// PaymentWithUser is a ledger row joined with the payer's username for the
// admin listing.
type PaymentWithUser struct {
	PaymentID   uint64    `json:"paymentId"`
	Amount      float64   `json:"amount"`
	PaymentMode string    `json:"paymentMode"`
	Status      string    `json:"status"`
	PaymentDate time.Time `json:"paymentDate"`
	EndDate     time.Time `json:"endDate"`
	UserName    string    `json:"userName"`
}

// ListAll returns the full ledger with usernames, "Unknown" when the payer
// row is gone.
func (r *PaymentRepo) ListAll(ctx context.Context) ([]PaymentWithUser, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT p.payment_id, p.amount, p.payment_mode, p.status, p.payment_date, p.end_date, rg.user_name
		 FROM payments p
		 LEFT JOIN users u ON u.user_id = p.user_id
		 LEFT JOIN registrations rg ON rg.reg_id = u.reg_id
		 ORDER BY p.payment_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PaymentWithUser, 0)
	for rows.Next() {
		var (
			p    PaymentWithUser
			name sql.NullString
		)
		if err := rows.Scan(&p.PaymentID, &p.Amount, &p.PaymentMode, &p.Status,
			&p.PaymentDate, &p.EndDate, &name); err != nil {
			return nil, err
		}
		p.UserName = "Unknown"
		if name.Valid {
			p.UserName = name.String
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LatestSuccess returns the user's most recent successful payment, or
// ErrNotFound when the user has never paid.
func (r *PaymentRepo) LatestSuccess(ctx context.Context, userID uint64) (model.Payment, error) {
	var (
		p         model.Payment
		orderID   sql.NullString
		paymentID sql.NullString
		signature sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT payment_id, user_id, amount, payment_date, end_date, payment_mode, status,
		 razorpay_order_id, razorpay_payment_id, razorpay_signature
		 FROM payments WHERE user_id=? AND status=?
		 ORDER BY payment_date DESC, payment_id DESC LIMIT 1`,
		userID, model.PaymentStatusSuccess).Scan(
		&p.PaymentID, &p.UserID, &p.Amount, &p.PaymentDate, &p.EndDate, &p.PaymentMode, &p.Status,
		&orderID, &paymentID, &signature)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if orderID.Valid {
		v := orderID.String
		p.RazorpayOrderID = &v
	}
	if paymentID.Valid {
		v := paymentID.String
		p.RazorpayPaymentID = &v
	}
	if signature.Valid {
		v := signature.String
		p.RazorpaySignature = &v
	}
	return p, nil
}

// SubscriptionStatus derives the reader's paid-access state at the given
// instant.  The window is [payment_date, end_date); an end date exactly
// equal to now still counts as subscribed, matching the strict "end date
// before now" cutoff used everywhere else.
type SubscriptionStatus struct {
	IsSubscribed bool
	EndDate      time.Time
	PaymentMode  string
	Status       string
}

// Subscription resolves the status from the latest successful payment.
func (r *PaymentRepo) Subscription(ctx context.Context, userID uint64, now time.Time) (SubscriptionStatus, error) {
	p, err := r.LatestSuccess(ctx, userID)
	if err == ErrNotFound {
		return SubscriptionStatus{}, nil
	}
	if err != nil {
		return SubscriptionStatus{}, err
	}
	if p.EndDate.Before(now) {
		return SubscriptionStatus{}, nil
	}
	return SubscriptionStatus{
		IsSubscribed: true,
		EndDate:      p.EndDate,
		PaymentMode:  p.PaymentMode,
		Status:       p.Status,
	}, nil
}
