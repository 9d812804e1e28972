package model

import "time"

// PaymentStatusSuccess is the only status the API writes today; failed
// gateway payments are never recorded.
const PaymentStatusSuccess = "Success"

// Payment mirrors the `payments` table.  A reader's subscription state is
// derived at read time as "latest Success payment whose end date has not
// passed"; payment rows are immutable once written.
//
// Fields:
//
//	PaymentID         – primary key identifier.
//	UserID            – paying user.
//	Amount            – amount in the client currency.
//	PaymentDate       – when the payment was recorded.
//	EndDate           – end of the subscription window bought.
//	PaymentMode       – "Razorpay", "Manual", ...
//	Status            – payment outcome, always "Success" today.
//	RazorpayOrderID   – gateway order id (nullable for manual payments).
//	RazorpayPaymentID – gateway payment id (nullable).
//	RazorpaySignature – gateway checksum of order+payment ids (nullable).
type Payment struct {
	PaymentID         uint64    // payments.payment_id
	UserID            uint64    // payments.user_id
	Amount            float64   // payments.amount
	PaymentDate       time.Time // payments.payment_date
	EndDate           time.Time // payments.end_date
	PaymentMode       string    // payments.payment_mode
	Status            string    // payments.status
	RazorpayOrderID   *string   // payments.razorpay_order_id (nullable)
	RazorpayPaymentID *string   // payments.razorpay_payment_id (nullable)
	RazorpaySignature *string   // payments.razorpay_signature (nullable)
}

// OtpEntry mirrors the `otp_entries` table used by the password-reset flow.
// One row per email, overwritten on every resend.
type OtpEntry struct {
	Email      string    // otp_entries.email (primary key)
	Otp        string    // otp_entries.otp (6 digits)
	ExpiryTime time.Time // otp_entries.expiry_time
}
