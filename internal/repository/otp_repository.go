package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pentopublic/backend/internal/model"
)

// OtpRepo persists password-reset codes, one row per email overwritten on
// every resend.
type OtpRepo struct{ DB *sql.DB }

func NewOtpRepo(db *sql.DB) *OtpRepo { return &OtpRepo{DB: db} }

// Upsert writes the code and expiry for an email, replacing any pending
// code for the same address.
func (r *OtpRepo) Upsert(ctx context.Context, email, otp string, expiry time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE otp_entries SET otp=?, expiry_time=? WHERE email=?", otp, expiry, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		_, err = r.DB.ExecContext(ctx,
			"INSERT INTO otp_entries (email, otp, expiry_time) VALUES (?,?,?)", email, otp, expiry)
	}
	return err
}

// Get returns the pending entry for an email, or ErrNotFound.
func (r *OtpRepo) Get(ctx context.Context, email string) (model.OtpEntry, error) {
	var e model.OtpEntry
	err := r.DB.QueryRowContext(ctx,
		"SELECT email, otp, expiry_time FROM otp_entries WHERE email=? LIMIT 1",
		email).Scan(&e.Email, &e.Otp, &e.ExpiryTime)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	return e, err
}
