package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pentopublic/backend/internal/model"
	"github.com/pentopublic/backend/internal/utils"
)

// UserRepo persists registrations, users, admins and the per-role detail
// rows.  Multi-row writes run inside a transaction so a duplicate identity
// can never leave a partial registration behind.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// LoginUser is the joined registration+user row used by the login flow.
type LoginUser struct {
	UserID       uint64
	UserName     string
	Email        string
	PasswordHash string
	Role         string
}

// RegisterUser creates a registration, the linked user row and the
// role-specific detail row in one transaction.  It returns the new user id.
// A duplicate username or email yields ErrIdentityExists.
func (r *UserRepo) RegisterUser(ctx context.Context, email, userName, password, role, bio string, isSubscribed bool, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registrations WHERE user_name=? OR email=?",
		userName, email).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists > 0 {
		return 0, ErrIdentityExists
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO registrations (email, user_name, password) VALUES (?,?,?)",
		email, userName, hash)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrIdentityExists
		}
		return 0, err
	}
	regID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	res, err = tx.ExecContext(ctx,
		"INSERT INTO users (reg_id, role, created_at) VALUES (?,?,UTC_TIMESTAMP())",
		regID, role)
	if err != nil {
		return 0, err
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	switch role {
	case model.RoleReader:
		_, err = tx.ExecContext(ctx,
			"INSERT INTO reader_details (user_id, is_subscribed) VALUES (?,?)",
			userID, isSubscribed)
	case model.RoleAuthor:
		_, err = tx.ExecContext(ctx,
			"INSERT INTO author_details (user_id, bio) VALUES (?,?)",
			userID, bio)
	}
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(userID), nil
}

// RegisterAdmin inserts a row into the admins table.  Admin usernames share
// no namespace with registrations, so only the admins table is checked.
func (r *UserRepo) RegisterAdmin(ctx context.Context, userName, email, password string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var exists int
	err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM admins WHERE user_name=?", userName).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists > 0 {
		return 0, ErrIdentityExists
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admins (user_name, email, password) VALUES (?,?,?)",
		userName, strings.ToLower(strings.TrimSpace(email)), hash)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrIdentityExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetAdminByUserName fetches an admin credential row.
func (r *UserRepo) GetAdminByUserName(ctx context.Context, userName string) (model.Admin, error) {
	var a model.Admin
	err := r.DB.QueryRowContext(ctx,
		"SELECT admin_id, user_name, email, password FROM admins WHERE user_name=? LIMIT 1",
		userName).Scan(&a.AdminID, &a.UserName, &a.Email, &a.Password)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

// GetLoginByUserName fetches the registration joined with its user row for
// the login flow.
func (r *UserRepo) GetLoginByUserName(ctx context.Context, userName string) (LoginUser, error) {
	var u LoginUser
	err := r.DB.QueryRowContext(ctx,
		`SELECT u.user_id, r.user_name, r.email, r.password, u.role
		 FROM registrations r JOIN users u ON u.reg_id = r.reg_id
		 WHERE r.user_name=? LIMIT 1`,
		userName).Scan(&u.UserID, &u.UserName, &u.Email, &u.PasswordHash, &u.Role)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// EmailRegistered reports whether a registration exists for the email.
func (r *UserRepo) EmailRegistered(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registrations WHERE email=?", email).Scan(&n)
	return n > 0, err
}

// UserExists reports whether a user row exists.
func (r *UserRepo) UserExists(ctx context.Context, userID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE user_id=?", userID).Scan(&n)
	return n > 0, err
}

// GetUserName returns the display name of a user, or ErrNotFound.
func (r *UserRepo) GetUserName(ctx context.Context, userID uint64) (string, error) {
	var name string
	err := r.DB.QueryRowContext(ctx,
		`SELECT r.user_name FROM users u JOIN registrations r ON r.reg_id = u.reg_id
		 WHERE u.user_id=? LIMIT 1`, userID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return name, err
}

// ResetPassword rewrites the stored hash for the registration with the
// given email.  Returns ErrNotFound when the email is unknown.
func (r *UserRepo) ResetPassword(ctx context.Context, email, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE registrations SET password=? WHERE email=?", hash, email)
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

// UpsertReaderSubscription flips the denormalized is_subscribed flag,
// creating the reader_details row when missing.
func (r *UserRepo) UpsertReaderSubscription(ctx context.Context, userID uint64, subscribed bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reader_details SET is_subscribed=? WHERE user_id=?", subscribed, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		_, err = r.DB.ExecContext(ctx,
			"INSERT INTO reader_details (user_id, is_subscribed) VALUES (?,?)",
			userID, subscribed)
	}
	return err
}

// isDuplicate detects MySQL duplicate-key violations (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
