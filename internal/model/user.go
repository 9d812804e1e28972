package model

import "time"

// Role values accepted at registration time.  The users.role column itself
// is a free-form string; these constants are the only values the API will
// ever write into it.
const (
	RoleReader = "reader"
	RoleAuthor = "author"
	RoleAdmin  = "admin"
)

// ValidRole reports whether the given role is one of the known values.
func ValidRole(role string) bool {
	return role == RoleReader || role == RoleAuthor || role == RoleAdmin
}

// Registration holds the credentials a reader or author signs up with.
// Each registration is linked one-to-one with a User row carrying the role
// and profile extensions.
//
// Fields:
//
//	RegID    – primary key identifier.
//	Email    – unique email address.
//	UserName – unique login name.
//	Password – bcrypt hash of the password.
type Registration struct {
	RegID    uint64 // registrations.reg_id
	Email    string // registrations.email
	UserName string // registrations.user_name
	Password string // registrations.password (bcrypt hash)
}

// User links a registration to a role.  Depending on the role the user has
// either a ReaderDetail or an AuthorDetail extension row.
//
// Fields:
//
//	UserID    – primary key identifier.
//	RegID     – foreign key into registrations.
//	Role      – "reader" or "author" (admins live in their own table).
//	CreatedAt – timestamp of account creation.
type User struct {
	UserID    uint64    // users.user_id
	RegID     uint64    // users.reg_id
	Role      string    // users.role
	CreatedAt time.Time // users.created_at
}

// Admin is a separate credential entity; admins are not Users and carry no
// registration row.
type Admin struct {
	AdminID  uint64 // admins.admin_id
	UserName string // admins.user_name
	Email    string // admins.email
	Password string // admins.password (bcrypt hash)
}

// AuthorDetail extends a User with an author profile.
type AuthorDetail struct {
	AuthorID uint64 // author_details.author_id
	UserID   uint64 // author_details.user_id
	Bio      string // author_details.bio
}

// ReaderDetail extends a User with the denormalized subscription flag.  The
// authoritative subscription state is derived from the payments table; this
// flag only feeds the admin readers listing.
type ReaderDetail struct {
	ReaderID     uint64 // reader_details.reader_id
	UserID       uint64 // reader_details.user_id
	IsSubscribed bool   // reader_details.is_subscribed
}
