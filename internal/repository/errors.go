// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow handlers to translate failure
// scenarios into HTTP statuses without string matching: ErrNotFound becomes
// a 404, ErrIdentityExists a 400 on registration.
package repository

import "errors"

// ErrNotFound is returned when a row looked up by id (or email) does not
// exist.  Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrIdentityExists is returned when a registration would reuse an existing
// username or email.  Handlers should translate this into an HTTP 400.
var ErrIdentityExists = errors.New("username or email already exists")
