package account

import "errors"

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrPasswordMismatch   = errors.New("passwords do not match")

	// ErrInvalidVerification covers every format-class failure of a
	// verification token (missing separator, unknown user, email mismatch);
	// the caller never learns which part failed.
	ErrInvalidVerification = errors.New("invalid verification token")
)
