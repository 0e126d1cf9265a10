package session

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account inactive")

	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenRevoked   = errors.New("token has been revoked")
	ErrMalformedToken = errors.New("malformed token")

	ErrWrongPassword        = errors.New("wrong password")
	ErrPasswordUnchanged    = errors.New("new password must be different")
	ErrConfirmationMismatch = errors.New("passwords do not match")
)
