package errors

import "errors"

var (
	ErrAlreadyExists           = errors.New("already exists")
	ErrNotFound                = errors.New("not found")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidOrder            = errors.New("invalid order payload")
	ErrInvalidTransition       = errors.New("invalid order state transition")
	ErrStateConflict           = errors.New("order state conflict")
	ErrOrderTerminal           = errors.New("order already in terminal state")
	ErrUnsupportedFileType     = errors.New("unsupported file type")
	ErrVerificationUnavailable = errors.New("verification temporarily unavailable")
)
