package errors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalid         = errors.New("invalid")
	ErrConflict        = errors.New("conflict")
	ErrTooMany         = errors.New("too many requests")
	ErrInternal        = errors.New("internal")
	ErrNoContent       = errors.New("no extractable content")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrUpstream        = errors.New("upstream service failed")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
