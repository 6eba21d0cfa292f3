package errors

import (
	"errors"
	"net/http"
)

// MapToHTTPStatus translates a service error into the status code of the facade.
// Unknown errors, storage failures included, are server-side failures.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSenderNotRegistered):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
