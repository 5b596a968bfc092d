// Package server provides the HTTP API: the public site endpoints and the
// authenticated admin editor.
package server

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/portfolio-studio/internal/contact"
	"github.com/jonathan/portfolio-studio/internal/media"
	"github.com/jonathan/portfolio-studio/internal/portfolio"
	"github.com/jonathan/portfolio-studio/internal/storage"
	"github.com/jonathan/portfolio-studio/internal/validation"
)

// ErrInvalidCredentials indicates a wrong admin password
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid password"
}

// ErrBadRequest indicates a malformed request body or parameter
type ErrBadRequest struct {
	Message string
}

func (e *ErrBadRequest) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		credErr     *ErrInvalidCredentials
		badReq      *ErrBadRequest
		parseErr    *portfolio.ParseError
		pathErr     *portfolio.PathError
		listErr     *portfolio.ListError
		validErr    *validation.Error
		fieldErrs   validator.ValidationErrors
		tooLarge    *media.TooLargeError
		invalidMsg  *contact.InvalidError
		deliveryErr *contact.DeliveryError
		storageErr  *storage.Error
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &credErr):
		return http.StatusUnauthorized
	case errors.As(err, &badReq), errors.As(err, &parseErr), errors.As(err, &pathErr),
		errors.As(err, &listErr), errors.As(err, &fieldErrs), errors.As(err, &invalidMsg):
		return http.StatusBadRequest
	case errors.As(err, &validErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &deliveryErr):
		return http.StatusBadGateway
	case errors.As(err, &storageErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
