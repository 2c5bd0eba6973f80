package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid       ErrorCode = "invalid"
	ErrorUnauthorized  ErrorCode = "unauthorized"
	ErrorForbidden     ErrorCode = "forbidden"
	ErrorNotFound      ErrorCode = "not_found"
	ErrorConflict      ErrorCode = "conflict"
	ErrorPrecondition  ErrorCode = "precondition_failed"
	ErrorUpstream      ErrorCode = "upstream"
	ErrorNotConfigured ErrorCode = "not_configured"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func NewPreconditionError(msg string) error {
	return &ServiceError{Code: ErrorPrecondition, Message: msg}
}

func NewUpstreamError(msg string) error { return &ServiceError{Code: ErrorUpstream, Message: msg} }

func NewNotConfiguredError(msg string) error {
	return &ServiceError{Code: ErrorNotConfigured, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
