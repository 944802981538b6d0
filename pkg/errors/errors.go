package errors

import "fmt"

// Error codes
const (
	CodeAppError   = "APP_ERROR"
	CodeAPIError   = "API_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeCache      = "CACHE_ERROR"
	CodeService    = "SERVICE_ERROR"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

type APIError struct {
	*AppError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

type ValidationError struct {
	*AppError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

// NotFoundError reports a missing catalog entry (reference, personal work, profile).
type NotFoundError struct {
	*AppError
	Resource string
	ID       string
}

func NewNotFoundError(message, resource, id string) *NotFoundError {
	return &NotFoundError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeNotFound,
			StatusCode: 404,
			Context: map[string]any{
				"resource": resource,
				"id":       id,
			},
		},
		Resource: resource,
		ID:       id,
	}
}

type CacheError struct {
	*AppError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ServiceError struct {
	*AppError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeService,
			StatusCode: 500,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}

// HTTPStatus exposes the status code through every wrapper type that embeds AppError.
func (e *AppError) HTTPStatus() int {
	if e.StatusCode == 0 {
		return 500
	}
	return e.StatusCode
}

type statusCoder interface {
	HTTPStatus() int
}

// StatusCode walks the error chain and returns the first carried HTTP status, or 500.
func StatusCode(err error) int {
	for err != nil {
		if sc, ok := err.(statusCoder); ok {
			return sc.HTTPStatus()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 500
		}
		err = u.Unwrap()
	}
	return 500
}

// PublicMessage is the message without the wrapped cause.
func (e *AppError) PublicMessage() string {
	return e.Message
}

type publicMessager interface {
	PublicMessage() string
}

// Message returns the first AppError message in the chain, or err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	for cur := err; cur != nil; {
		if pm, ok := cur.(publicMessager); ok {
			return pm.PublicMessage()
		}
		u, ok := cur.(interface{ Unwrap() error })
		if !ok {
			break
		}
		cur = u.Unwrap()
	}
	return err.Error()
}
