package errx

import "net/http"

// Type represents the category of error
type Type string

const (
	// TypeInternal represents internal errors
	TypeInternal Type = "INTERNAL"

	// TypeValidation represents validation errors
	TypeValidation Type = "VALIDATION"

	// TypeNotFound represents resource not found errors
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict represents resource conflict errors
	TypeConflict Type = "CONFLICT"

	// TypeExternal represents errors from external services (redis, postgres)
	TypeExternal Type = "EXTERNAL"

	// TypeOperation represents a failure reported by a tracked operation
	TypeOperation Type = "OPERATION"
)

// String returns the string representation of the error type
func (t Type) String() string {
	return string(t)
}

// HTTPStatus maps the type to the status code the server answers with
func (t Type) HTTPStatus() int {
	switch t {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeOperation:
		return http.StatusUnprocessableEntity
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
