package errors

import (
	"errors"
	"fmt"
)

// Sentinel kinds for the emulator core. Handlers translate these into
// protocol-level exception responses; the core never formats a response body.
var (
	// ErrInvalidParameter indicates malformed input that cannot be decoded,
	// such as an unparsable bearer token.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrResourceNotFound indicates a referenced client identifier with no
	// registered user pool mapping.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrUserNotFound indicates a username that does not exist within an
	// otherwise-resolved user pool. This is a different failure domain from
	// ErrResourceNotFound and the two must never be collapsed.
	ErrUserNotFound = errors.New("user not found")
)

// ServiceError pairs a sentinel kind with the wire-level exception name the
// emulated service would return.
type ServiceError struct {
	Kind    error
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Kind
}

// InvalidParameter creates an InvalidParameterException error.
func InvalidParameter(message string) error {
	return &ServiceError{
		Kind:    ErrInvalidParameter,
		Code:    "InvalidParameterException",
		Message: message,
	}
}

// ResourceNotFound creates a ResourceNotFoundException error naming the
// client identifier that has no registered mapping.
func ResourceNotFound(clientID string) error {
	return &ServiceError{
		Kind:    ErrResourceNotFound,
		Code:    "ResourceNotFoundException",
		Message: fmt.Sprintf("client %s is not registered to a user pool", clientID),
	}
}

// UserNotFound creates a UserNotFoundException error for a username missing
// from a resolved user pool.
func UserNotFound(username string) error {
	return &ServiceError{
		Kind:    ErrUserNotFound,
		Code:    "UserNotFoundException",
		Message: fmt.Sprintf("user %s does not exist", username),
	}
}

// Code returns the wire-level exception name for err, or a generic
// InternalErrorException when err carries no service code.
func Code(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	return "InternalErrorException"
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
