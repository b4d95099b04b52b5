package apperrors

import "errors"

// Error kinds; the HTTP layer maps each to a status code
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrInvalidFormat      = errors.New("invalid token format")
	ErrTooManyRequests    = errors.New("too many requests")

	ErrPermissionDenied = errors.New("permission denied")

	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	ErrTimeout = errors.New("operation timed out")
)

// Tenant record errors
var (
	ErrSchoolNotFound  = errors.New("school not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrNoGradesForTerm = errors.New("no grades recorded for this term")

	ErrSchoolCodeTaken = errors.New("school code already taken")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrSubjectExists   = errors.New("subject already exists")

	// admission numbers carry only the code base, so bases are unique too
	ErrSchoolCodeBaseTaken = errors.New("school code prefix already used by another school")

	// same for used, unknown and foreign codes
	ErrInvalidLinkCode = errors.New("invalid or expired code")
)

// CustomError pairs an error kind with a message safe to show to clients
type CustomError struct {
	Err     error
	Message string
}

func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

func NewResourceNotFoundError(message string) error {
	return &CustomError{Err: ErrResourceNotFound, Message: message}
}

func NewConflictError(message string) error {
	return &CustomError{Err: ErrConflict, Message: message}
}

func NewForbiddenError(message string) error {
	return &CustomError{Err: ErrPermissionDenied, Message: message}
}

func NewValidationError(message string) error {
	return &CustomError{Err: ErrValidationFailed, Message: message}
}

func NewBadRequestError(message string) error {
	return &CustomError{Err: ErrBadRequest, Message: message}
}

func NewTimeoutError(message string) error {
	return &CustomError{Err: ErrTimeout, Message: message}
}

// Is reports whether err matches any of the targets
func Is(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// UserMessage returns the message of the first CustomError in err's chain
func UserMessage(err error) (string, bool) {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message, true
	}
	return "", false
}
