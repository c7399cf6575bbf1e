package response

import (
	"errors"
	"net/http"
)

// Error couples an error message with the HTTP status it should surface as.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

// NewError creates a status-carrying error.
func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// StatusCode returns the HTTP status carried anywhere in err's chain,
// or 500 when none is present.
func StatusCode(err error) int {
	var respErr *Error
	if errors.As(err, &respErr) {
		return respErr.Code
	}
	return http.StatusInternalServerError
}
