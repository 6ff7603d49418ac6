package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDefault            = errors.New("something went wrong, please try again")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrUnexpectedPayload  = errors.New("unexpected response payload")

	ErrNoItemApproved     = errors.New("approve at least one item before approving the request")
	ErrReturnDateRequired = errors.New("select a return date before approving the request")
	ErrSubmitInProgress   = errors.New("a submission for this request is already in progress")
	ErrNoItemSelected     = errors.New("select at least one item to borrow")
	ErrCollectionRequired = errors.New("choose a collection date and time")
	ErrNameRequired       = errors.New("equipment name is required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrMissingToken       = errors.New("login response did not include a token")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
	// Parsed reports whether Message came from the response body.
	Parsed bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// ErrorResponse is the error body the backend sends.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (r ErrorResponse) Text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Error
}

var validationErrs = []error{
	ErrNoItemApproved, ErrReturnDateRequired, ErrSubmitInProgress,
	ErrNoItemSelected, ErrCollectionRequired, ErrNameRequired, ErrPasswordMismatch,
}

func validationCause(err error) error {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return v
		}
	}
	return nil
}

// IsValidation reports whether err was raised locally before any backend call.
func IsValidation(err error) bool {
	return validationCause(err) != nil
}

// UserMessage picks the text shown to the user: the server's own message when
// it sent one, the validation message for local failures, the fallback otherwise.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Parsed && apiErr.Message != "" {
		return apiErr.Message
	}
	if v := validationCause(err); v != nil {
		return v.Error()
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return "The FabTrack service is unreachable right now. Please try again shortly."
	}
	return fallback
}

// First picks the error to act on among concurrent failures: an
// ErrUnauthorized wins, otherwise the first non-nil error.
func First(list ...error) error {
	var first error
	for _, err := range list {
		if err == nil {
			continue
		}
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}
