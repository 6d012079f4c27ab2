package services

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Sentinel errors raised by the service layer. Guard clauses wrap them
// with fmt.Errorf("%w: ...") so callers can match via errors.Is while
// the message stays specific.
var (
	// ErrInvalidInput flags arguments that fail validation before any
	// API call is made.
	ErrInvalidInput = errors.New("invalid input provided")

	// ErrInvalidMessageID flags an empty or malformed message ID.
	ErrInvalidMessageID = errors.New("invalid message ID")

	// ErrInvalidLabelID flags an empty or malformed label ID.
	ErrInvalidLabelID = errors.New("invalid label ID")

	// ErrNotFound reports an absent resource other than a message, such
	// as a draft or an attachment.
	ErrNotFound = errors.New("resource not found")

	// ErrMessageNotFound reports a message ID the account does not have.
	ErrMessageNotFound = errors.New("message not found")

	// ErrRateLimited reports a quota rejection from the Gmail API.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable reports a server-side Gmail API failure.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrCacheUnavailable is returned when the local cache store is not
	// open, usually because no account database was attached.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrAIServiceDown is returned when no LLM provider is configured.
	ErrAIServiceDown = errors.New("AI service down")
)

// wrapAPIError files a Gmail API failure under the matching sentinel.
// notFound is the sentinel to use for a 404 on this resource kind.
// Errors that are not API errors, and API errors with other status
// codes, pass through unchanged.
func wrapAPIError(err error, notFound error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusNotFound:
		return fmt.Errorf("%w: %v", notFound, err)
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case apiErr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return err
}

// IsRetryableError reports whether the failure is transient, so the
// same call could succeed a moment later.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServiceUnavailable)
}

// IsPermanentError reports whether retrying is pointless because the
// input or the addressed resource is wrong.
func IsPermanentError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidMessageID) ||
		errors.Is(err, ErrInvalidLabelID) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMessageNotFound)
}
