package jsonwritestream

import (
	"errors"

	"github.com/arnodel/jsonwritestream/token"
)

// Errors returned by the writers.  They report misuse of the API and are
// never transient: retrying the same call fails the same way.  Text already
// sent to the sink before an error stays there.
var (
	// ErrEndOfStream is returned by any operation that would write after
	// the top-level value is complete or after the writer was closed.
	ErrEndOfStream = errors.New("end of stream")

	// ErrNotInObject is returned when an object operation is attempted while
	// the innermost open container is not an object.
	ErrNotInObject = errors.New("not currently writing an object")

	// ErrNotInArray is returned when an array operation is attempted while
	// the innermost open container is not an array.
	ErrNotInArray = errors.New("not currently writing an array")

	// ErrInvalidKey is returned when a key is missing or is not a string.
	ErrInvalidKey = token.ErrInvalidKey

	// ErrUnexpectedKey is returned when a key is given for a value that is
	// not an object member.
	ErrUnexpectedKey = errors.New("unexpected key")

	// ErrUnsupported is returned for values that have no JSON scalar
	// encoding.
	ErrUnsupported = token.ErrUnsupported

	// ErrWriterExpired is returned when a nested writer is used after the
	// callback it was handed to has returned.
	ErrWriterExpired = errors.New("writer used outside of its callback")

	// ErrWriterBusy is returned when a writer is used while one of its
	// nested writers is still open.
	ErrWriterBusy = errors.New("writer has an open nested writer")

	// ErrPoisoned is returned by every operation of a scoped session after a
	// callback failed.  The document is incomplete at that point.
	ErrPoisoned = errors.New("json stream abandoned after a failed callback")
)
