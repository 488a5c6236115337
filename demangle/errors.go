package demangle

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNotMangled indicates the input does not carry an Itanium mangling
	// prefix. Callers usually print such names unchanged.
	ErrNotMangled = errors.New("demangle: not a mangled name")

	// ErrMalformed indicates a recognized prefix followed by a grammar violation.
	ErrMalformed = errors.New("demangle: malformed mangled name")

	// ErrUnexpectedEnd indicates the input ended in the middle of a production.
	ErrUnexpectedEnd = errors.New("demangle: unexpected end of input")

	// ErrInvalidBackref indicates a substitution or template parameter
	// reference to an entry that does not exist.
	ErrInvalidBackref = errors.New("demangle: invalid back-reference")

	// ErrResourceLimit indicates the input exceeded a configured ceiling on
	// nesting depth, node count, or list length.
	ErrResourceLimit = errors.New("demangle: resource limit exceeded")
)

// Error provides detailed information about decoding failures.
type Error struct {
	Offset  int    // Byte offset within the mangled name
	Message string // Description of the error
	Err     error  // One of the sentinel errors above
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("demangle: parse error at offset %d: %s: %v",
			e.Offset, e.Message, e.Err)
	}
	return fmt.Sprintf("demangle: parse error at offset %d: %s",
		e.Offset, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports truncation and bad back-references as malformed input too.
func (e *Error) Is(target error) bool {
	return target == ErrMalformed &&
		(e.Err == ErrUnexpectedEnd || e.Err == ErrInvalidBackref)
}
