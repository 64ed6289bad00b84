// Package errs defines the error taxonomy the service and repository
// layers speak. Raw store errors never cross the repository boundary;
// they are translated into exactly one of these kinds first.
package errs

import "fmt"

// Kind classifies a failure for transport mapping and assertions.
type Kind int

const (
	// KindValidation marks caller-supplied data as structurally invalid.
	KindValidation Kind = iota
	// KindConflict marks a uniqueness-invariant violation.
	KindConflict
	// KindRepository marks a store failure not attributable to input.
	KindRepository
)

// Error carries a short message and a longer description. Multi-id
// validation failures enumerate every offending id in the description.
type Error struct {
	Kind        Kind
	Message     string
	Description string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Description)
}

func Validation(message, description string) *Error {
	return &Error{Kind: KindValidation, Message: message, Description: description}
}

func Conflict(message, description string) *Error {
	return &Error{Kind: KindConflict, Message: message, Description: description}
}

func Repository(message, description string) *Error {
	return &Error{Kind: KindRepository, Message: message, Description: description}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

func IsValidation(err error) bool { return IsKind(err, KindValidation) }
func IsConflict(err error) bool   { return IsKind(err, KindConflict) }
func IsRepository(err error) bool { return IsKind(err, KindRepository) }
