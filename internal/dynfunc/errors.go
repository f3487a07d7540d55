package dynfunc

import "errors"

var (
	// ErrFunctionNotFound is returned when Call names a function that was
	// never registered with AddFunction.
	ErrFunctionNotFound = errors.New("dynamic function not found")

	// ErrResponseParse is returned when the backend reply contains no
	// extractable well-formed JSON object.
	ErrResponseParse = errors.New("no parsable JSON object in backend reply")
)

// SemanticError reports a well-formed backend reply that lacks a usable
// "response" value. Message carries the model's own error text when present.
type SemanticError struct {
	Message string
}

func (e *SemanticError) Error() string {
	if e.Message == "" {
		return "backend reported failure without detail"
	}
	return "backend reported failure: " + e.Message
}
