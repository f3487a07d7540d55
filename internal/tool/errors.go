package tool

import "errors"

// Sentinel errors for the registry and manager. Callers distinguish "missing"
// from "turned off" with errors.Is.
var (
	ErrNotFound       = errors.New("tool not found")
	ErrDisabled       = errors.New("tool is disabled")
	ErrArgumentDecode = errors.New("cannot decode tool arguments")
	ErrInvalidArgs    = errors.New("invalid tool arguments")
	ErrLegacyDisable  = errors.New("legacy tools cannot be disabled")
	ErrEmptyName      = errors.New("tool name is empty")
)
