package service

import "errors"

// Sentinel errors every operation fails with; the HTTP layer maps them to
// status codes. Wrap with fmt.Errorf("%w: detail", ...) to name the violated
// precondition.
var (
	ErrValidation   = errors.New("validation")    // 400
	ErrNotFound     = errors.New("not found")     // 404
	ErrConflict     = errors.New("conflict")      // 409
	ErrInvalidState = errors.New("invalid state") // 422
)
