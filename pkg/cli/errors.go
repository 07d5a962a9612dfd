package cli

import "errors"

// Common CLI errors
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrNoRoutes         = errors.New("no routes loaded")
)
