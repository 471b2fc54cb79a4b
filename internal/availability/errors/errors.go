package errors

import "errors"

var (
	ErrConfigNotFound = errors.New("availability config not found")

	ErrVersionMismatch = errors.New("availability config version changed")
)
