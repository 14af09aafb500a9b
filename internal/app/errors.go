package app

import "errors"

// Sentinel error kinds for the service lifecycle.
var (
	ErrAlreadyStarted = errors.New("service already started")
	ErrNotStarted     = errors.New("service not started")
)
