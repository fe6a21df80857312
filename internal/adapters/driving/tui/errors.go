package tui

import "errors"

// ErrMissingAccessService is returned when the access service is not provided.
var ErrMissingAccessService = errors.New("tui: access service is required")

// ErrMissingCaller is returned when no caller ID is given.
var ErrMissingCaller = errors.New("tui: caller ID is required")
