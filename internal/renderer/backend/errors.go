package backend

import "errors"

// Sentinel errors for backends.
var (
	// ErrScreenInit is returned when the terminal screen cannot be initialized.
	ErrScreenInit = errors.New("terminal screen initialization failed")
)
