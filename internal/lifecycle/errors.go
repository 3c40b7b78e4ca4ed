package lifecycle

import "errors"

var (
	// ErrUnknownApp indicates no app definition directory exists for the
	// requested name.
	ErrUnknownApp = errors.New("unknown app")

	// ErrNotInstalled indicates a lifecycle action that requires the app
	// to be in the installed set.
	ErrNotInstalled = errors.New("app is not installed")
)
