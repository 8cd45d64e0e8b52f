package go_nativeload_pure

import "errors"

var (
	// ErrUnsupportedPlatform is returned when the host OS or architecture
	// has no bundled library. It is never retried.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrResourceNotFound is returned when the library for the detected
	// platform is not packaged.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrInvalidResourcePath indicates a packaging defect in a resource path.
	ErrInvalidResourcePath = errors.New("invalid resource path")
	// ErrLoadFailure is returned when the dynamic loader rejects a library.
	ErrLoadFailure = errors.New("load failure")
)
