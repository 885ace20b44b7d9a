package render

import "errors"

var (
	// ErrBrowser is returned when no headless browser can be reached.
	ErrBrowser = errors.New("headless browser unavailable")
	// ErrPrint wraps page load and print failures.
	ErrPrint = errors.New("pdf print failed")
	// ErrStamp wraps pdf post-processing failures.
	ErrStamp = errors.New("pdf post-processing failed")
)
