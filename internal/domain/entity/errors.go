package entity

import "errors"

var (
	ErrElementNotFound   = errors.New("element not found")
	ErrStaleReference    = errors.New("stale element reference")
	ErrGenerationFailure = errors.New("answer generation failed")
	ErrFillFailure       = errors.New("fill failed")
	ErrNavigationStuck   = errors.New("navigation stuck")
	ErrExtractionEmpty   = errors.New("no questions extracted")
	ErrDriverFatal       = errors.New("browser driver fatal error")
	ErrScriptUnsupported = errors.New("script execution not supported by driver")
)

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDriverFatal) ||
		errors.Is(err, ErrNavigationStuck) ||
		errors.Is(err, ErrExtractionEmpty)
}
