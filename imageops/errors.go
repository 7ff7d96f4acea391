package imageops

import "errors"

// Sentinel errors for imageops operations.
var (
	// ErrUnsupportedComposite indicates a source or destination type the
	// compositor does not handle.
	ErrUnsupportedComposite = errors.New("unsupported composite format")

	// ErrPixelTypeMismatch indicates two images that must share a pixel type do not.
	ErrPixelTypeMismatch = errors.New("pixel types do not match")

	// ErrNilImage indicates a nil image argument.
	ErrNilImage = errors.New("nil image")
)
